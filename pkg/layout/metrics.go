package layout

import (
	"io"
	"math"

	"github.com/charmbracelet/log"
)

// Metrics are the grid dimensions used by the engine.
type Metrics struct {
	NodeWidth  float64 // horizontal span of a node
	NodeHeight float64 // vertical span of a node
	SlotWidth  float64 // minimum distance between node centers on a row
	RowHeight  float64 // vertical distance between generations
	Margin     float64 // offset of the top-left node from the origin
	Padding    float64 // space added to the right and bottom of the canvas
}

// DefaultMetrics returns the standard chart grid.
func DefaultMetrics() Metrics {
	return Metrics{
		NodeWidth:  2,
		NodeHeight: 1,
		SlotWidth:  3,
		RowHeight:  2,
		Margin:     1,
		Padding:    1,
	}
}

const (
	// DefaultReferenceX is the horizontal origin of the root's sibling block
	// before normalization.
	DefaultReferenceX = 1000.0

	// DefaultMaxResolvePasses bounds the collision sweep.
	DefaultMaxResolvePasses = 16

	eps = 1e-9
)

// Option configures a layout run.
type Option func(*config)

type config struct {
	metrics    Metrics
	referenceX float64
	maxPasses  int
	logger     *log.Logger
}

// WithLogger sets the logger for stage statistics and warnings.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics overrides the grid dimensions. Metrics without a positive node
// or slot width fall back to [DefaultMetrics].
func WithMetrics(m Metrics) Option { return func(c *config) { c.metrics = m } }

// WithReferenceX sets the pre-normalization origin of the root row.
func WithReferenceX(x float64) Option { return func(c *config) { c.referenceX = x } }

// WithMaxResolvePasses sets the collision sweep budget. Values below 1 are ignored.
func WithMaxResolvePasses(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxPasses = n
		}
	}
}

func newConfig(opts []Option) *config {
	c := &config{
		metrics:    DefaultMetrics(),
		referenceX: DefaultReferenceX,
		maxPasses:  DefaultMaxResolvePasses,
		logger:     log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics.NodeWidth <= 0 || c.metrics.SlotWidth <= 0 {
		c.logger.Warn("invalid grid metrics, using defaults", "node_width", c.metrics.NodeWidth, "slot_width", c.metrics.SlotWidth)
		c.metrics = DefaultMetrics()
	}
	if c.metrics.SlotWidth < c.metrics.NodeWidth {
		c.metrics.SlotWidth = c.metrics.NodeWidth
	}
	c.metrics.SlotWidth = math.Ceil(c.metrics.SlotWidth*2) / 2
	return c
}

// snap rounds x to the half-unit grid. It is monotone and commutes with
// shifts by half units, so separations of a full slot survive it.
func snap(x float64) float64 {
	return math.Floor(x*2+0.5) / 2
}
