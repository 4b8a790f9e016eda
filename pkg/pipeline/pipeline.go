// Package pipeline provides the parse → layout → render pipeline for family
// trees.
//
// This package implements the complete pipeline that is used by the CLI and
// the API server. By centralizing this logic, both entry points derive the
// same cache keys, apply the same defaults, and produce identical output.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: Decode a tree file (JSON or YAML) and validate it
//  2. Layout: Place every person on the chart grid
//  3. Render: Generate output in various formats (SVG, PNG, DOT, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, tree, pipeline.Options{
//	    VizType: "chart",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Layout only
//	l, err := runner.ComputeLayout(ctx, tree, opts)
//
//	// Render with existing layout
//	artifacts, err := runner.Render(ctx, l, tree, opts)
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/graph"
	"github.com/matzehuels/lineage/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultVizType is the default visualization type.
const DefaultVizType = graph.VizTypeChart

// DefaultStyle is the default visual style.
const DefaultStyle = graph.StyleSimple

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats lists the supported output formats per visualization type.
var ValidFormats = map[string][]string{
	graph.VizTypeChart:    {FormatSVG, FormatJSON},
	graph.VizTypeNodelink: {FormatSVG, FormatPNG, FormatDOT, FormatJSON},
}

// ValidStyles is the set of supported visual styles.
var ValidStyles = map[string]bool{
	graph.StyleSimple:  true,
	graph.StyleClassic: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	RootID     string          `json:"root,omitempty"`
	Metrics    *layout.Metrics `json:"metrics,omitempty"`
	ReferenceX float64         `json:"reference_x,omitempty"`
	MaxPasses  int             `json:"max_passes,omitempty"`
	Refresh    bool            `json:"refresh,omitempty"`

	// Render options
	VizType  string   `json:"type,omitempty"`
	Formats  []string `json:"formats,omitempty"`
	Style    string   `json:"style,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // nodelink labels with years and generation

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// TreeHash is the content hash of the laid out tree.
	TreeHash string

	// Layout is the serialized chart layout.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Persons       int
	Relationships int
	Nodes         int
	Connectors    int
	LayoutTime    time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateVizType checks that a visualization type is valid.
func ValidateVizType(vizType string) error {
	if _, ok := ValidFormats[vizType]; !ok {
		return errors.New(errors.ErrCodeInvalidVizType, "invalid type: %q (must be one of: chart, nodelink)", vizType)
	}
	return nil
}

// ValidateFormat checks that a format is supported for the visualization type.
func ValidateFormat(vizType, format string) error {
	valid, ok := ValidFormats[vizType]
	if !ok {
		return ValidateVizType(vizType)
	}
	if !slices.Contains(valid, format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid %s format: %q (must be one of: %s)",
			vizType, format, strings.Join(valid, ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid for the visualization type.
func ValidateFormats(vizType string, formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(vizType, f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is valid.
func ValidateStyle(style string) error {
	if !ValidStyles[style] {
		return errors.New(errors.ErrCodeInvalidStyle, "invalid style: %q (must be one of: simple, classic)", style)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.ReferenceX == 0 {
		o.ReferenceX = layout.DefaultReferenceX
	}
	if o.MaxPasses == 0 {
		o.MaxPasses = layout.DefaultMaxResolvePasses
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if o.RootID != "" {
		if err := errors.ValidatePersonID(o.RootID); err != nil {
			return err
		}
	}
	if o.MaxPasses < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max_passes must be positive, got %d", o.MaxPasses)
	}
	if m := o.Metrics; m != nil && (m.NodeWidth <= 0 || m.NodeHeight <= 0 || m.RowHeight <= m.NodeHeight) {
		return errors.New(errors.ErrCodeInvalidInput, "metrics need positive node size and a row height above the node height")
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateVizType(o.VizType); err != nil {
		return err
	}
	if err := ValidateFormats(o.VizType, o.Formats); err != nil {
		return err
	}
	return ValidateStyle(o.Style)
}

// IsNodelink returns true if this is a nodelink visualization.
func (o *Options) IsNodelink() bool {
	return o.VizType == graph.VizTypeNodelink
}

// metrics returns the configured grid or the default one.
func (o *Options) metrics() layout.Metrics {
	if o.Metrics != nil {
		return *o.Metrics
	}
	return layout.DefaultMetrics()
}

// LayoutOptions converts the options to engine options.
func (o *Options) LayoutOptions() []layout.Option {
	return []layout.Option{
		layout.WithMetrics(o.metrics()),
		layout.WithReferenceX(o.ReferenceX),
		layout.WithMaxResolvePasses(o.MaxPasses),
		layout.WithLogger(o.Logger),
	}
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	m := o.metrics()
	return cache.LayoutKeyOpts{
		RootID:     o.RootID,
		NodeWidth:  m.NodeWidth,
		NodeHeight: m.NodeHeight,
		SlotWidth:  m.SlotWidth,
		RowHeight:  m.RowHeight,
		Margin:     m.Margin,
		Padding:    m.Padding,
		ReferenceX: o.ReferenceX,
		MaxPasses:  o.MaxPasses,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		VizType:  o.VizType,
		Format:   format,
		Style:    o.Style,
		Scale:    o.Scale,
		Detailed: o.Detailed,
	}
}
