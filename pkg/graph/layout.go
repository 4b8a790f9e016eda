package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/lineage/pkg/layout"
)

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Validates that dashed indexes refer to existing connectors. A missing
// node size is filled in from the default grid.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}
	for _, d := range l.Dashed {
		if d < 0 || d >= len(l.Connectors) {
			return Layout{}, fmt.Errorf("dashed index %d out of range (%d connectors)", d, len(l.Connectors))
		}
	}
	if l.NodeSize.Width <= 0 || l.NodeSize.Height <= 0 {
		m := layout.DefaultMetrics()
		l.NodeSize = Size{Width: m.NodeWidth, Height: m.NodeHeight}
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
