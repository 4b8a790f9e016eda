package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/lineage/pkg/errors"
	"github.com/matzehuels/lineage/pkg/family"
)

// Format is a tree file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath derives the tree format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported tree file %q (want .json, .yaml or .yml)", filepath.Base(path))
}

// =============================================================================
// Tree Serialization API
// =============================================================================

// MarshalTree encodes a tree in the given format.
func MarshalTree(t family.Tree, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteTree(t, &buf, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalTree decodes a tree in the given format.
func UnmarshalTree(data []byte, format Format) (family.Tree, error) {
	return ReadTree(bytes.NewReader(data), format)
}

// WriteTreeFile writes a tree to path, choosing the format from its extension.
func WriteTreeFile(t family.Tree, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteTree(t, f, format)
}

// WriteTree encodes a tree to w.
func WriteTree(t family.Tree, w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown tree format %q", format)
	}
	return nil
}

// ReadTreeFile reads a tree from path, choosing the format from its extension.
// Missing files are reported as [errors.ErrCodeFileNotFound].
func ReadTreeFile(path string) (family.Tree, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return family.Tree{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return family.Tree{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "tree file %s", path)
		}
		return family.Tree{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadTree(f, format)
}

// ReadTree decodes a tree from r. Decoding errors are reported as
// [errors.ErrCodeInvalidTree].
func ReadTree(r io.Reader, format Format) (family.Tree, error) {
	var t family.Tree
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&t)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&t)
		if err == io.EOF {
			err = nil
		}
	default:
		return family.Tree{}, errors.New(errors.ErrCodeInvalidFormat, "unknown tree format %q", format)
	}
	if err != nil {
		return family.Tree{}, errors.Wrap(errors.ErrCodeInvalidTree, err, "decode %s tree", format)
	}
	return t, nil
}
