// Package loader reads selection trees from JSON and YAML files.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/cpick/pkg/model"
)

// Stdin is the path that reads JSON from standard input.
const Stdin = "-"

// Supported formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnsupportedFormat is returned for files whose extension is not a known
// tree format.
var ErrUnsupportedFormat = errors.New("unsupported tree format")

// DecodeError reports a tree file that could not be parsed.
type DecodeError struct {
	File   string
	Format string
	Cause  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s as %s: %v", e.File, e.Format, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// FormatOf picks the decoder for path from its extension.
func FormatOf(path string) (string, error) {
	if path == Stdin {
		return FormatJSON, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}

// ReadSource returns the raw bytes of path, or of stdin for "-".
func ReadSource(path string) ([]byte, error) {
	if path == Stdin {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// LoadTree reads and normalizes one tree file.
func LoadTree(path string, keys model.KeyMapping) ([]model.Node, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	return DecodeTree(data, path, format, keys)
}

// DecodeTree parses data in format and normalizes it with keys. The root may
// be a list of nodes or an object holding that list under the children key.
// name only labels errors.
func DecodeTree(data []byte, name, format string, keys model.KeyMapping) ([]model.Node, error) {
	keys = keys.WithDefaults()

	var raw any
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, &DecodeError{File: name, Format: format, Cause: err}
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &DecodeError{File: name, Format: format, Cause: err}
		}
	default:
		return nil, fmt.Errorf("%s: %q: %w", name, format, ErrUnsupportedFormat)
	}

	list, err := rootList(raw, keys)
	if err != nil {
		return nil, &DecodeError{File: name, Format: format, Cause: err}
	}
	return model.Normalize(list, keys), nil
}

func rootList(raw any, keys model.KeyMapping) ([]any, error) {
	switch root := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		return root, nil
	case map[string]any:
		if list, ok := root[keys.Children].([]any); ok {
			return list, nil
		}
		return nil, fmt.Errorf("root object has no %q list", keys.Children)
	case map[any]any:
		if list, ok := root[keys.Children].([]any); ok {
			return list, nil
		}
		return nil, fmt.Errorf("root object has no %q list", keys.Children)
	}
	return nil, fmt.Errorf("root must be a list or an object, got %T", raw)
}

// LoadTrees loads every path concurrently and concatenates their roots in
// argument order. The first failure cancels the rest.
func LoadTrees(ctx context.Context, paths []string, keys model.KeyMapping) ([]model.Node, error) {
	results := make([][]model.Node, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			nodes, err := LoadTree(path, keys)
			if err != nil {
				return err
			}
			results[i] = nodes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var tree []model.Node
	for _, nodes := range results {
		tree = append(tree, nodes...)
	}
	return tree, nil
}
