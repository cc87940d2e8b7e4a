package model

import (
	"fmt"
	"strconv"
)

// KeyMapping names the fields of raw tree data that hold a node's label,
// its children and its disabled flag.
type KeyMapping struct {
	Label    string `yaml:"label,omitempty" json:"label,omitempty"`
	Children string `yaml:"children,omitempty" json:"children,omitempty"`
	Disabled string `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// DefaultKeyMapping matches the common region data format:
// {"name": "...", "sub": [...]}
func DefaultKeyMapping() KeyMapping {
	return KeyMapping{
		Label:    "name",
		Children: "sub",
		Disabled: "disabled",
	}
}

// WithDefaults fills empty fields from DefaultKeyMapping
func (k KeyMapping) WithDefaults() KeyMapping {
	d := DefaultKeyMapping()
	if k.Label == "" {
		k.Label = d.Label
	}
	if k.Children == "" {
		k.Children = d.Children
	}
	if k.Disabled == "" {
		k.Disabled = d.Disabled
	}
	return k
}

// Normalize converts generically decoded data (as produced by JSON or YAML
// decoders into `any`) into nodes. Entries that are not objects become nodes
// with an empty label, a children value that is not a list is treated as
// absent, and labels that are not strings or numbers become "". Normalize
// never fails.
//
// The walk uses an explicit stack so very deep inputs cannot exhaust the
// goroutine stack.
func Normalize(raw []any, keys KeyMapping) []Node {
	keys = keys.WithDefaults()

	type frame struct {
		src []any
		dst *[]Node
	}

	var roots []Node
	stack := []frame{{src: raw, dst: &roots}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		*f.dst = make([]Node, len(f.src))
		for i, item := range f.src {
			obj, ok := asObject(item)
			if !ok {
				continue
			}
			node := &(*f.dst)[i]
			node.Label = labelOf(obj[keys.Label])
			node.Disabled = truthy(obj[keys.Disabled])
			if children, ok := obj[keys.Children].([]any); ok && len(children) > 0 {
				stack = append(stack, frame{src: children, dst: &node.Children})
			}
		}
	}
	return roots
}

// asObject accepts both map shapes the supported decoders produce.
func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			if ks, ok := k.(string); ok {
				out[ks] = val
			}
		}
		return out, true
	}
	return nil, false
}

func labelOf(v any) string {
	switch l := v.(type) {
	case string:
		return l
	case int:
		return strconv.Itoa(l)
	case int64:
		return strconv.FormatInt(l, 10)
	case float64:
		return strconv.FormatFloat(l, 'f', -1, 64)
	case fmt.Stringer:
		// json.Number from decoders running with UseNumber
		return l.String()
	}
	return ""
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(b)
		return err == nil && parsed
	}
	return false
}
