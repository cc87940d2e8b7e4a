package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is one entry of a selection tree. Children may be nil or empty; both
// mean the node is a leaf.
type Node struct {
	Label    string `json:"label" yaml:"label"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Children []Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsLeaf returns true if selecting this node ends the path
func (n Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Row returns the node stripped of its children, as shown in a column
func (n Node) Row() Row {
	return Row{Label: n.Label, Disabled: n.Disabled}
}

// Clone creates a deep copy of the node and its subtree
func (n Node) Clone() Node {
	clone := n
	if n.Children != nil {
		clone.Children = make([]Node, len(n.Children))
		for i, child := range n.Children {
			clone.Children[i] = child.Clone()
		}
	}
	return clone
}

// Row is a single selectable entry in a column. It never carries children.
type Row struct {
	Label    string `json:"label"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Level is the ordered set of sibling rows offered at one depth.
type Level []Row

// Strip converts sibling nodes into a column of rows.
func Strip(siblings []Node) Level {
	level := make(Level, len(siblings))
	for i, n := range siblings {
		level[i] = n.Row()
	}
	return level
}

// Labels returns the row labels in order
func (l Level) Labels() []string {
	labels := make([]string, len(l))
	for i, r := range l {
		labels[i] = r.Label
	}
	return labels
}

// SameContent reports whether both levels show the same labels in the same
// order with the same disabled flags.
func (l Level) SameContent(other Level) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}

// FirstEnabled returns the index of the first row that is not disabled, or -1
func (l Level) FirstEnabled() int {
	for i, r := range l {
		if !r.Disabled {
			return i
		}
	}
	return -1
}

// Path holds one selected sibling index per materialized depth.
type Path []int

// Clone returns an independent copy of the path
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Equal reports whether both paths select the same indices
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// String formats the path as comma separated indices, e.g. "0,2,1"
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}

// PickerModel is the derived state of a cascading picker: the columns on
// screen, the selected index in each, and the joined labels.
type PickerModel struct {
	Levels      []Level `json:"levels"`
	Path        Path    `json:"path"`
	DisplayText string  `json:"text"`
}

// SelectedLabels returns the label of the selected row at every depth
func (m PickerModel) SelectedLabels() []string {
	labels := make([]string, 0, len(m.Path))
	for i, idx := range m.Path {
		if i >= len(m.Levels) || idx < 0 || idx >= len(m.Levels[i]) {
			break
		}
		labels = append(labels, m.Levels[i][idx].Label)
	}
	return labels
}

// Validate checks the structural invariants of the model
func (m PickerModel) Validate() error {
	if len(m.Levels) != len(m.Path) {
		return fmt.Errorf("path has %d entries but model has %d levels", len(m.Path), len(m.Levels))
	}
	for i, idx := range m.Path {
		if idx < 0 || idx >= len(m.Levels[i]) {
			return fmt.Errorf("path[%d]=%d out of range for level of %d rows", i, idx, len(m.Levels[i]))
		}
	}
	return nil
}

// Equal reports whether two models have identical levels, path and text
func (m PickerModel) Equal(other PickerModel) bool {
	if m.DisplayText != other.DisplayText || !m.Path.Equal(other.Path) {
		return false
	}
	if len(m.Levels) != len(other.Levels) {
		return false
	}
	for i := range m.Levels {
		if !m.Levels[i].SameContent(other.Levels[i]) {
			return false
		}
	}
	return true
}

// ParsePath parses "0,2,1" (spaces allowed) into a Path. An empty string
// yields an empty path.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Path{}, nil
	}
	parts := strings.Split(s, ",")
	path := make(Path, 0, len(parts))
	for _, part := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid path index %q: %w", part, err)
		}
		path = append(path, idx)
	}
	return path, nil
}
