// Package cascade derives the columns of a hierarchical picker from a tree
// and keeps a set of column widgets consistent as the selection changes.
package cascade

import (
	"strings"

	"github.com/vanderheijden86/cpick/pkg/model"
)

// DefaultSeparator joins the selected labels into the display text.
const DefaultSeparator = " "

// ComputeModel walks tree along desired and returns the corrected model.
// Missing or out-of-range indices fall back to 0. The walk stops at the first
// selected node without children, or at an empty sibling list.
func ComputeModel(tree []model.Node, desired model.Path) model.PickerModel {
	return ComputeModelSep(tree, desired, DefaultSeparator)
}

// ComputeModelSep is ComputeModel with a custom label separator.
func ComputeModelSep(tree []model.Node, desired model.Path, sep string) model.PickerModel {
	m := model.PickerModel{
		Levels: []model.Level{},
		Path:   model.Path{},
	}

	var labels []string
	siblings := tree
	for depth := 0; len(siblings) > 0; depth++ {
		idx := 0
		if depth < len(desired) && desired[depth] >= 0 && desired[depth] < len(siblings) {
			idx = desired[depth]
		}

		m.Levels = append(m.Levels, model.Strip(siblings))
		m.Path = append(m.Path, idx)

		chosen := siblings[idx]
		labels = append(labels, chosen.Label)
		siblings = chosen.Children
	}

	m.DisplayText = strings.Join(labels, sep)
	return m
}

// Recompute is ComputeModelSep for a live picker: when the tree yields no
// columns at all the previous display text is kept.
func Recompute(prev model.PickerModel, tree []model.Node, desired model.Path, sep string) model.PickerModel {
	next := ComputeModelSep(tree, desired, sep)
	if len(next.Levels) == 0 {
		next.DisplayText = prev.DisplayText
	}
	return next
}
