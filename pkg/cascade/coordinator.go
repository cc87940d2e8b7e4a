package cascade

import (
	"errors"
	"fmt"

	"github.com/vanderheijden86/cpick/pkg/model"
)

// ErrRowOutOfRange is returned when a row index does not exist in its column.
var ErrRowOutOfRange = errors.New("row index out of range")

// Wheel is a single column widget. Both operations must be idempotent and
// must not report a settle back to the caller.
type Wheel interface {
	SetRows(rows model.Level) error
	SetActiveIndex(row int) error
}

// Host owns the wheels a Coordinator drives.
type Host interface {
	// EnsureColumns grows or shrinks the set of wheels to exactly n.
	EnsureColumns(n int)
	// Wheel returns the widget for a column; nil if the column does not exist.
	Wheel(column int) Wheel
}

// DesyncError reports a wheel that refused a resync.
type DesyncError struct {
	Column int
	Cause  error
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("column %d: wheel rejected resync: %v", e.Column, e.Cause)
}

func (e *DesyncError) Unwrap() error {
	return e.Cause
}

// Coordinator owns the live path of one picker. It is not safe for
// concurrent use; callers deliver column changes one at a time.
type Coordinator struct {
	tree []model.Node
	sep  string
	host Host

	current model.PickerModel
	// shown is what each wheel was last told to display
	shown []model.Level
}

// NewCoordinator computes the initial model for tree along initial.
func NewCoordinator(tree []model.Node, initial model.Path, sep string) *Coordinator {
	if sep == "" {
		sep = DefaultSeparator
	}
	return &Coordinator{
		tree:    tree,
		sep:     sep,
		current: ComputeModelSep(tree, initial, sep),
	}
}

// Model returns the live model.
func (c *Coordinator) Model() model.PickerModel {
	return c.current
}

// Tree returns the tree the coordinator walks.
func (c *Coordinator) Tree() []model.Node {
	return c.tree
}

// Separator returns the label separator in use.
func (c *Coordinator) Separator() string {
	return c.sep
}

// Attach binds the coordinator to host and pushes every column to it.
func (c *Coordinator) Attach(host Host) error {
	c.host = host
	c.shown = nil
	return c.sync(c.current)
}

// OnColumnChanged applies a settle in column to row, recomputes the model and
// resyncs every wheel whose content or active row went stale. On failure the
// previous model stays live.
func (c *Coordinator) OnColumnChanged(column, row int) error {
	if column < 0 || column >= len(c.current.Levels) {
		return fmt.Errorf("column %d of %d: %w", column, len(c.current.Levels), ErrRowOutOfRange)
	}

	candidate := make(model.Path, column+1)
	copy(candidate, c.current.Path[:column])
	candidate[column] = row

	next := Recompute(c.current, c.tree, candidate, c.sep)
	if err := c.sync(next); err != nil {
		return err
	}
	c.current = next
	return nil
}

// SetPath jumps straight to path, as if every column had been changed.
func (c *Coordinator) SetPath(path model.Path) error {
	next := Recompute(c.current, c.tree, path, c.sep)
	if err := c.sync(next); err != nil {
		return err
	}
	c.current = next
	return nil
}

// sync pushes next to the host. shown is only updated once every wheel has
// accepted its update.
func (c *Coordinator) sync(next model.PickerModel) error {
	if c.host == nil {
		return nil
	}
	c.host.EnsureColumns(len(next.Levels))

	shown := make([]model.Level, len(next.Levels))
	for i, level := range next.Levels {
		w := c.host.Wheel(i)
		if w == nil {
			return &DesyncError{Column: i, Cause: errors.New("no wheel for column")}
		}

		stale := i >= len(c.shown) || !c.shown[i].SameContent(level)
		if stale {
			if err := w.SetRows(level); err != nil {
				return &DesyncError{Column: i, Cause: err}
			}
		}
		if stale || c.current.Path == nil || i >= len(c.current.Path) || c.current.Path[i] != next.Path[i] {
			if err := w.SetActiveIndex(next.Path[i]); err != nil {
				return &DesyncError{Column: i, Cause: err}
			}
		}
		shown[i] = level
	}
	c.shown = shown
	return nil
}
