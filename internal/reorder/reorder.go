// Package reorder turns a drag gesture over the displayed task sequence into
// persisted custom order values.
package reorder

import (
	"slices"

	"tasktrack/internal/model"
)

// Move returns a copy of seq with the element at from relocated to to. Items
// between the two positions shift by one. Out-of-range indices return an
// unmodified copy.
func Move[T any](seq []T, from, to int) []T {
	out := slices.Clone(seq)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) || from == to {
		return out
	}
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}

// Resolve maps the ids of the dragged item and the item it was dropped over
// to positions in displayed.
func Resolve(displayed []model.Task, activeID, overID string) (from, to int, ok bool) {
	from = slices.IndexFunc(displayed, func(t model.Task) bool { return t.ID == activeID })
	to = slices.IndexFunc(displayed, func(t model.Task) bool { return t.ID == overID })
	if from < 0 || to < 0 {
		return 0, 0, false
	}
	return from, to, true
}

// Reconcile moves the task at from to to within displayed and assigns
// order = index to every task of the result. ok is false when the gesture is
// a no-op: equal positions or an endpoint outside the sequence.
func Reconcile(displayed []model.Task, from, to int) ([]model.Task, bool) {
	if from == to || from < 0 || to < 0 || from >= len(displayed) || to >= len(displayed) {
		return nil, false
	}

	moved := Move(displayed, from, to)
	for i := range moved {
		moved[i] = moved[i].Clone()
		moved[i].Order = &i
	}
	return moved, true
}
