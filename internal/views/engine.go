package views

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"tasktrack/internal/cache"
	"tasktrack/internal/model"
)

// Source is the task collection an Engine derives from. Revision must change
// whenever Tasks would return a different collection.
type Source interface {
	Tasks() []model.Task
	Revision() uint64
}

type memoKey struct {
	revision uint64
	params   Params
}

// Engine memoizes Derive on the source revision and the view parameters.
type Engine struct {
	src  Source
	coll *collate.Collator
	memo cache.Memo[memoKey, []model.Task]
}

// NewEngine creates an Engine over src collating text for locale. An empty or
// unparseable locale falls back to the root collation order.
func NewEngine(src Source, locale string) *Engine {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Und
	}
	return &Engine{src: src, coll: collate.New(tag)}
}

// Displayed returns the derived sequence for p. The result is shared between
// calls with equal inputs and must not be modified.
func (e *Engine) Displayed(p Params) []model.Task {
	key := memoKey{revision: e.src.Revision(), params: p}
	return e.memo.Get(key, func() []model.Task {
		return Derive(e.src.Tasks(), p, e.coll)
	})
}

// Stats returns the memo hit and miss counters.
func (e *Engine) Stats() cache.Stats {
	return e.memo.Stats()
}
