// Package app holds the explicitly owned application state: the task
// repository, persisted settings, transient view parameters and the memoized
// view engine. Presentation layers drive the application only through State.
package app

import (
	"fmt"
	"io"
	"time"

	"tasktrack/internal/codec"
	"tasktrack/internal/model"
	"tasktrack/internal/reorder"
	"tasktrack/internal/repository"
	"tasktrack/internal/storage"
	"tasktrack/internal/utils"
	"tasktrack/internal/views"
)

// Options configures a State.
type Options struct {
	// Locale selects the collation used by the alphabetical sort.
	Locale string
	// Params replaces the initial view parameters, including the focus filter
	// otherwise taken from the stored settings. Nil uses views.DefaultParams.
	Params *views.Params
	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
	// NewID overrides task and subtask id generation; nil uses model.NewID.
	NewID func() string
	Logger *utils.Logger
}

// State is the application state shared by every command.
type State struct {
	store    *storage.Adapter
	repo     *repository.Repository
	engine   *views.Engine
	settings model.AppSettings
	params   views.Params
	now      func() time.Time
	log      *utils.Logger
}

// Draft is the user-supplied content of a new task.
type Draft struct {
	Text       string
	Category   string
	Priority   model.Priority
	DueDate    *time.Time
	Tags       []string
	Subtasks   []string
	Recurrence *model.Recurrence
}

// New creates a State persisting through store and loads the stored tasks
// and settings.
func New(store *storage.Adapter, opts Options) *State {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = utils.GetLogger()
	}

	repoOpts := []repository.Option{repository.WithClock(opts.Now)}
	if opts.NewID != nil {
		repoOpts = append(repoOpts, repository.WithIDGenerator(opts.NewID))
	}
	repo := repository.New(store, repoOpts...)

	s := &State{
		store:  store,
		repo:   repo,
		engine: views.NewEngine(repo, opts.Locale),
		params: views.DefaultParams(),
		now:    opts.Now,
		log:    opts.Logger,
	}
	s.load()
	if opts.Params != nil {
		s.params = *opts.Params
	}
	return s
}

// Reload re-reads tasks and settings from the store, picking up writes made
// by another process. Search and sort parameters are kept.
func (s *State) Reload() {
	s.load()
}

// load reads tasks and settings, each falling back to its default.
func (s *State) load() {
	s.repo.Load()

	def := model.DefaultSettings()
	theme := storage.Load(s.store, storage.KeyTheme, def.Theme)
	if _, err := model.ParseTheme(string(theme)); err != nil {
		s.log.Warn("ignoring stored theme %q", theme)
		theme = def.Theme
	}
	s.settings = model.AppSettings{
		Theme:     theme,
		FocusMode: storage.Load(s.store, storage.KeyFocusMode, def.FocusMode),
	}
	s.params.FocusMode = s.settings.FocusMode
	s.log.Debug("loaded %d tasks", s.repo.Len())
}

// =============================================================================
// Task commands
// =============================================================================

// AddTask creates a task from d. Empty text is rejected with model.ErrEmptyText.
func (s *State) AddTask(d Draft) (model.Task, error) {
	task := model.Task{
		Text:       d.Text,
		Category:   d.Category,
		Priority:   d.Priority,
		Tags:       d.Tags,
		Recurrence: d.Recurrence,
	}
	if d.DueDate != nil {
		task.DueDate = model.Ptr(*d.DueDate)
	}
	for _, text := range d.Subtasks {
		task.Subtasks = append(task.Subtasks, model.Subtask{Text: text})
	}
	if d.Recurrence != nil {
		if err := d.Recurrence.Validate(); err != nil {
			return model.Task{}, err
		}
	}

	added, err := s.repo.Add(task)
	if err != nil {
		return model.Task{}, err
	}
	s.log.Debug("added task %s", added.ID)
	return added, nil
}

// ToggleComplete flips the completed flag of the task with id.
func (s *State) ToggleComplete(id string) bool {
	return s.repo.ToggleComplete(id)
}

// DeleteTask removes the task with id.
func (s *State) DeleteTask(id string) bool {
	return s.repo.Delete(id)
}

// EditTask replaces the task sharing updated's id.
func (s *State) EditTask(updated model.Task) (bool, error) {
	if updated.Recurrence != nil {
		if err := updated.Recurrence.Validate(); err != nil {
			return false, err
		}
	}
	return s.repo.Edit(updated)
}

// AddSubtask appends a subtask to the task with taskID.
func (s *State) AddSubtask(taskID, text string) (model.Subtask, bool, error) {
	return s.repo.AddSubtask(taskID, text)
}

// ToggleSubtask flips one subtask's completed flag.
func (s *State) ToggleSubtask(taskID, subtaskID string) bool {
	return s.repo.ToggleSubtask(taskID, subtaskID)
}

// DeleteSubtask removes one subtask.
func (s *State) DeleteSubtask(taskID, subtaskID string) bool {
	return s.repo.DeleteSubtask(taskID, subtaskID)
}

// ReorderTasks moves the task displayed at from to position to, persists the
// resulting custom order and switches the sort mode to custom. Reports false
// for a no-op gesture.
func (s *State) ReorderTasks(from, to int) bool {
	ordered, ok := reorder.Reconcile(s.DisplayedTasks(), from, to)
	if !ok {
		return false
	}
	s.repo.Reorder(ordered)
	s.params.SortBy = views.SortCustom
	s.params.Ascending = true
	return true
}

// ReorderByID is ReorderTasks addressed by the dragged task's id and the id
// of the task it was dropped over.
func (s *State) ReorderByID(activeID, overID string) bool {
	from, to, ok := reorder.Resolve(s.DisplayedTasks(), activeID, overID)
	if !ok {
		return false
	}
	return s.ReorderTasks(from, to)
}

// =============================================================================
// View parameters and settings
// =============================================================================

// SetSearchQuery sets the search filter.
func (s *State) SetSearchQuery(q string) {
	s.params.Query = q
}

// SetSortBy sets the sort mode.
func (s *State) SetSortBy(key views.SortKey) {
	s.params.SortBy = key
}

// SetSortAscending selects the natural (true) or reversed sort direction.
func (s *State) SetSortAscending(asc bool) {
	s.params.Ascending = asc
}

// SetParams replaces the transient view parameters for one derivation. The
// persisted focus setting is left untouched.
func (s *State) SetParams(p views.Params) {
	s.params = p
}

// SetFocusMode toggles hiding of completed tasks and persists the choice.
func (s *State) SetFocusMode(on bool) {
	s.settings.FocusMode = on
	s.params.FocusMode = on
	s.store.Save(storage.KeyFocusMode, on)
}

// SetTheme sets and persists the display theme.
func (s *State) SetTheme(theme model.Theme) {
	s.settings.Theme = theme
	s.store.Save(storage.KeyTheme, theme)
}

// ToggleTheme switches between light and dark.
func (s *State) ToggleTheme() model.Theme {
	s.SetTheme(s.settings.Theme.Toggle())
	return s.settings.Theme
}

// ApplyView replaces the view parameters with a saved preset's.
func (s *State) ApplyView(v *views.View) {
	p := v.Apply(s.params)
	s.params = p
	if p.FocusMode != s.settings.FocusMode {
		s.SetFocusMode(p.FocusMode)
	}
}

// =============================================================================
// Export / import
// =============================================================================

// ExportJSON writes the full backup of tasks and settings.
func (s *State) ExportJSON(w io.Writer) error {
	return codec.ExportJSON(w, s.repo.Tasks(), s.settings, s.now())
}

// ExportCSV writes every task as a CSV row in insertion order.
func (s *State) ExportCSV(w io.Writer) error {
	return codec.ExportCSV(w, s.repo.Tasks())
}

// ImportJSON replaces the whole collection with the backup read from r, and
// the settings when the backup carries them. A rejected file leaves the state
// untouched. Returns the number of imported tasks.
func (s *State) ImportJSON(r io.Reader) (int, error) {
	tasks, settings, err := codec.ImportJSON(r, s.now())
	if err != nil {
		return 0, fmt.Errorf("import failed: %w", err)
	}

	s.repo.Replace(tasks)
	if settings != nil {
		s.SetTheme(settings.Theme)
		s.SetFocusMode(settings.FocusMode)
	}
	s.log.Info("imported %d tasks", len(tasks))
	return len(tasks), nil
}

// =============================================================================
// Read-only accessors
// =============================================================================

// DisplayedTasks returns the filtered and sorted sequence for the current
// parameters. The slice is shared and must not be modified.
func (s *State) DisplayedTasks() []model.Task {
	return s.engine.Displayed(s.params)
}

// Tasks returns a snapshot of every task in insertion order.
func (s *State) Tasks() []model.Task {
	return s.repo.Tasks()
}

// Get returns the task with id.
func (s *State) Get(id string) (model.Task, bool) {
	return s.repo.Get(id)
}

// TotalCount returns the number of tasks.
func (s *State) TotalCount() int {
	return s.repo.Len()
}

// CompletedCount returns the number of completed tasks.
func (s *State) CompletedCount() int {
	return s.repo.CompletedCount()
}

// Settings returns the persisted settings.
func (s *State) Settings() model.AppSettings {
	return s.settings
}

// Params returns the current view parameters.
func (s *State) Params() views.Params {
	return s.params
}
