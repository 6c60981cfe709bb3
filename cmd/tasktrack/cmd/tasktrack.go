package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tasktrack/backend"
	"tasktrack/backend/file"
	"tasktrack/backend/memory"
	"tasktrack/backend/sqlite"
	"tasktrack/internal/app"
	"tasktrack/internal/codec"
	"tasktrack/internal/config"
	"tasktrack/internal/model"
	"tasktrack/internal/quickadd"
	"tasktrack/internal/shutdown"
	"tasktrack/internal/storage"
	"tasktrack/internal/tui"
	"tasktrack/internal/utils"
	"tasktrack/internal/views"
	"tasktrack/internal/watcher"
)

// Version is set at build time
var Version = "dev"

// Config holds process-level overrides, mostly for tests
type Config struct {
	NoPrompt   bool
	ConfigPath string    // Path to config file
	StoreType  string    // Overrides store.type
	StorePath  string    // Overrides store.path
	ViewsPath  string    // Overrides views_dir
	Stdin      io.Reader // Source of confirmation answers; nil uses os.Stdin
	Now        func() time.Time
	NewID      func() string
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	rootCmd := NewTaskTrack(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		if containsJSONFlag(args) {
			outputErrorJSON(err, stdout)
		} else {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

// containsJSONFlag checks if args contain --json flag
func containsJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

// session is one opened application state plus the resources it holds
type session struct {
	state  *app.State
	cfg    *config.Config
	log    *utils.Logger
	mgr    *shutdown.Manager
	now    func() time.Time
	stdout io.Writer
}

// close runs the registered cleanups: watcher, store, then logger
func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.mgr.Wait(ctx); err != nil {
		s.log.Warn("shutdown: %v", err)
	}
}

// cli carries what every command needs to open a session
type cli struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *Config
}

// open loads configuration, applies global flags and opens the store
func (c *cli) open(cmd *cobra.Command) (*session, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = c.cfg.ConfigPath
	}
	storeType, _ := cmd.Flags().GetString("store")
	if storeType == "" {
		storeType = c.cfg.StoreType
	}
	storePath, _ := cmd.Flags().GetString("store-path")
	if storePath == "" {
		storePath = c.cfg.StorePath
	}
	verbose, _ := cmd.Flags().GetBool("verbose")

	appCfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	appCfg.ApplyFlags(storeType, storePath, verbose)
	if c.cfg.ViewsPath != "" {
		appCfg.ViewsDir = c.cfg.ViewsPath
	}
	if err := appCfg.Validate(); err != nil {
		return nil, err
	}

	log := utils.NewLogger(c.stderr)
	log.SetVerbose(appCfg.Logging.Verbose)

	store, err := openStore(appCfg)
	if err != nil {
		return nil, utils.WrapWithSuggestion(
			fmt.Errorf("cannot open %s store: %w", appCfg.Store.Type, err),
			"Check store.path in the config file or pass --store-path",
		)
	}
	log.Debug("opened %s store at %s", appCfg.Store.Type, appCfg.Store.Path)

	mgr := shutdown.NewManager(log)
	mgr.RegisterCleanup("logger", func(context.Context) error {
		log.Sync()
		return nil
	})
	mgr.RegisterCleanup("store", func(context.Context) error {
		return store.Close()
	})

	now := c.cfg.Now
	if now == nil {
		now = time.Now
	}
	state := app.New(storage.New(store, log), app.Options{
		Locale: appCfg.Locale,
		Now:    now,
		NewID:  c.cfg.NewID,
		Logger: log,
	})
	if key, err := views.ParseSortKey(appCfg.DefaultSort); err == nil {
		state.SetSortBy(key)
	}

	return &session{state: state, cfg: appCfg, log: log, mgr: mgr, now: now, stdout: c.stdout}, nil
}

// openStore creates the byte store selected by store.type
func openStore(cfg *config.Config) (backend.Store, error) {
	switch cfg.Store.Type {
	case config.StoreMemory:
		return memory.New(), nil
	case config.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
			return nil, fmt.Errorf("could not create data directory: %w", err)
		}
		return sqlite.New(cfg.Store.Path)
	default:
		return file.New(file.Config{Dir: cfg.Store.Path})
	}
}

// run opens a session, hands it to fn and closes it afterwards
func (c *cli) run(fn func(cmd *cobra.Command, args []string, s *session) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := c.open(cmd)
		if err != nil {
			return err
		}
		defer s.close()
		return fn(cmd, args, s)
	}
}

// confirm asks a yes/no question unless prompts are disabled
func (c *cli) confirm(cmd *cobra.Command, prompt string) bool {
	noPrompt, _ := cmd.Flags().GetBool("no-prompt")
	if noPrompt || c.cfg.NoPrompt {
		return true
	}
	in := c.cfg.Stdin
	if in == nil {
		in = os.Stdin
	}
	return utils.PromptYesNoWithReader(prompt, in, c.stdout)
}

// NewTaskTrack creates the root command with injectable IO
func NewTaskTrack(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}
	c := &cli{stdout: stdout, stderr: stderr, cfg: cfg}

	cmd := &cobra.Command{
		Use:     "tasktrack",
		Short:   "A personal task tracker",
		Long:    "tasktrack keeps a local list of tasks with priorities, due dates, tags and subtasks.\nWithout a subcommand it opens the interactive interface when attached to a terminal.",
		Version: Version,
		Args:    cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			if isTerminal(stdout) {
				return runTUI(s, os.Stdin)
			}
			return doList(s, listOptions{}, false)
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file")
	cmd.PersistentFlags().String("store", "", "Store type (file, sqlite, memory)")
	cmd.PersistentFlags().String("store-path", "", "Store location (directory for file, database for sqlite)")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	cmd.PersistentFlags().BoolP("no-prompt", "y", false, "Disable interactive prompts")

	cmd.AddCommand(
		newAddCmd(c),
		newListCmd(c),
		newDoneCmd(c),
		newEditCmd(c),
		newDeleteCmd(c),
		newMoveCmd(c),
		newSubtaskCmd(c),
		newExportCmd(c),
		newImportCmd(c),
		newSettingsCmd(c),
		newViewsCmd(c),
		newTUICmd(c),
		newConfigCmd(c),
	)

	return cmd
}

// isTerminal reports whether w is an interactive terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// =============================================================================
// Task lookup
// =============================================================================

// resolveTask finds a task by exact id or unique id prefix
func resolveTask(state *app.State, ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Task{}, utils.ErrTaskNotFound(ref)
	}
	if task, ok := state.Get(ref); ok {
		return task, nil
	}

	var matches []model.Task
	for _, t := range state.Tasks() {
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return model.Task{}, utils.ErrTaskNotFound(ref)
	case 1:
		return matches[0], nil
	default:
		return model.Task{}, utils.ErrAmbiguousTask(ref, len(matches))
	}
}

// resolveSubtask finds a subtask of task by exact id, unique id prefix, or
// 1-based position
func resolveSubtask(task model.Task, ref string) (model.Subtask, error) {
	var matches []model.Subtask
	for i, s := range task.Subtasks {
		if s.ID == ref || strconv.Itoa(i+1) == ref {
			return s, nil
		}
		if strings.HasPrefix(s.ID, ref) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return model.Subtask{}, utils.ErrSubtaskNotFound(ref)
	case 1:
		return matches[0], nil
	default:
		return model.Subtask{}, utils.ErrAmbiguousTask(ref, len(matches))
	}
}

// =============================================================================
// add
// =============================================================================

func newAddCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Long: `Add a task. The text may carry inline metadata:
  !low|!medium|!high   priority
  @2026-01-15, @tomorrow, @+3d   due date
  #tag                 tag
  +category            category
Flags override inline metadata.`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			r := quickadd.Parse(strings.Join(args, " "), s.now())
			draft := app.Draft{
				Text:     r.Text,
				Category: r.Category,
				Priority: r.Priority,
				DueDate:  r.DueDate,
				Tags:     r.Tags,
			}

			if cmd.Flags().Changed("priority") {
				v, _ := cmd.Flags().GetString("priority")
				p, err := utils.ValidatePriority(v)
				if err != nil {
					return err
				}
				draft.Priority = p
			}
			if cmd.Flags().Changed("due") {
				v, _ := cmd.Flags().GetString("due")
				due, err := utils.ParseDateFlagAt(v, s.now())
				if err != nil {
					return err
				}
				draft.DueDate = due
			}
			if cmd.Flags().Changed("tag") {
				v, _ := cmd.Flags().GetStringSlice("tag")
				draft.Tags = append(draft.Tags, utils.ParseTags(v)...)
			}
			if cmd.Flags().Changed("category") {
				draft.Category, _ = cmd.Flags().GetString("category")
			}
			draft.Subtasks, _ = cmd.Flags().GetStringSlice("subtask")

			rec, err := recurrenceFromFlags(cmd)
			if err != nil {
				return err
			}
			draft.Recurrence = rec

			task, err := s.state.AddTask(draft)
			if err != nil {
				return wrapTaskError(err)
			}

			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				return outputActionJSON("add", task, s.stdout)
			}
			_, _ = fmt.Fprintf(s.stdout, "Created task: %s (ID: %s)\n", task.Text, shortID(task.ID))
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addTaskFlags(cmd)
	cmd.Flags().StringSlice("subtask", nil, "Subtask text (repeatable)")
	cmd.Flags().String("repeat", "", "Recurrence pattern (daily, weekly, monthly, yearly)")
	cmd.Flags().Int("every", 1, "Recurrence interval")
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

// addTaskFlags registers the metadata flags shared by add and edit
func addTaskFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("priority", "p", "", "Priority (low, medium, high)")
	cmd.Flags().StringP("due", "d", "", "Due date (YYYY-MM-DD, today, tomorrow, +3d, +2w, +1m)")
	cmd.Flags().StringSliceP("tag", "t", nil, "Tag (repeatable or comma-separated)")
	cmd.Flags().StringP("category", "c", "", "Category")
}

// recurrenceFromFlags builds the recurrence rule named by --repeat
func recurrenceFromFlags(cmd *cobra.Command) (*model.Recurrence, error) {
	pattern, _ := cmd.Flags().GetString("repeat")
	if pattern == "" {
		return nil, nil
	}
	p, err := model.ParseRecurrencePattern(pattern)
	if err != nil {
		return nil, utils.WrapWithSuggestion(err, "Use one of: daily, weekly, monthly, yearly")
	}
	every, _ := cmd.Flags().GetInt("every")
	return &model.Recurrence{Pattern: p, Interval: every}, nil
}

// wrapTaskError attaches a suggestion to validation failures from the core
func wrapTaskError(err error) error {
	if errors.Is(err, model.ErrEmptyText) {
		return utils.ErrEmptyText()
	}
	return err
}

// shortID returns the prefix shown in listings
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// =============================================================================
// list
// =============================================================================

type listOptions struct {
	viewName string
	query    *string
	sortBy   *views.SortKey
	desc     bool
	focus    *bool
}

func newListCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			var opts listOptions
			opts.viewName, _ = cmd.Flags().GetString("view")
			if cmd.Flags().Changed("search") {
				q, _ := cmd.Flags().GetString("search")
				opts.query = &q
			}
			if cmd.Flags().Changed("sort") {
				v, _ := cmd.Flags().GetString("sort")
				key, err := views.ParseSortKey(v)
				if err != nil {
					return err
				}
				opts.sortBy = &key
			}
			opts.desc, _ = cmd.Flags().GetBool("desc")
			if cmd.Flags().Changed("focus") {
				f, _ := cmd.Flags().GetBool("focus")
				opts.focus = &f
			}
			jsonOutput, _ := cmd.Flags().GetBool("json")
			return doList(s, opts, jsonOutput)
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addViewParamFlags(cmd)
	cmd.Flags().StringP("view", "v", "", "View preset to use (default, due, focus, or a saved view)")
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

// addViewParamFlags registers the flags that shape the displayed sequence
func addViewParamFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("search", "s", "", "Only tasks whose text, category or tags contain this")
	cmd.Flags().String("sort", "", "Sort mode (createdAt, dueDate, priority, alphabetical, custom)")
	cmd.Flags().Bool("desc", false, "Reverse the sort direction")
	cmd.Flags().Bool("focus", false, "Hide completed tasks")
}

// applyListOptions lays the view preset and flags over the session's
// parameters and returns the preset used for rendering
func applyListOptions(s *session, opts listOptions) (*views.View, error) {
	loader := views.NewLoader(s.cfg.ViewsDir)
	name := opts.viewName
	if name == "" {
		name = "default"
	}
	view, err := loader.LoadView(name)
	if err != nil {
		return nil, err
	}

	p := s.state.Params()
	if opts.viewName != "" {
		p = view.Apply(p)
	}
	if opts.query != nil {
		p.Query = *opts.query
	}
	if opts.sortBy != nil {
		p.SortBy = *opts.sortBy
	}
	if opts.desc {
		p.Ascending = !p.Ascending
	}
	if opts.focus != nil {
		p.FocusMode = *opts.focus
	}
	s.state.SetParams(p)
	s.log.Debug("list params: %+v", p)
	return view, nil
}

// doList prints the displayed task sequence
func doList(s *session, opts listOptions, jsonOutput bool) error {
	view, err := applyListOptions(s, opts)
	if err != nil {
		return err
	}
	tasks := s.state.DisplayedTasks()

	if jsonOutput {
		if tasks == nil {
			tasks = []model.Task{}
		}
		enc := json.NewEncoder(s.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	}

	if len(tasks) == 0 {
		if s.state.TotalCount() == 0 {
			_, _ = fmt.Fprintln(s.stdout, "No tasks. Add one with: tasktrack add \"Buy milk\"")
		} else {
			_, _ = fmt.Fprintln(s.stdout, "No tasks match.")
		}
		return nil
	}

	views.RenderTasksWithView(tasks, view, s.stdout)
	_, _ = fmt.Fprintf(s.stdout, "\n%d/%d completed\n", s.state.CompletedCount(), s.state.TotalCount())
	return nil
}

// =============================================================================
// done / edit / delete
// =============================================================================

func newDoneCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task's completion",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			task, err := resolveTask(s.state, args[0])
			if err != nil {
				return err
			}
			s.state.ToggleComplete(task.ID)

			if task.Completed {
				_, _ = fmt.Fprintf(s.stdout, "Reopened task: %s\n", task.Text)
			} else {
				_, _ = fmt.Fprintf(s.stdout, "Completed task: %s\n", task.Text)
			}
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newEditCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task",
		Long:  "Edit a task's text or metadata. Pass an empty --due or --category to clear it.",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			task, err := resolveTask(s.state, args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("text") {
				task.Text, _ = cmd.Flags().GetString("text")
			}
			if cmd.Flags().Changed("priority") {
				v, _ := cmd.Flags().GetString("priority")
				p, err := utils.ValidatePriority(v)
				if err != nil {
					return err
				}
				task.Priority = p
			}
			if cmd.Flags().Changed("due") {
				v, _ := cmd.Flags().GetString("due")
				due, err := utils.ParseDateFlagAt(v, s.now())
				if err != nil {
					return err
				}
				task.DueDate = nil
				if due != nil {
					task.DueDate = model.Ptr(*due)
				}
			}
			if cmd.Flags().Changed("tag") {
				v, _ := cmd.Flags().GetStringSlice("tag")
				task.Tags = utils.ParseTags(v)
			}
			if cmd.Flags().Changed("category") {
				task.Category, _ = cmd.Flags().GetString("category")
			}
			if cmd.Flags().Changed("repeat") {
				rec, err := recurrenceFromFlags(cmd)
				if err != nil {
					return err
				}
				task.Recurrence = rec
			}

			if _, err := s.state.EditTask(task); err != nil {
				return wrapTaskError(err)
			}
			updated, _ := s.state.Get(task.ID)

			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				return outputActionJSON("edit", updated, s.stdout)
			}
			_, _ = fmt.Fprintf(s.stdout, "Updated task: %s\n", updated.Text)
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addTaskFlags(cmd)
	cmd.Flags().String("text", "", "New task text")
	cmd.Flags().String("repeat", "", "Recurrence pattern (daily, weekly, monthly, yearly; empty clears)")
	cmd.Flags().Int("every", 1, "Recurrence interval")
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			task, err := resolveTask(s.state, args[0])
			if err != nil {
				return err
			}
			if !c.confirm(cmd, fmt.Sprintf("Delete task '%s'?", task.Text)) {
				_, _ = fmt.Fprintln(s.stdout, "Cancelled")
				return nil
			}
			s.state.DeleteTask(task.ID)
			_, _ = fmt.Fprintf(s.stdout, "Deleted task: %s\n", task.Text)
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// =============================================================================
// move
// =============================================================================

func newMoveCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move a task to another position",
		Long: `Move the task at position <from> to position <to>. Positions are 1-based
and refer to the list as shown by 'tasktrack list' with the same flags.
The resulting manual order is shown by 'tasktrack list --sort custom'.`,
		Args: cobra.ExactArgs(2),
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			var opts listOptions
			if cmd.Flags().Changed("sort") {
				v, _ := cmd.Flags().GetString("sort")
				key, err := views.ParseSortKey(v)
				if err != nil {
					return err
				}
				opts.sortBy = &key
			}
			if cmd.Flags().Changed("search") {
				q, _ := cmd.Flags().GetString("search")
				opts.query = &q
			}
			opts.desc, _ = cmd.Flags().GetBool("desc")
			if cmd.Flags().Changed("focus") {
				f, _ := cmd.Flags().GetBool("focus")
				opts.focus = &f
			}
			if _, err := applyListOptions(s, opts); err != nil {
				return err
			}

			size := len(s.state.DisplayedTasks())
			from, err := parsePosition(args[0], size)
			if err != nil {
				return err
			}
			to, err := parsePosition(args[1], size)
			if err != nil {
				return err
			}

			moved := s.state.DisplayedTasks()[from]
			if !s.state.ReorderTasks(from, to) {
				_, _ = fmt.Fprintln(s.stdout, "Nothing to move")
				return nil
			}
			_, _ = fmt.Fprintf(s.stdout, "Moved task: %s to position %d\n", moved.Text, to+1)
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addViewParamFlags(cmd)
	return cmd
}

// parsePosition converts a 1-based position argument into an index
func parsePosition(arg string, size int) (int, error) {
	pos, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, utils.WrapWithSuggestion(
			fmt.Errorf("invalid position: %s", arg),
			"Positions are whole numbers starting at 1",
		)
	}
	if pos < 1 || pos > size {
		return 0, utils.ErrInvalidPosition(pos, size)
	}
	return pos - 1, nil
}

// =============================================================================
// subtask
// =============================================================================

func newSubtaskCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "subtask",
		Short:         "Manage a task's subtasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <task-id> <text>",
		Short: "Add a subtask",
		Args:  cobra.MinimumNArgs(2),
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			task, err := resolveTask(s.state, args[0])
			if err != nil {
				return err
			}
			sub, _, err := s.state.AddSubtask(task.ID, strings.Join(args[1:], " "))
			if err != nil {
				return wrapTaskError(err)
			}
			_, _ = fmt.Fprintf(s.stdout, "Added subtask: %s (ID: %s)\n", sub.Text, shortID(sub.ID))
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "done <task-id> <subtask>",
		Short: "Toggle a subtask's completion (by id, id prefix, or position)",
		Args:  cobra.ExactArgs(2),
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			task, err := resolveTask(s.state, args[0])
			if err != nil {
				return err
			}
			sub, err := resolveSubtask(task, args[1])
			if err != nil {
				return err
			}
			s.state.ToggleSubtask(task.ID, sub.ID)
			if sub.Completed {
				_, _ = fmt.Fprintf(s.stdout, "Reopened subtask: %s\n", sub.Text)
			} else {
				_, _ = fmt.Fprintf(s.stdout, "Completed subtask: %s\n", sub.Text)
			}
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <task-id> <subtask>",
		Short: "Delete a subtask (by id, id prefix, or position)",
		Args:  cobra.ExactArgs(2),
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			task, err := resolveTask(s.state, args[0])
			if err != nil {
				return err
			}
			sub, err := resolveSubtask(task, args[1])
			if err != nil {
				return err
			}
			s.state.DeleteSubtask(task.ID, sub.ID)
			_, _ = fmt.Fprintf(s.stdout, "Deleted subtask: %s\n", sub.Text)
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return cmd
}

// =============================================================================
// export / import
// =============================================================================

func newExportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tasks as JSON backup or CSV",
		Long: `Export every task. JSON exports carry settings and can be imported again.
Without -o the export is written to stdout. When -o names a directory the
file is named tasks-export-YYYY-MM-DD.<format> inside it.`,
		Args: cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			v, _ := cmd.Flags().GetString("format")
			format, err := codec.ParseFormat(v)
			if err != nil {
				return utils.ErrInvalidOption("format", v, []string{"json", "csv"})
			}

			out, _ := cmd.Flags().GetString("output")
			if out == "" || out == "-" {
				return export(s, format, s.stdout)
			}
			if info, err := os.Stat(out); err == nil && info.IsDir() {
				out = filepath.Join(out, codec.ExportFilename(format, s.now()))
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("cannot create export file: %w", err)
			}
			if err := export(s, format, f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(s.stdout, "Exported %d tasks to %s\n", s.state.TotalCount(), out)
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringP("format", "f", "json", "Export format (json, csv)")
	cmd.Flags().StringP("output", "o", "", "Output file or directory (default stdout)")
	return cmd
}

func export(s *session, format codec.Format, w io.Writer) error {
	if format == codec.FormatCSV {
		return s.state.ExportCSV(w)
	}
	return s.state.ExportJSON(w)
}

func newImportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all tasks with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return utils.ErrInvalidImport(path, err)
			}
			defer func() { _ = f.Close() }()

			if s.state.TotalCount() > 0 &&
				!c.confirm(cmd, fmt.Sprintf("Replace all %d tasks with the contents of %s?", s.state.TotalCount(), path)) {
				_, _ = fmt.Fprintln(s.stdout, "Cancelled")
				return nil
			}

			n, err := s.state.ImportJSON(f)
			if err != nil {
				return utils.ErrInvalidImport(path, err)
			}
			_, _ = fmt.Fprintf(s.stdout, "Imported %d tasks\n", n)
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// =============================================================================
// settings / views / tui / config
// =============================================================================

func newSettingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change persisted settings",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			if cmd.Flags().Changed("theme") {
				v, _ := cmd.Flags().GetString("theme")
				theme, err := model.ParseTheme(v)
				if err != nil {
					return utils.ErrInvalidOption("theme", v, []string{"light", "dark"})
				}
				s.state.SetTheme(theme)
			}
			if cmd.Flags().Changed("focus") {
				on, _ := cmd.Flags().GetBool("focus")
				s.state.SetFocusMode(on)
			}

			settings := s.state.Settings()
			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				jsonBytes, err := json.Marshal(settings)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(s.stdout, string(jsonBytes))
				return nil
			}
			_, _ = fmt.Fprintf(s.stdout, "theme: %s\nfocus: %t\n", settings.Theme, settings.FocusMode)
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().String("theme", "", "Theme (light, dark)")
	cmd.Flags().Bool("focus", false, "Hide completed tasks by default")
	cmd.Flags().Bool("json", false, "Output in JSON format")
	return cmd
}

func newViewsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "views",
		Short:         "Manage saved view presets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available views",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			viewList, err := views.NewLoader(s.cfg.ViewsDir).ListViews()
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(s.stdout, "Available views:")
			for _, v := range viewList {
				viewType := "custom"
				switch {
				case v.BuiltIn:
					viewType = "built-in"
				case v.Overrides:
					viewType = "overrides built-in"
				}
				line := fmt.Sprintf("  - %s (%s)", v.Name, viewType)
				if v.Description != "" {
					line += ": " + v.Description
				}
				_, _ = fmt.Fprintln(s.stdout, line)
			}
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	save := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the given search, sort and focus flags as a view",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			v := &views.View{Name: args[0]}
			v.Description, _ = cmd.Flags().GetString("description")
			v.Search, _ = cmd.Flags().GetString("search")
			if sortBy, _ := cmd.Flags().GetString("sort"); sortBy != "" {
				key, err := views.ParseSortKey(sortBy)
				if err != nil {
					return err
				}
				v.SortBy = key
			}
			if desc, _ := cmd.Flags().GetBool("desc"); desc {
				asc := false
				v.Ascending = &asc
			}
			v.FocusMode, _ = cmd.Flags().GetBool("focus")

			if err := views.NewLoader(s.cfg.ViewsDir).SaveView(v); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(s.stdout, "Saved view: %s\n", strings.ToLower(v.Name))
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addViewParamFlags(save)
	save.Flags().String("description", "", "View description")
	cmd.AddCommand(save)

	return cmd
}

func newTUICmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive interface",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			in := c.cfg.Stdin
			if in == nil {
				in = os.Stdin
			}
			return runTUI(s, in)
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// runTUI runs the interactive interface, reloading it when another process
// writes the store and quitting on SIGTERM or SIGHUP
func runTUI(s *session, in io.Reader) error {
	p := tui.NewProgram(s.state, in, s.stdout)

	if dir, match := watchTarget(s.cfg); dir != "" {
		w, err := watcher.New(watcher.Config{
			Dir:      dir,
			Match:    match,
			Logger:   s.log,
			OnChange: func() { p.Send(tui.ReloadMsg{}) },
		})
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			s.log.Warn("live reload disabled: %v", err)
		} else {
			s.mgr.RegisterCleanup("watcher", func(context.Context) error {
				w.Stop()
				return nil
			})
		}
	}

	stop := s.mgr.NotifyOn(syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	go func() {
		<-s.mgr.Context().Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}

// watchTarget returns the directory holding the store's files and a matcher
// for them; an empty dir means the store cannot change underneath us
func watchTarget(cfg *config.Config) (string, func(string) bool) {
	switch cfg.Store.Type {
	case config.StoreFile:
		return cfg.Store.Path, watcher.StoreFiles
	case config.StoreSQLite:
		return filepath.Dir(cfg.Store.Path), watcher.DatabaseFiles(cfg.Store.Path)
	default:
		return "", nil
	}
}

func newConfigCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, args []string, s *session) error {
			_, _ = fmt.Fprintf(s.stdout, "store.type: %s\nstore.path: %s\nlocale: %s\ndefault_sort: %s\nviews_dir: %s\nlogging.verbose: %t\n",
				s.cfg.Store.Type, s.cfg.Store.Path, s.cfg.Locale, s.cfg.DefaultSort, s.cfg.ViewsDir, s.cfg.Logging.Verbose)
			return nil
		}),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// =============================================================================
// JSON output
// =============================================================================

type actionResponse struct {
	Action string     `json:"action"`
	Task   model.Task `json:"task"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// outputActionJSON outputs the result of a task action in JSON format
func outputActionJSON(action string, task model.Task, stdout io.Writer) error {
	jsonBytes, err := json.Marshal(actionResponse{Action: action, Task: task})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
	return nil
}

// outputErrorJSON outputs error in JSON format
func outputErrorJSON(err error, stdout io.Writer) {
	jsonBytes, _ := json.Marshal(errorResponse{Error: err.Error(), Code: 1})
	_, _ = fmt.Fprintln(stdout, string(jsonBytes))
}
