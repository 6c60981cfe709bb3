// Package tui provides a terminal user interface for task management.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tasktrack/internal/app"
	"tasktrack/internal/model"
	"tasktrack/internal/quickadd"
)

// Mode indicates the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdd
	ModeEdit
	ModeAddSubtask
	ModeFilter
	ModeHelp
	ModeConfirmDelete
)

// Model represents the TUI state
type Model struct {
	state *app.State
	now   func() time.Time

	// Selection
	cursor int

	// Mode and input
	mode      Mode
	textInput textinput.Model
	status    string

	// UI dimensions
	width  int
	height int

	styles styles
}

// styles holds the lipgloss styles of one theme
type styles struct {
	pane      lipgloss.Style
	selected  lipgloss.Style
	completed lipgloss.Style
	subtask   lipgloss.Style
	meta      lipgloss.Style
	high      lipgloss.Style
	help      lipgloss.Style
	dialog    lipgloss.Style
	statusBar lipgloss.Style
}

func themeStyles(theme model.Theme) styles {
	fg, dim, accent, bar := lipgloss.Color("235"), lipgloss.Color("245"), lipgloss.Color("161"), lipgloss.Color("254")
	if theme == model.ThemeDark {
		fg, dim, accent, bar = lipgloss.Color("252"), lipgloss.Color("240"), lipgloss.Color("212"), lipgloss.Color("236")
	}
	return styles{
		pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(dim).
			Foreground(fg).
			Padding(0, 1),
		selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		completed: lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(dim),
		subtask: lipgloss.NewStyle().
			Foreground(dim),
		meta: lipgloss.NewStyle().
			Foreground(dim),
		high: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
		help: lipgloss.NewStyle().
			Foreground(dim),
		dialog: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2),
		statusBar: lipgloss.NewStyle().
			Background(bar).
			Foreground(fg).
			Padding(0, 1),
	}
}

// New creates a new TUI model over state
func New(state *app.State) *Model {
	ti := textinput.New()
	ti.Placeholder = "Enter text..."
	ti.CharLimit = 256

	return &Model{
		state:     state,
		now:       time.Now,
		textInput: ti,
		mode:      ModeNormal,
		styles:    themeStyles(state.Settings().Theme),
	}
}

// ReloadMsg tells the model the store was changed by another process.
type ReloadMsg struct{}

// NewProgram builds the interactive program on the alternate screen. Send it
// a ReloadMsg to re-read the store.
func NewProgram(state *app.State, in io.Reader, out io.Writer) *tea.Program {
	return tea.NewProgram(New(state), tea.WithAltScreen(), tea.WithInput(in), tea.WithOutput(out))
}

// Init initializes the TUI
func (m *Model) Init() tea.Cmd {
	return nil
}

// selected returns the task under the cursor
func (m *Model) selected() (model.Task, bool) {
	tasks := m.state.DisplayedTasks()
	if m.cursor < 0 || m.cursor >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[m.cursor], true
}

// clampCursor keeps the cursor inside the displayed sequence
func (m *Model) clampCursor() {
	n := len(m.state.DisplayedTasks())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// follow moves the cursor onto the task with id, if displayed
func (m *Model) follow(id string) {
	for i, t := range m.state.DisplayedTasks() {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
	m.clampCursor()
}

func (m *Model) startInput(mode Mode, placeholder, value string) (tea.Model, tea.Cmd) {
	m.mode = mode
	m.textInput.Reset()
	m.textInput.Placeholder = placeholder
	m.textInput.SetValue(value)
	m.textInput.Focus()
	return m, textinput.Blink
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ReloadMsg:
		selected, ok := m.selected()
		m.state.Reload()
		m.styles = themeStyles(m.state.Settings().Theme)
		if ok {
			m.follow(selected.ID)
		} else {
			m.clampCursor()
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeAdd, ModeEdit, ModeAddSubtask, ModeFilter:
			return m.handleInputMode(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		case ModeConfirmDelete:
			return m.handleConfirmDeleteMode(msg)
		}
		return m.handleNormalMode(msg)
	}

	return m, nil
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.state.DisplayedTasks())-1 {
			m.cursor++
		}

	case "a":
		return m.startInput(ModeAdd, "New task  !high @tomorrow #tag +category", "")

	case "e":
		if task, ok := m.selected(); ok {
			return m.startInput(ModeEdit, "Task text", quickadd.Format(task))
		}

	case "n":
		if _, ok := m.selected(); ok {
			return m.startInput(ModeAddSubtask, "Subtask text", "")
		}

	case " ", "c":
		if task, ok := m.selected(); ok {
			m.state.ToggleComplete(task.ID)
			m.follow(task.ID)
		}

	case "x":
		m.toggleFirstOpenSubtask()

	case "d":
		if _, ok := m.selected(); ok {
			m.mode = ModeConfirmDelete
		}

	case "/":
		return m.startInput(ModeFilter, "Search...", m.state.Params().Query)

	case "s":
		m.state.SetSortBy(m.state.Params().SortBy.Next())
		m.clampCursor()

	case "r":
		m.state.SetSortAscending(!m.state.Params().Ascending)

	case "f":
		m.state.SetFocusMode(!m.state.Settings().FocusMode)
		m.clampCursor()

	case "t":
		m.styles = themeStyles(m.state.ToggleTheme())

	case "K", "shift+up":
		m.move(-1)

	case "J", "shift+down":
		m.move(1)

	case "?":
		m.mode = ModeHelp
	}

	return m, nil
}

// move drags the selected task one position up or down
func (m *Model) move(delta int) {
	task, ok := m.selected()
	if !ok {
		return
	}
	if m.state.ReorderTasks(m.cursor, m.cursor+delta) {
		m.follow(task.ID)
	}
}

// toggleFirstOpenSubtask completes the selected task's next open subtask,
// or reopens all of them once every subtask is done.
func (m *Model) toggleFirstOpenSubtask() {
	task, ok := m.selected()
	if !ok || len(task.Subtasks) == 0 {
		return
	}
	for _, s := range task.Subtasks {
		if !s.Completed {
			m.state.ToggleSubtask(task.ID, s.ID)
			return
		}
	}
	for _, s := range task.Subtasks {
		m.state.ToggleSubtask(task.ID, s.ID)
	}
}

func (m *Model) handleInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.Type {
	case tea.KeyEnter:
		m.submit(m.textInput.Value())
		m.mode = ModeNormal
		return m, nil

	case tea.KeyEsc:
		if m.mode == ModeFilter {
			m.state.SetSearchQuery("")
			m.clampCursor()
		}
		m.mode = ModeNormal
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	if m.mode == ModeFilter {
		// search updates live
		m.state.SetSearchQuery(m.textInput.Value())
		m.clampCursor()
	}
	return m, cmd
}

// submit applies the text entered in the current input mode
func (m *Model) submit(value string) {
	switch m.mode {
	case ModeAdd:
		r := quickadd.Parse(value, m.now())
		task, err := m.state.AddTask(app.Draft{
			Text:     r.Text,
			Category: r.Category,
			Priority: r.Priority,
			DueDate:  r.DueDate,
			Tags:     r.Tags,
		})
		if err != nil {
			m.status = err.Error()
			return
		}
		m.follow(task.ID)

	case ModeEdit:
		task, ok := m.selected()
		if !ok {
			return
		}
		r := quickadd.Parse(value, m.now())
		task.Text = r.Text
		// tags and categories with spaces are not in the shorthand; keep them
		if r.Category != "" || quickadd.Inline(task.Category) {
			task.Category = r.Category
		}
		task.Priority = r.Priority
		tags := r.Tags
		for _, tag := range task.Tags {
			if !quickadd.Inline(tag) {
				tags = append(tags, tag)
			}
		}
		task.Tags = tags
		task.DueDate = nil
		if r.DueDate != nil {
			task.DueDate = model.Ptr(*r.DueDate)
		}
		if _, err := m.state.EditTask(task); err != nil {
			m.status = err.Error()
			return
		}
		m.follow(task.ID)

	case ModeAddSubtask:
		task, ok := m.selected()
		if !ok {
			return
		}
		if _, _, err := m.state.AddSubtask(task.ID, value); err != nil {
			m.status = err.Error()
		}

	case ModeFilter:
		m.state.SetSearchQuery(value)
		m.clampCursor()
	}
}

func (m *Model) handleConfirmDeleteMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if task, ok := m.selected(); ok {
			m.state.DeleteTask(task.ID)
			m.clampCursor()
		}
		m.mode = ModeNormal
	case "n", "N", "esc":
		m.mode = ModeNormal
	}
	return m, nil
}

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 80
		m.height = 24
	}

	switch m.mode {
	case ModeAdd:
		return m.renderInputDialog("Add New Task", "Enter: confirm  Esc: cancel")
	case ModeEdit:
		title := "Edit Task"
		if task, ok := m.selected(); ok {
			title = "Edit: " + task.Text
		}
		return m.renderInputDialog(title, "Enter: confirm  Esc: cancel")
	case ModeAddSubtask:
		return m.renderInputDialog("Add Subtask", "Enter: confirm  Esc: cancel")
	case ModeFilter:
		return m.renderInputDialog("Search Tasks", "Enter: keep  Esc: clear")
	case ModeHelp:
		return m.centerDialog(m.styles.dialog.Render(helpText))
	case ModeConfirmDelete:
		return m.centerDialog(m.styles.dialog.Render(
			"Delete selected task?\n\n" + m.styles.help.Render("y: yes  n: no"),
		))
	}

	content := m.renderTaskPane(m.width - 6)
	pane := m.styles.pane.Width(m.width - 2).Height(m.height - 4).Render(content)
	return pane + "\n" + m.renderStatusBar()
}

func (m *Model) renderTaskPane(width int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Tasks  %d/%d done\n", m.state.CompletedCount(), m.state.TotalCount()))
	b.WriteString(strings.Repeat("─", max(width, 0)))
	b.WriteString("\n")

	tasks := m.state.DisplayedTasks()
	if len(tasks) == 0 {
		b.WriteString("No tasks\n")
		return b.String()
	}

	for i, task := range tasks {
		m.renderTask(&b, task, i == m.cursor)
	}
	return b.String()
}

func (m *Model) renderTask(b *strings.Builder, task model.Task, selected bool) {
	cursor := " "
	if selected {
		cursor = ">"
	}

	status := "[ ]"
	if task.Completed {
		status = "[✓]"
	}

	text := task.Text
	switch {
	case task.Completed:
		text = m.styles.completed.Render(text)
	case selected:
		text = m.styles.selected.Render(text)
	}

	var meta []string
	if task.Priority == model.PriorityHigh {
		meta = append(meta, m.styles.high.Render("!high"))
	} else if task.Priority == model.PriorityLow {
		meta = append(meta, "!low")
	}
	if task.DueDate != nil {
		meta = append(meta, "@"+task.DueDate.Time().Format(model.DateFormat))
	}
	for _, tag := range task.Tags {
		meta = append(meta, "#"+tag)
	}
	if task.Category != "" {
		meta = append(meta, "+"+task.Category)
	}
	if len(task.Subtasks) > 0 {
		meta = append(meta, fmt.Sprintf("(%d/%d)", task.CompletedSubtasks(), len(task.Subtasks)))
	}

	line := cursor + " " + status + " " + text
	if len(meta) > 0 {
		line += " " + m.styles.meta.Render(strings.Join(meta, " "))
	}
	b.WriteString(line + "\n")

	for _, s := range task.Subtasks {
		mark := "[ ]"
		if s.Completed {
			mark = "[✓]"
		}
		b.WriteString("    └─" + m.styles.subtask.Render(mark+" "+s.Text) + "\n")
	}
}

func (m *Model) renderStatusBar() string {
	p := m.state.Params()
	dir := "↑"
	if !p.Ascending {
		dir = "↓"
	}
	left := fmt.Sprintf("sort: %s %s", p.SortBy, dir)
	if p.FocusMode {
		left += "  focus"
	}
	if p.Query != "" {
		left += "  search: " + p.Query
	}
	if m.status != "" {
		left += "  " + m.status
	}

	right := "q:quit  ?:help"
	padding := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)

	return m.styles.statusBar.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *Model) renderInputDialog(title, help string) string {
	return m.centerDialog(m.styles.dialog.Render(
		title + "\n\n" +
			m.textInput.View() + "\n\n" +
			m.styles.help.Render(help),
	))
}

const helpText = `Help - Key Bindings

Navigation:
  j/↓    Move down
  k/↑    Move up
  J/K    Move selected task down/up

Actions:
  a      Add new task (!high @date #tag +category)
  e      Edit selected task
  space  Toggle task completion
  n      Add subtask
  x      Complete next subtask
  d      Delete task (with confirm)

View:
  /      Search tasks
  s      Cycle sort mode
  r      Reverse sort direction
  f      Toggle focus mode
  t      Toggle theme

General:
  ?      Show this help
  q      Quit

Press any key to close`

func (m *Model) centerDialog(dialog string) string {
	lines := strings.Split(dialog, "\n")
	dialogWidth := 0
	for _, line := range lines {
		dialogWidth = max(dialogWidth, lipgloss.Width(line))
	}

	topPad := max((m.height-len(lines))/2, 0)
	leftPad := max((m.width-dialogWidth)/2, 0)

	var b strings.Builder
	b.WriteString(strings.Repeat("\n", topPad))
	for _, line := range lines {
		b.WriteString(strings.Repeat(" ", leftPad))
		b.WriteString(line)
		b.WriteString("\n")
	}

	return b.String()
}
