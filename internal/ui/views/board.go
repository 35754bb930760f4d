package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/teamboard/internal/app"
	"github.com/tgienger/teamboard/internal/models"
	"github.com/tgienger/teamboard/internal/timetrack"
	"github.com/tgienger/teamboard/internal/ui/keys"
	"github.com/tgienger/teamboard/internal/ui/styles"
	"github.com/tgienger/teamboard/internal/workflow"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

// BackToProjects signals to go back to the project list
type BackToProjects struct{}

type errMsg struct{ err error }

type boardLoadedMsg struct {
	board  workflow.Board
	timer  *models.TimeEntry
	notice string
	// focus selects this task after the reload, when non-zero
	focus int64
}

type detailLoadedMsg struct {
	detail   *app.TaskDetail
	comments []models.Comment
	report   *app.TimeReport
}

type timerTickMsg time.Time

// Edit form fields
const (
	fieldTitle = iota
	fieldDesc
	fieldPriority
	fieldDue
	fieldSave
	fieldCount
)

// BoardView shows one Kanban board: a project's, or every visible task
type BoardView struct {
	svc     *app.Service
	user    string
	project *models.Project
	board   workflow.Board
	timer   *models.TimeEntry
	styles  *styles.Styles
	keys    keys.KeyMap
	now     func() time.Time

	width  int
	height int

	loaded  bool
	col     int
	rows    [3]int
	notice  string
	err     error
	ticking bool

	// Task detail
	viewing        bool
	detail         *app.TaskDetail
	comments       []models.Comment
	report         *app.TimeReport
	commentInput   textarea.Model
	commentFocused bool

	// Task creation/editing
	editing      bool
	editingNew   bool
	editingID    int64
	editTitle    textinput.Model
	editDesc     textarea.Model
	editPriority textinput.Model
	editDue      textinput.Model
	editFocusIdx int

	confirmingDelete bool
	deleteTarget     workflow.Card

	showHelpPopup bool
}

// NewBoardView creates the board for project, or for all of user's tasks
// when project is nil
func NewBoardView(svc *app.Service, user string, project *models.Project) *BoardView {
	editTitle := textinput.New()
	editTitle.Placeholder = "Task title"
	editTitle.CharLimit = 200

	editDesc := textarea.New()
	editDesc.Placeholder = "Description"
	editDesc.CharLimit = 1000
	editDesc.SetWidth(50)
	editDesc.SetHeight(3)
	editDesc.ShowLineNumbers = false

	editPriority := textinput.New()
	editPriority.Placeholder = "low, medium, high, critical"
	editPriority.CharLimit = 8

	editDue := textinput.New()
	editDue.Placeholder = "YYYY-MM-DD (optional)"
	editDue.CharLimit = 16

	commentInput := textarea.New()
	commentInput.Placeholder = "Add a comment..."
	commentInput.CharLimit = 2000
	commentInput.SetWidth(50)
	commentInput.SetHeight(3)
	commentInput.ShowLineNumbers = false

	return &BoardView{
		svc:          svc,
		user:         user,
		project:      project,
		styles:       styles.NewStyles(),
		keys:         keys.DefaultKeyMap(),
		now:          time.Now,
		editTitle:    editTitle,
		editDesc:     editDesc,
		editPriority: editPriority,
		editDue:      editDue,
		commentInput: commentInput,
	}
}

// Init loads the board
func (v *BoardView) Init() tea.Cmd {
	return v.reload("", 0)
}

func (v *BoardView) projectID() *int64 {
	if v.project == nil {
		return nil
	}
	id := v.project.ID
	return &id
}

// reload fetches the board and the running timer
func (v *BoardView) reload(notice string, focus int64) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		board, err := v.svc.GetBoard(ctx, v.user, v.projectID())
		if err != nil {
			return errMsg{err}
		}
		timer, err := v.svc.ActiveTimer(ctx, v.user)
		if err != nil {
			return errMsg{err}
		}
		return boardLoadedMsg{board: board, timer: timer, notice: notice, focus: focus}
	}
}

// act runs fn and reloads the board, or reports fn's error
func (v *BoardView) act(fn func(ctx context.Context) (string, int64, error)) tea.Cmd {
	return func() tea.Msg {
		notice, focus, err := fn(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return v.reload(notice, focus)()
	}
}

func (v *BoardView) column(i int) []workflow.Card {
	return v.board[models.Statuses[i]]
}

// selected returns the card under the cursor
func (v *BoardView) selected() (workflow.Card, bool) {
	cards := v.column(v.col)
	if len(cards) == 0 {
		return workflow.Card{}, false
	}
	return cards[v.rows[v.col]], true
}

func (v *BoardView) focusTask(id int64) {
	for c := range models.Statuses {
		for r, card := range v.column(c) {
			if card.ID == id {
				v.col, v.rows[c] = c, r
				return
			}
		}
	}
}

func (v *BoardView) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return timerTickMsg(t) })
}

// Update handles messages
func (v *BoardView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		inputWidth := clamp(styles.ContentWidth(v.width)-10, 20, 50)
		v.editDesc.SetWidth(inputWidth)
		v.commentInput.SetWidth(inputWidth)
		return v, nil

	case boardLoadedMsg:
		v.board = msg.board
		v.timer = msg.timer
		v.loaded = true
		v.err = nil
		v.notice = msg.notice
		for c := range models.Statuses {
			v.rows[c] = clamp(v.rows[c], 0, max(len(v.column(c))-1, 0))
		}
		if msg.focus != 0 {
			v.focusTask(msg.focus)
		}
		if v.timer != nil && !v.ticking {
			v.ticking = true
			return v, v.tick()
		}
		return v, nil

	case detailLoadedMsg:
		v.viewing = true
		v.detail = msg.detail
		v.comments = msg.comments
		v.report = msg.report
		return v, nil

	case timerTickMsg:
		if v.timer == nil {
			v.ticking = false
			return v, nil
		}
		return v, v.tick()

	case errMsg:
		v.err = msg.err
		v.notice = ""
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		if v.viewing {
			return v.updateViewing(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *BoardView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		return v, func() tea.Msg { return BackToProjects{} }

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.Refresh):
		return v, v.reload("", 0)

	case key.Matches(msg, v.keys.Left):
		v.col = max(v.col-1, 0)
		return v, nil

	case key.Matches(msg, v.keys.Right):
		v.col = min(v.col+1, len(models.Statuses)-1)
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.rows[v.col] > 0 {
			v.rows[v.col]--
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.rows[v.col] < len(v.column(v.col))-1 {
			v.rows[v.col]++
		}
		return v, nil

	case key.Matches(msg, v.keys.StatusPrev):
		return v, v.moveStatus(-1)

	case key.Matches(msg, v.keys.StatusNext):
		return v, v.moveStatus(1)

	case key.Matches(msg, v.keys.MoveUp):
		return v, v.movePosition(-1)

	case key.Matches(msg, v.keys.MoveDown):
		return v, v.movePosition(1)

	case key.Matches(msg, v.keys.Timer):
		return v, v.toggleTimer()

	case key.Matches(msg, v.keys.Enter):
		if card, ok := v.selected(); ok {
			return v, v.loadDetail(card.ID)
		}
		return v, nil

	case key.Matches(msg, v.keys.New):
		v.startNewTask()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Edit):
		if card, ok := v.selected(); ok {
			v.startEditTask(card.Task)
			return v, textinput.Blink
		}
		return v, nil

	case key.Matches(msg, v.keys.Delete):
		if card, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTarget = card
		}
		return v, nil
	}

	return v, nil
}

// moveStatus moves the selected card dir columns to the right
func (v *BoardView) moveStatus(dir int) tea.Cmd {
	card, ok := v.selected()
	if !ok {
		return nil
	}
	target := v.col + dir
	if target < 0 || target >= len(models.Statuses) {
		return nil
	}
	status := models.Statuses[target]
	return v.act(func(ctx context.Context) (string, int64, error) {
		task, err := v.svc.UpdateStatus(ctx, v.user, card.ID, status)
		if err != nil {
			return "", 0, err
		}
		notice := fmt.Sprintf("Moved #%d to %s", task.ID, task.Status)
		if task.Completed {
			notice += " (completed)"
		}
		return notice, task.ID, nil
	})
}

// movePosition swaps the selected card with its neighbour dir rows away
func (v *BoardView) movePosition(dir int) tea.Cmd {
	card, ok := v.selected()
	if !ok {
		return nil
	}
	cards := v.column(v.col)
	n := v.rows[v.col] + dir
	if n < 0 || n >= len(cards) {
		return nil
	}
	other := cards[n]

	cardPos, otherPos := other.Position, card.Position
	if cardPos == otherPos {
		// equal positions are ordered by id, so open a gap instead of swapping
		if dir < 0 {
			otherPos++
		} else {
			cardPos++
		}
	}

	return v.act(func(ctx context.Context) (string, int64, error) {
		if _, err := v.svc.UpdatePosition(ctx, v.user, card.ID, cardPos); err != nil {
			return "", 0, err
		}
		if _, err := v.svc.UpdatePosition(ctx, v.user, other.ID, otherPos); err != nil {
			return "", 0, err
		}
		return "", card.ID, nil
	})
}

// toggleTimer stops the running timer when it belongs to the selected card
// and starts one otherwise
func (v *BoardView) toggleTimer() tea.Cmd {
	card, ok := v.selected()
	if !ok {
		return nil
	}
	running := v.timer != nil && v.timer.TaskID == card.ID
	return v.act(func(ctx context.Context) (string, int64, error) {
		if running {
			entry, err := v.svc.StopTimer(ctx, v.user, card.ID)
			if err != nil {
				return "", 0, err
			}
			return fmt.Sprintf("Stopped timer on #%d after %s", card.ID, timetrack.FormatDuration(entry.Duration())), card.ID, nil
		}
		if _, err := v.svc.StartTimer(ctx, v.user, card.ID); err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("Started timer on #%d", card.ID), card.ID, nil
	})
}

func (v *BoardView) loadDetail(taskID int64) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		detail, err := v.svc.InspectTask(ctx, v.user, taskID)
		if err != nil {
			return errMsg{err}
		}
		comments, err := v.svc.ListComments(ctx, v.user, taskID)
		if err != nil {
			return errMsg{err}
		}
		report, err := v.svc.TimeReport(ctx, v.user, taskID)
		if err != nil {
			return errMsg{err}
		}
		return detailLoadedMsg{detail: detail, comments: comments, report: report}
	}
}

func (v *BoardView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		id := v.deleteTarget.ID
		return v, v.act(func(ctx context.Context) (string, int64, error) {
			if err := v.svc.DeleteTask(ctx, v.user, id); err != nil {
				return "", 0, err
			}
			return fmt.Sprintf("Deleted #%d", id), 0, nil
		})
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

func (v *BoardView) updateViewing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.commentFocused {
		switch {
		case key.Matches(msg, v.keys.Back):
			v.commentFocused = false
			v.commentInput.Blur()
			return v, nil
		case msg.String() == "ctrl+s":
			return v, v.submitComment()
		default:
			var cmd tea.Cmd
			v.commentInput, cmd = v.commentInput.Update(msg)
			return v, cmd
		}
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		v.viewing = false
		v.detail = nil
		v.comments = nil
		v.report = nil
		return v, v.reload(v.notice, 0)
	case key.Matches(msg, v.keys.Comment):
		v.commentFocused = true
		v.commentInput.Focus()
		return v, textarea.Blink
	case key.Matches(msg, v.keys.Edit):
		v.viewing = false
		v.startEditTask(v.detail.Task)
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	}
	return v, nil
}

func (v *BoardView) submitComment() tea.Cmd {
	content := strings.TrimSpace(v.commentInput.Value())
	if content == "" || v.detail == nil {
		return nil
	}
	taskID := v.detail.ID

	v.commentInput.Reset()
	v.commentFocused = false
	v.commentInput.Blur()

	return func() tea.Msg {
		if _, err := v.svc.AddComment(context.Background(), v.user, taskID, content); err != nil {
			return errMsg{err}
		}
		return v.loadDetail(taskID)()
	}
}

func (v *BoardView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.saveTask()

	case key.Matches(msg, v.keys.Tab):
		v.editFocusIdx = (v.editFocusIdx + 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.editFocusIdx = (v.editFocusIdx + fieldCount - 1) % fieldCount
		v.updateEditFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		switch v.editFocusIdx {
		case fieldTitle, fieldPriority, fieldDue:
			v.editFocusIdx++
			v.updateEditFocus()
			return v, nil
		case fieldSave:
			return v, v.saveTask()
		}
		// enter inserts a newline in the description
	}

	var cmd tea.Cmd
	switch v.editFocusIdx {
	case fieldTitle:
		v.editTitle, cmd = v.editTitle.Update(msg)
	case fieldDesc:
		v.editDesc, cmd = v.editDesc.Update(msg)
	case fieldPriority:
		v.editPriority, cmd = v.editPriority.Update(msg)
	case fieldDue:
		v.editDue, cmd = v.editDue.Update(msg)
	}
	return v, cmd
}

func (v *BoardView) startNewTask() {
	v.editing = true
	v.editingNew = true
	v.editingID = 0
	v.editFocusIdx = fieldTitle
	v.editTitle.Reset()
	v.editDesc.Reset()
	v.editPriority.SetValue("low")
	v.editDue.Reset()
	v.updateEditFocus()
}

func (v *BoardView) startEditTask(task models.Task) {
	v.editing = true
	v.editingNew = false
	v.editingID = task.ID
	v.editFocusIdx = fieldTitle
	v.editTitle.SetValue(task.Title)
	v.editDesc.SetValue(task.Description)
	v.editPriority.SetValue(task.Priority.String())
	v.editDue.Reset()
	if task.DueDate != nil {
		v.editDue.SetValue(task.DueDate.Local().Format("2006-01-02"))
	}
	v.updateEditFocus()
}

func (v *BoardView) updateEditFocus() {
	v.editTitle.Blur()
	v.editDesc.Blur()
	v.editPriority.Blur()
	v.editDue.Blur()

	switch v.editFocusIdx {
	case fieldTitle:
		v.editTitle.Focus()
	case fieldDesc:
		v.editDesc.Focus()
	case fieldPriority:
		v.editPriority.Focus()
	case fieldDue:
		v.editDue.Focus()
	}
}

func parsePriority(s string) models.Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical", "crit", "c", "3":
		return models.PriorityCritical
	case "high", "h", "2":
		return models.PriorityHigh
	case "medium", "med", "m", "1":
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func (v *BoardView) saveTask() tea.Cmd {
	title := strings.TrimSpace(v.editTitle.Value())
	if title == "" {
		v.editing = false
		return nil
	}
	desc := strings.TrimSpace(v.editDesc.Value())
	priority := parsePriority(v.editPriority.Value())

	var due *time.Time
	if raw := strings.TrimSpace(v.editDue.Value()); raw != "" {
		d, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			v.err = fmt.Errorf("due date %q: want YYYY-MM-DD", raw)
			return nil
		}
		// a bare date means the end of that day
		d = d.Add(24*time.Hour - time.Minute)
		due = &d
	}

	v.editing = false

	if v.editingNew {
		in := app.NewTask{
			Title:       title,
			Description: desc,
			Priority:    priority,
			DueDate:     due,
			ProjectID:   v.projectID(),
		}
		return v.act(func(ctx context.Context) (string, int64, error) {
			task, err := v.svc.CreateTask(ctx, v.user, in)
			if err != nil {
				return "", 0, err
			}
			return fmt.Sprintf("Created #%d", task.ID), task.ID, nil
		})
	}

	id := v.editingID
	patch := app.TaskPatch{
		Title:        &title,
		Description:  &desc,
		Priority:     &priority,
		DueDate:      due,
		ClearDueDate: due == nil,
	}
	return v.act(func(ctx context.Context) (string, int64, error) {
		task, err := v.svc.UpdateTask(ctx, v.user, id, patch)
		if err != nil {
			return "", 0, err
		}
		return fmt.Sprintf("Updated #%d", task.ID), task.ID, nil
	})
}

// View renders the view
func (v *BoardView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.editing {
		return v.renderEditForm()
	}

	if v.viewing && v.detail != nil {
		return v.renderTaskView()
	}

	if !v.loaded {
		if v.err != nil {
			return v.styles.ErrorText.Render(v.err.Error())
		}
		return v.styles.TitleMuted.Render("Loading...")
	}

	var b strings.Builder
	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderColumns())
	b.WriteString("\n")
	b.WriteString(v.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *BoardView) renderHeader() string {
	title := "All my tasks"
	if v.project != nil {
		title = v.project.Title
	}
	header := v.styles.Title.Render(title)

	if v.timer != nil {
		elapsed := v.now().Sub(v.timer.StartTime)
		header += "  " + v.styles.Timer.Render(fmt.Sprintf("⏱ #%d %s", v.timer.TaskID, timetrack.FormatDuration(elapsed)))
	}
	return header
}

func (v *BoardView) renderColumns() string {
	colWidth := styles.ColumnWidth(v.width)
	visible := max((v.height-12)/2, 3)

	cols := make([]string, 0, len(models.Statuses))
	for i, status := range models.Statuses {
		cards := v.column(i)

		headerStyle := v.styles.ColumnHeader.Foreground(styles.StatusColor(status))
		lines := []string{headerStyle.Render(fmt.Sprintf("%s (%d)", status, len(cards)))}

		if len(cards) == 0 {
			lines = append(lines, v.styles.TitleMuted.Render("empty"))
		}

		start := 0
		if v.rows[i] >= visible {
			start = v.rows[i] - visible + 1
		}
		end := min(start+visible, len(cards))
		if start > 0 {
			lines = append(lines, v.styles.TitleMuted.Render(fmt.Sprintf("↑ %d more", start)))
		}
		for r := start; r < end; r++ {
			lines = append(lines, v.renderCard(cards[r], i == v.col && r == v.rows[i], colWidth))
		}
		if end < len(cards) {
			lines = append(lines, v.styles.TitleMuted.Render(fmt.Sprintf("↓ %d more", len(cards)-end)))
		}

		colStyle := v.styles.Column
		if i == v.col {
			colStyle = v.styles.ColumnFocused
		}
		cols = append(cols, colStyle.Width(colWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (v *BoardView) renderCard(card workflow.Card, selected bool, width int) string {
	s := v.styles

	var marks string
	if card.Blocked {
		marks += "⛔ "
	}
	if v.timer != nil && v.timer.TaskID == card.ID {
		marks += "⏱ "
	}
	switch card.Priority {
	case models.PriorityCritical:
		marks += "!!! "
	case models.PriorityHigh:
		marks += "!! "
	case models.PriorityMedium:
		marks += "! "
	}

	line := truncate(fmt.Sprintf("%s#%d %s", marks, card.ID, card.Title), max(width-2, 8))

	style := s.Card
	switch {
	case selected:
		style = s.CardSelected
	case card.Blocked:
		style = s.CardBlocked
	case card.Completed:
		style = s.CardDone
	}
	rendered := style.Render(line)

	if card.DueDate != nil && !card.Completed {
		rendered += "\n" + s.Badge.Render("  due "+card.DueDate.Local().Format("Jan 2"))
	}
	return rendered
}

func (v *BoardView) renderStatusBar() string {
	switch {
	case v.err != nil:
		return v.styles.StatusBar.Render(v.styles.ErrorText.Render(v.err.Error()))
	case v.notice != "":
		return v.styles.StatusBar.Render(v.styles.Notice.Render(v.notice))
	default:
		return ""
	}
}

func (v *BoardView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 60 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s move • %s status • %s order • %s timer • %s view • %s new • %s edit • %s del • %s back • %s quit",
			v.styles.HelpKey.Render("←↑↓→"),
			v.styles.HelpKey.Render("[ ]"),
			v.styles.HelpKey.Render("K J"),
			v.styles.HelpKey.Render("s"),
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("esc"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *BoardView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("←/→") + "    switch column",
		s.HelpKey.Render("↑/↓") + "    select task",
		s.HelpKey.Render("[ ]") + "    move to previous/next column",
		s.HelpKey.Render("K J") + "    raise/lower within column",
		s.HelpKey.Render("s") + "      start/stop timer",
		s.HelpKey.Render("↵") + "      view task",
		s.HelpKey.Render("n") + "      new task",
		s.HelpKey.Render("e") + "      edit task",
		s.HelpKey.Render("d") + "      delete task",
		s.HelpKey.Render("r") + "      refresh",
		s.HelpKey.Render("esc") + "    back to boards",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("⛔ marks tasks waiting on unfinished prerequisites"),
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *BoardView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle := "New Task"
	if !v.editingNew {
		formTitle = fmt.Sprintf("Edit Task #%d", v.editingID)
	}

	fieldStyle := func(idx int) lipgloss.Style {
		if v.editFocusIdx == idx {
			return s.InputFocused
		}
		return s.Input
	}
	btnStyle := s.Button
	if v.editFocusIdx == fieldSave {
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 50)

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(formTitle),
		"",
		"Title:",
		fieldStyle(fieldTitle).Width(inputWidth).Render(v.editTitle.View()),
		"",
		"Description:",
		fieldStyle(fieldDesc).Render(v.editDesc.View()),
		"",
		"Priority:",
		fieldStyle(fieldPriority).Width(20).Render(v.editPriority.View()),
		"",
		"Due:",
		fieldStyle(fieldDue).Width(24).Render(v.editDue.View()),
		"",
		btnStyle.Render(" Save "),
		"",
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *BoardView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("#%d %s", v.deleteTarget.ID, v.deleteTarget.Title)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *BoardView) renderTaskView() string {
	s := v.styles
	task := v.detail
	textWidth := clamp(styles.ContentWidth(v.width)-10, 20, 70)
	label := s.TitleMuted

	descText := task.Description
	if descText == "" {
		descText = s.TitleMuted.Render("No description")
	}

	due := "None"
	if task.DueDate != nil {
		due = task.DueDate.Local().Format("Mon Jan 2, 2006 15:04")
	}

	status := string(task.Status)
	if task.CompletedAt != nil {
		status += " · completed " + task.CompletedAt.Local().Format("Jan 2 15:04")
	}

	blockers := s.TitleMuted.Render("None")
	if len(task.Blockers) > 0 {
		var lines []string
		for _, b := range task.Blockers {
			lines = append(lines, s.CardBlocked.Render(fmt.Sprintf("#%d %s (%s)", b.ID, b.Title, b.Status)))
		}
		blockers = lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	assignees := s.TitleMuted.Render("None")
	if len(task.Assignments) > 0 {
		var names []string
		for _, a := range task.Assignments {
			names = append(names, fmt.Sprintf("%s (%s)", a.UserID, a.Permission))
		}
		assignees = strings.Join(names, ", ")
	}

	tracked := "00:00:00"
	if v.report != nil {
		tracked = fmt.Sprintf("%s over %d entries", v.report.Formatted, len(v.report.Entries))
	}

	var commentsContent string
	if len(v.comments) == 0 {
		commentsContent = s.TitleMuted.Render("No comments yet")
	} else {
		var lines []string
		for _, c := range v.comments {
			lines = append(lines, lipgloss.JoinVertical(lipgloss.Left,
				s.TitleMuted.Render(fmt.Sprintf("%s · %s", c.UserID, c.CreatedAt.Local().Format("Jan 2, 2006 3:04 PM"))),
				lipgloss.NewStyle().Width(textWidth).Render(c.Content),
			))
		}
		commentsContent = lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	commentStyle := s.Input
	helpText := s.Help.Render(fmt.Sprintf("%s comment • %s edit • %s back",
		s.HelpKey.Render("c"), s.HelpKey.Render("e"), s.HelpKey.Render("esc")))
	if v.commentFocused {
		commentStyle = s.InputFocused
		helpText = s.Help.Render(fmt.Sprintf("%s submit • %s cancel",
			s.HelpKey.Render("ctrl+s"), s.HelpKey.Render("esc")))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.MarginBottom(1).Render(fmt.Sprintf("#%d %s", task.ID, task.Title)),
		label.Render("Status"), status,
		"",
		label.Render("Priority"), s.Badge.Render(task.Priority.String()),
		"",
		label.Render("Due"), due,
		"",
		label.Render("Owner"), task.OwnerID,
		"",
		label.Render("Assigned"), assignees,
		"",
		label.Render("Waiting on"), blockers,
		"",
		label.Render("Time tracked"), tracked,
		"",
		label.Render("Description"),
		lipgloss.NewStyle().Width(textWidth).Render(descText),
		"",
		label.Render("Comments"),
		commentsContent,
		"",
		commentStyle.Render(v.commentInput.View()),
		"",
		helpText,
	)

	padded := lipgloss.NewStyle().Padding(1, 2).Render(content)
	return styles.CenterView(padded, v.width, v.height)
}
