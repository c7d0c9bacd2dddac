// Package tui implements the interactive list browser.
package tui

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/Veraticus/bankctl/internal/cli"
	"github.com/Veraticus/bankctl/internal/listing"
	"github.com/Veraticus/bankctl/internal/notify"
	"github.com/Veraticus/bankctl/internal/status"
	"github.com/Veraticus/bankctl/internal/tui/themes"
)

const (
	toastDuration = 4 * time.Second
	skeletonRows  = 5
	defaultHeight = 10
)

// Screen is what the body of the browser shows.
type Screen int

const (
	ScreenSkeleton Screen = iota
	ScreenInitialError
	ScreenEmpty
	ScreenRows
)

func (s Screen) String() string {
	switch s {
	case ScreenSkeleton:
		return "skeleton"
	case ScreenInitialError:
		return "initial-error"
	case ScreenEmpty:
		return "empty"
	case ScreenRows:
		return "rows"
	default:
		return "unknown"
	}
}

// Config configures a Browser.
type Config[T any] struct {
	// Notices, when set, is shown as toasts. Without it the browser toasts
	// its own failed reloads.
	Notices *notify.Center
	Theme   *themes.Theme
	Filters map[string]string
	Title   string
	Columns []cli.Column[T]
}

// subscriptions is shared by the copies of a Browser.
type subscriptions struct {
	stopChanges func()
	stopNotices func()
}

// Browser pages through one list with a listing controller. It re-renders
// on every tracker change for the controller's operation.
type Browser[T any] struct {
	ctx       context.Context
	ctrl      *listing.Controller[T]
	tracker   *status.Tracker
	subs      *subscriptions
	changes   <-chan status.Change
	notices   <-chan notify.Notice
	toast     *notify.Notice
	filters   map[string]string
	title     string
	columns   []cli.Column[T]
	keymap    KeyMap
	theme     themes.Theme
	help      help.Model
	spinner   spinner.Model
	table     table.Model
	search    textinput.Model
	toastSeq  int
	width     int
	height    int
	matches   int
	quitting  bool
	searching bool
}

// NewBrowser creates a browser over ctrl. Call Close when done with it.
func NewBrowser[T any](ctx context.Context, ctrl *listing.Controller[T], cfg Config[T]) Browser[T] {
	theme := themes.Default
	if cfg.Theme != nil {
		theme = *cfg.Theme
	}

	cols := make([]table.Column, len(cfg.Columns))
	for i, c := range cfg.Columns {
		cols[i] = table.Column{Title: c.Title, Width: max(c.Width, len(c.Title))}
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(defaultHeight),
	)
	styles := table.DefaultStyles()
	styles.Header = theme.Header
	styles.Selected = theme.Selected
	t.SetStyles(styles)

	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = lipgloss.NewStyle().Foreground(theme.Primary)

	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search this page"
	search.CharLimit = 64

	subs := &subscriptions{}
	changes, stopChanges := ctrl.Tracker().Subscribe()
	subs.stopChanges = stopChanges

	var notices <-chan notify.Notice
	if cfg.Notices != nil {
		var stopNotices func()
		notices, stopNotices = cfg.Notices.Subscribe()
		subs.stopNotices = stopNotices
	}

	filters := maps.Clone(cfg.Filters)
	if filters == nil {
		filters = map[string]string{}
	}

	return Browser[T]{
		ctx:     ctx,
		ctrl:    ctrl,
		tracker: ctrl.Tracker(),
		subs:    subs,
		changes: changes,
		notices: notices,
		filters: filters,
		title:   cfg.Title,
		columns: cfg.Columns,
		keymap:  DefaultKeyMap(),
		theme:   theme,
		help:    help.New(),
		spinner: s,
		table:   t,
		search:  search,
	}
}

// Close releases the tracker and notice subscriptions.
func (b Browser[T]) Close() {
	if b.subs.stopChanges != nil {
		b.subs.stopChanges()
	}
	if b.subs.stopNotices != nil {
		b.subs.stopNotices()
	}
}

// Init issues the initial load of page 1.
func (b Browser[T]) Init() tea.Cmd {
	cmds := []tea.Cmd{
		b.spinner.Tick,
		b.waitForChange(),
		b.issue(1, listing.LoadOptions{Initial: true}),
	}
	if b.notices != nil {
		cmds = append(cmds, b.waitForNotice())
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (b Browser[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b.handleKey(msg)

	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.table.SetWidth(msg.Width)
		// title, page line, toast and help
		b.table.SetHeight(max(msg.Height-8, 3))
		b.help.Width = msg.Width
		return b, nil

	case changeMsg:
		if msg.Cleared || msg.Op == b.ctrl.Operation() {
			b.refreshRows()
			if b.notices == nil && msg.Bucket == status.BucketSubsequent && msg.Phase == status.PhaseFailed {
				toast := b.showToast(notify.Notice{
					Operation: msg.Op,
					Message:   b.tracker.ErrorMessage(msg.Op, status.BucketSubsequent),
					Level:     notify.LevelError,
				})
				return b, tea.Batch(b.waitForChange(), toast)
			}
		}
		return b, b.waitForChange()

	case noticeMsg:
		toast := b.showToast(notify.Notice(msg))
		return b, tea.Batch(b.waitForNotice(), toast)

	case toastExpiredMsg:
		if msg.seq == b.toastSeq {
			b.toast = nil
		}
		return b, nil

	case loadSettledMsg:
		b.refreshRows()
		return b, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinner, cmd = b.spinner.Update(msg)
		return b, cmd
	}

	return b, nil
}

func (b Browser[T]) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if b.searching {
		return b.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, b.keymap.Search):
		b.searching = true
		return b, b.search.Focus()

	case key.Matches(msg, b.keymap.Quit):
		b.quitting = true
		return b, tea.Quit

	case key.Matches(msg, b.keymap.Help):
		b.help.ShowAll = !b.help.ShowAll
		return b, nil

	case key.Matches(msg, b.keymap.Next):
		page := b.ctrl.CurrentPage() + 1
		if total := b.ctrl.TotalPages(); total > 0 && page > total {
			return b, nil
		}
		return b, b.issue(page, listing.LoadOptions{})

	case key.Matches(msg, b.keymap.Prev):
		page := b.ctrl.CurrentPage() - 1
		if page < 1 {
			return b, nil
		}
		return b, b.issue(page, listing.LoadOptions{})

	case key.Matches(msg, b.keymap.Retry):
		page := max(b.ctrl.CurrentPage(), 1)
		initial := !b.tracker.HasSucceeded(b.ctrl.Operation(), status.BucketInitial) && !b.ctrl.HasPage(page)
		return b, b.issue(page, listing.LoadOptions{Initial: initial})
	}

	var cmd tea.Cmd
	b.table, cmd = b.table.Update(msg)
	return b, cmd
}

// handleSearchKey edits the search query. Enter keeps the query, esc drops it.
func (b Browser[T]) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		b.quitting = true
		return b, tea.Quit
	case tea.KeyEnter:
		b.searching = false
		b.search.Blur()
		return b, nil
	case tea.KeyEsc:
		b.searching = false
		b.search.Blur()
		b.search.SetValue("")
		b.refreshRows()
		return b, nil
	}

	var cmd tea.Cmd
	b.search, cmd = b.search.Update(msg)
	b.refreshRows()
	return b, cmd
}

// issue starts a load right away and returns a command that reports when it
// settles. Starting it here keeps key presses in order.
func (b Browser[T]) issue(page int, opts listing.LoadOptions) tea.Cmd {
	done := b.ctrl.LoadAsync(b.ctx, page, b.filters, opts)
	return func() tea.Msg {
		<-done
		return loadSettledMsg{page: page}
	}
}

func (b Browser[T]) waitForChange() tea.Cmd {
	changes := b.changes
	return func() tea.Msg {
		c, ok := <-changes
		if !ok {
			return nil
		}
		return changeMsg(c)
	}
}

func (b Browser[T]) waitForNotice() tea.Cmd {
	notices := b.notices
	return func() tea.Msg {
		n, ok := <-notices
		if !ok {
			return nil
		}
		return noticeMsg(n)
	}
}

func (b *Browser[T]) showToast(n notify.Notice) tea.Cmd {
	b.toastSeq++
	b.toast = &n
	seq := b.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

// refreshRows rebuilds the table from the current page, keeping only the
// rows that match the search query, best match first.
func (b *Browser[T]) refreshRows() {
	items := b.ctrl.Items()
	rows := make([]table.Row, len(items))
	texts := make([]string, len(items))
	for i, item := range items {
		row := make(table.Row, len(b.columns))
		for j, c := range b.columns {
			row[j] = cli.Truncate(c.Value(item), max(c.Width, len(c.Title)))
		}
		rows[i] = row
		texts[i] = strings.ToLower(strings.Join(row, " "))
	}

	if query := strings.TrimSpace(b.search.Value()); query != "" {
		matches := fuzzy.Find(strings.ToLower(query), texts)
		filtered := make([]table.Row, len(matches))
		for i, m := range matches {
			filtered[i] = rows[m.Index]
		}
		rows = filtered
	}
	b.matches = len(rows)
	b.table.SetRows(rows)
	if b.table.Cursor() >= len(rows) {
		b.table.SetCursor(max(len(rows)-1, 0))
	}
}

// Screen reports what the body currently shows.
func (b Browser[T]) Screen() Screen {
	op := b.ctrl.Operation()
	page := b.ctrl.CurrentPage()

	if page > 0 && b.ctrl.HasPage(page) {
		if b.ctrl.IsEmpty() {
			return ScreenEmpty
		}
		return ScreenRows
	}
	if b.tracker.HasFailed(op, status.BucketInitial) && !b.tracker.IsLoading(op, status.BucketInitial) {
		return ScreenInitialError
	}
	if b.tracker.IsFirstLoad(op, status.BucketInitial) || b.tracker.IsLoading(op, status.BucketInitial) {
		return ScreenSkeleton
	}
	if b.ctrl.IsEmpty() {
		return ScreenEmpty
	}
	return ScreenRows
}

// Toast returns the notice on display, if any.
func (b Browser[T]) Toast() (notify.Notice, bool) {
	if b.toast == nil {
		return notify.Notice{}, false
	}
	return *b.toast, true
}

// View renders the browser.
func (b Browser[T]) View() string {
	if b.quitting {
		return ""
	}

	sections := []string{b.renderHeader()}
	if b.searching || b.search.Value() != "" {
		sections = append(sections, b.search.View())
	}
	sections = append(sections, b.renderBody())
	if b.toast != nil {
		sections = append(sections, b.renderToast())
	}
	sections = append(sections, b.help.View(b.keymap))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (b Browser[T]) renderHeader() string {
	title := b.theme.Title.Render(b.title)

	var info string
	if pages := b.ctrl.TotalPages(); pages > 0 {
		info = fmt.Sprintf("page %d of %d, %d total", max(b.ctrl.CurrentPage(), 1), pages, b.ctrl.Cache().TotalCount())
	}
	if len(b.filters) > 0 {
		info += "  " + formatFilters(b.filters)
	}
	line := title + "  " + b.theme.Subtitle.Render(info)

	if b.tracker.IsLoading(b.ctrl.Operation(), status.BucketSubsequent) {
		line += "  " + b.spinner.View()
	}
	return line
}

func (b Browser[T]) renderBody() string {
	switch b.Screen() {
	case ScreenSkeleton:
		return b.renderSkeleton()
	case ScreenInitialError:
		msg := b.tracker.ErrorMessage(b.ctrl.Operation(), status.BucketInitial)
		content := lipgloss.JoinVertical(lipgloss.Left,
			b.theme.StatusError.Render("Failed to load "+strings.ToLower(b.title)),
			b.theme.Normal.Render(msg),
			"",
			b.theme.Subtitle.Render("Press r to retry"),
		)
		return b.theme.ErrorBox.Render(content)
	case ScreenEmpty:
		return b.theme.Subtitle.Render("No " + strings.ToLower(b.title) + " found")
	default:
		if b.search.Value() != "" && b.matches == 0 {
			return b.theme.Subtitle.Render("Nothing on this page matches " + strconv.Quote(b.search.Value()))
		}
		return b.table.View()
	}
}

func (b Browser[T]) renderSkeleton() string {
	headers := make([]string, len(b.columns))
	bars := make([]string, len(b.columns))
	for i, c := range b.columns {
		w := max(c.Width, len(c.Title))
		headers[i] = fmt.Sprintf("%-*s", w, c.Title)
		bars[i] = strings.Repeat("░", max(w-2, 1)) + "  "
	}

	lines := []string{b.theme.Header.Render(strings.Join(headers, " "))}
	bar := b.theme.Skeleton.Render(strings.Join(bars, ""))
	for range skeletonRows {
		lines = append(lines, bar)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (b Browser[T]) renderToast() string {
	style := b.theme.StatusInfo
	switch b.toast.Level {
	case notify.LevelError:
		style = b.theme.StatusError
	case notify.LevelWarn:
		style = b.theme.StatusWarning
	}
	msg := b.toast.Message
	if b.toast.Operation != "" {
		msg = string(b.toast.Operation) + ": " + msg
	}
	return b.theme.Toast.Render(style.Render(msg))
}

func formatFilters(filters map[string]string) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + filters[k]
	}
	return strings.Join(parts, " ")
}
