package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/docview/internal/pages"
	"github.com/csheth/docview/internal/qa"
	"github.com/csheth/docview/internal/session"
)

// Config wires runtime options into the viewer. Either Document or Load
// must be set; Load runs as a background job on start.
type Config struct {
	Document     *pages.Document
	Load         DocumentLoader
	Asker        qa.Asker
	Visibility   session.VisibilitySource
	InitialScale float64
	Layout       session.LayoutMode
	Timeout      time.Duration
	Logger       *slog.Logger
}

type pauser interface {
	Toggle() bool
}

type model struct {
	config  Config
	log     *slog.Logger
	jobs    *jobBus
	running map[string]jobSnapshot

	tracker *session.Tracker
	qa      *qa.Session
	doc     *pages.Document
	layout  paneLayout
	focus   focusArea

	questionInput textinput.Model
	searchInput   textinput.Model
	spinner       spinner.Model
	viewport      viewport.Model

	contextCursor int
	searchTerm    string
	searchHits    []int
	helpVisible   bool
	loadingDoc    bool
	released      bool
	viewportDirty bool
	errorMessage  string
	infoMessage   string
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	log := config.Logger
	if log == nil {
		log = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}

	tracker := session.NewTracker()
	if config.InitialScale != 0 {
		tracker.SetZoom(config.InitialScale)
	}
	tracker.SetLayoutMode(config.Layout)

	questionInput := textinput.New()
	questionInput.Placeholder = questionPlaceholder
	questionInput.CharLimit = 300
	questionInput.Width = 36

	searchInput := textinput.New()
	searchInput.Placeholder = searchPlaceholder
	searchInput.CharLimit = 120
	searchInput.Width = 40

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	m := &model{
		config:        config,
		log:           log,
		jobs:          newJobBus(log),
		running:       map[string]jobSnapshot{},
		tracker:       tracker,
		qa:            qa.NewSession(config.Asker, log),
		layout:        newPaneLayout(),
		focus:         focusPages,
		questionInput: questionInput,
		searchInput:   searchInput,
		spinner:       spin,
		viewport:      vp,
		viewportDirty: true,
	}
	if config.Document != nil {
		m.applyDocument(config.Document)
	} else if config.Load != nil {
		m.loadingDoc = true
		m.infoMessage = "Loading document…"
	}
	return m
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, tickCmd()}
	if m.config.Visibility != nil {
		cmds = append(cmds, waitForVisibility(m.config.Visibility.Changes()))
	}
	if m.loadingDoc {
		cmds = append(cmds, m.jobs.Start(jobKindLoad, loadDocumentJob(m.config.Load, m.config.Timeout)), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height, m.tracker.LayoutMode())
		m.resize()
		return m, nil
	case tickMsg:
		m.tracker.Tick()
		return m, tickCmd()
	case visibilityMsg:
		if msg.closed {
			return m, nil
		}
		m.tracker.SetVisible(msg.visible)
		if msg.visible {
			m.infoMessage = "Reading timer resumed."
		} else {
			m.infoMessage = "Reading timer paused."
		}
		return m, waitForVisibility(m.config.Visibility.Changes())
	case spinner.TickMsg:
		if m.loadingDoc || m.qa.Loading() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case jobSignalMsg:
		m.running[msg.Snapshot.ID] = msg.Snapshot
		return m, nil
	case jobResultEnvelope:
		delete(m.running, msg.Snapshot.ID)
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case documentResultMsg:
		m.loadingDoc = false
		if msg.err != nil {
			m.errorMessage = fmt.Sprintf("Failed to load document: %v", msg.err)
			m.infoMessage = ""
			return m, nil
		}
		m.applyDocument(msg.doc)
		return m, nil
	case answerResultMsg:
		if !m.qa.Complete(msg.ticket, msg.resp, msg.err) {
			return m, nil
		}
		m.contextCursor = 0
		if msg.err == nil {
			m.infoMessage = answerSummary(len(m.qa.SupportingContexts()))
		}
		return m, nil
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyCtrlC {
		return m, m.quit()
	}
	if m.qa.Selection() != nil {
		switch key.String() {
		case "esc", "enter", "q":
			m.qa.CloseSelection()
		}
		return m, nil
	}
	switch m.focus {
	case focusQuestion:
		return m.handleQuestionKey(key)
	case focusSearch:
		return m.handleSearchKey(key)
	}
	return m.handlePageKey(key)
}

func (m *model) handlePageKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		if m.helpVisible {
			m.helpVisible = false
			return m, nil
		}
		return m, m.quit()
	case "right", "l":
		m.goToPage(m.tracker.CurrentPage() + 1)
	case "left", "h":
		m.goToPage(m.tracker.CurrentPage() - 1)
	case "g", "home":
		m.goToPage(1)
	case "G", "end":
		if total := m.tracker.TotalPages(); total > 0 {
			m.goToPage(total)
		}
	case "+", "=":
		m.tracker.ZoomIn()
		m.markViewportDirty()
	case "-", "_":
		m.tracker.ZoomOut()
		m.markViewportDirty()
	case "0":
		m.tracker.SetZoom(session.DefaultScale)
		m.markViewportDirty()
	case "tab":
		m.tracker.ToggleLayout()
		m.relayout()
	case "p":
		if src, ok := m.config.Visibility.(pauser); ok {
			src.Toggle()
		}
	case "q", "i":
		if m.tracker.LayoutMode() == session.LayoutFull {
			m.tracker.SetLayoutMode(session.LayoutSplit)
			m.relayout()
		}
		m.focus = focusQuestion
		return m, m.questionInput.Focus()
	case "/":
		m.focus = focusSearch
		m.searchInput.SetValue("")
		return m, m.searchInput.Focus()
	case "n":
		m.advanceSearch(1)
	case "N":
		m.advanceSearch(-1)
	case "j":
		m.moveContextCursor(1)
	case "k":
		m.moveContextCursor(-1)
	case "enter":
		m.openContext()
	case "?":
		m.helpVisible = !m.helpVisible
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(key)
		return m, cmd
	}
	return m, nil
}

func (m *model) handleQuestionKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.questionInput.Blur()
		m.focus = focusPages
		return m, nil
	case tea.KeyEnter:
		return m, m.submitQuestion()
	}
	var cmd tea.Cmd
	m.questionInput, cmd = m.questionInput.Update(key)
	return m, cmd
}

func (m *model) handleSearchKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		m.searchInput.Blur()
		m.focus = focusPages
		return m, nil
	case tea.KeyEnter:
		m.searchInput.Blur()
		m.focus = focusPages
		m.applySearch(m.searchInput.Value())
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(key)
	return m, cmd
}

// submitQuestion starts a QA job for the current input. Blank input is
// ignored without contacting the service.
func (m *model) submitQuestion() tea.Cmd {
	question := m.questionInput.Value()
	if strings.TrimSpace(question) == "" {
		return nil
	}
	if m.config.Asker == nil {
		m.errorMessage = "No question service configured."
		return nil
	}
	ticket, err := m.qa.Begin(question, m.pages())
	if errors.Is(err, qa.ErrEmptyQuestion) {
		return nil
	}
	m.questionInput.Blur()
	m.focus = focusPages
	m.errorMessage = ""
	m.infoMessage = ""
	return tea.Batch(
		m.jobs.Start(jobKindQuestion, askQuestionJob(m.qa, ticket, m.config.Timeout)),
		m.spinner.Tick,
	)
}

func (m *model) applyDocument(doc *pages.Document) {
	if doc == nil {
		return
	}
	m.doc = doc
	total := doc.TotalPages
	if total <= 0 {
		total = doc.Pages.Len()
	}
	m.tracker.SetTotalPages(total)
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Loaded %s: %d pages, text from %s.", filepath.Base(doc.Path), total, doc.Source)
	m.markViewportDirty()
}

func (m *model) pages() pages.Collection {
	if m.doc == nil {
		return nil
	}
	return m.doc.Pages
}

func (m *model) goToPage(n int) {
	if m.tracker.GoToPage(n) {
		m.viewport.GotoTop()
		m.markViewportDirty()
	}
}

func (m *model) applySearch(term string) {
	m.searchTerm = strings.TrimSpace(term)
	m.searchHits = m.pages().Search(m.searchTerm)
	m.markViewportDirty()
	if m.searchTerm == "" {
		m.infoMessage = ""
		return
	}
	if len(m.searchHits) == 0 {
		m.infoMessage = fmt.Sprintf("No pages contain %q.", m.searchTerm)
		return
	}
	current := m.tracker.CurrentPage()
	target := m.searchHits[0]
	for _, page := range m.searchHits {
		if page >= current {
			target = page
			break
		}
	}
	m.goToPage(target)
	m.infoMessage = m.searchStatusLine()
}

// advanceSearch moves to the next (delta > 0) or previous match, wrapping
// around the document.
func (m *model) advanceSearch(delta int) {
	if len(m.searchHits) == 0 {
		return
	}
	current := m.tracker.CurrentPage()
	target := 0
	if delta > 0 {
		target = m.searchHits[0]
		for _, page := range m.searchHits {
			if page > current {
				target = page
				break
			}
		}
	} else {
		target = m.searchHits[len(m.searchHits)-1]
		for i := len(m.searchHits) - 1; i >= 0; i-- {
			if m.searchHits[i] < current {
				target = m.searchHits[i]
				break
			}
		}
	}
	m.goToPage(target)
	m.infoMessage = m.searchStatusLine()
}

func (m *model) searchStatusLine() string {
	if m.searchTerm == "" || len(m.searchHits) == 0 {
		return ""
	}
	current := m.tracker.CurrentPage()
	for idx, page := range m.searchHits {
		if page == current {
			return fmt.Sprintf("%q: match %d of %d pages", m.searchTerm, idx+1, len(m.searchHits))
		}
	}
	return fmt.Sprintf("%q: %d pages", m.searchTerm, len(m.searchHits))
}

func (m *model) moveContextCursor(delta int) {
	count := len(m.qa.SupportingContexts())
	if count == 0 {
		return
	}
	next := m.contextCursor + delta
	if next < 0 {
		next = 0
	}
	if next >= count {
		next = count - 1
	}
	m.contextCursor = next
}

func (m *model) openContext() {
	contexts := m.qa.SupportingContexts()
	if m.contextCursor < 0 || m.contextCursor >= len(contexts) {
		return
	}
	m.qa.SelectContext(contexts[m.contextCursor])
}

func (m *model) relayout() {
	m.layout.Update(m.layout.windowWidth, m.layout.windowHeight, m.tracker.LayoutMode())
	m.resize()
}

func (m *model) resize() {
	m.viewport.Width = m.layout.pageWidth
	m.viewport.Height = m.layout.viewportHeight
	if m.layout.qaWidth > 6 {
		m.questionInput.Width = m.layout.qaWidth - 6
	}
	m.markViewportDirty()
}

func (m *model) markViewportDirty() {
	m.viewportDirty = true
}

func (m *model) refreshViewportIfDirty() {
	if m.viewportDirty {
		m.refreshViewport()
	}
}

func (m *model) refreshViewport() {
	m.viewportDirty = false
	if m.doc == nil {
		m.viewport.SetContent(helperStyle.Render("No document loaded yet."))
		return
	}
	text, ok := m.doc.Pages.Page(m.tracker.CurrentPage())
	if !ok || strings.TrimSpace(text) == "" {
		m.viewport.SetContent(helperStyle.Render("No text was extracted for this page."))
		return
	}
	content := wordwrap.String(text, m.layout.wrapWidth(m.tracker.Scale()))
	if m.searchTerm != "" {
		content = highlightMatches(content, findMatches(content, m.searchTerm))
	}
	m.viewport.SetContent(content)
}

// quit releases the visibility subscription before stopping the program.
func (m *model) quit() tea.Cmd {
	if !m.released && m.config.Visibility != nil {
		m.released = true
		if err := m.config.Visibility.Close(); err != nil {
			m.log.Warn("close visibility source", "error", err)
		}
	}
	return tea.Quit
}

func answerSummary(count int) string {
	switch count {
	case 0:
		return "No answers found."
	case 1:
		return "1 answer. Press enter to show it on its page."
	default:
		return fmt.Sprintf("%d answers. Use j/k to choose and enter to show one on its page.", count)
	}
}

type matchRange struct {
	start int
	end   int
}

func findMatches(content, query string) []matchRange {
	lowerContent := strings.ToLower(content)
	lowerQuery := strings.ToLower(query)
	if lowerQuery == "" || len(lowerContent) != len(content) {
		return nil
	}
	var matches []matchRange
	searchIdx := 0
	for {
		idx := strings.Index(lowerContent[searchIdx:], lowerQuery)
		if idx == -1 {
			break
		}
		start := searchIdx + idx
		end := start + len(lowerQuery)
		matches = append(matches, matchRange{start: start, end: end})
		searchIdx = end
		if searchIdx >= len(content) {
			break
		}
	}
	return matches
}

func highlightMatches(content string, matches []matchRange) string {
	if len(matches) == 0 {
		return content
	}
	var b strings.Builder
	pos := 0
	for _, match := range matches {
		if match.start > pos {
			b.WriteString(content[pos:match.start])
		}
		b.WriteString(searchHighlightStyle.Render(content[match.start:match.end]))
		pos = match.end
	}
	if pos < len(content) {
		b.WriteString(content[pos:])
	}
	return b.String()
}
