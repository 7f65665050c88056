package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/docview/internal/qa"
	"github.com/csheth/docview/internal/session"
)

func (m *model) View() string {
	m.refreshViewportIfDirty()
	var body string
	switch {
	case m.qa.Selection() != nil:
		body = m.selectionView(m.qa.Selection())
	case m.tracker.LayoutMode() == session.LayoutSplit:
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.pagePane(), m.qaPane())
	default:
		body = m.pagePane()
	}
	parts := []string{m.headerView(), body, m.messageView(), m.controlsBar()}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView())
	}
	return joinNonEmpty(parts)
}

func (m *model) headerView() string {
	title := titleStyle.Render("docview")
	if m.doc == nil {
		return title
	}
	meta := helperStyle.Render(fmt.Sprintf("%s · text from %s", filepath.Base(m.doc.Path), m.doc.Source))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", meta)
}

func (m *model) pagePane() string {
	header := sectionHeaderStyle.Render(fmt.Sprintf("Page %d of %s", m.tracker.CurrentPage(), totalLabel(m.tracker.TotalPages())))
	rows := []string{header, m.viewport.View()}
	if m.focus == focusSearch {
		rows = append(rows, m.searchInput.View())
	}
	return pagePaneStyle.Width(m.layout.pageWidth).Render(strings.Join(rows, "\n"))
}

func (m *model) qaPane() string {
	width := m.layout.qaWidth - 2
	if width < minPaneWidth-4 {
		width = minPaneWidth - 4
	}
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Ask the document"))
	b.WriteRune('\n')
	b.WriteString(m.questionInput.View())
	b.WriteRune('\n')
	if m.qa.Loading() {
		b.WriteRune('\n')
		b.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), helperStyle.Render("Finding answers…")))
		b.WriteRune('\n')
	}
	if msg := m.qa.Error(); msg != "" {
		b.WriteRune('\n')
		b.WriteString(errorStyle.Render(msg))
		b.WriteRune('\n')
	}
	primary, ok := m.qa.PrimaryAnswer()
	if !ok {
		if strings.TrimSpace(m.qa.Question()) == "" {
			b.WriteRune('\n')
			b.WriteString(helperStyle.Render(wordwrap.String("Press q to ask a question about the document.", width)))
		}
		return qaPaneStyle.Width(m.layout.qaWidth).Render(b.String())
	}
	b.WriteRune('\n')
	b.WriteString(subtitleStyle.Render("Answer"))
	b.WriteRune('\n')
	b.WriteString(answerStyle.Render(wordwrap.String(primary, width)))
	b.WriteRune('\n')
	b.WriteRune('\n')
	b.WriteString(subtitleStyle.Render("Supporting contexts"))
	for idx, a := range m.qa.SupportingContexts() {
		b.WriteRune('\n')
		text := wordwrap.String(contextPreview(a), width-2)
		if idx == m.contextCursor {
			b.WriteString(currentLineStyle.Render("▸ " + indentMultiline(text, "  ")[2:]))
		} else {
			b.WriteString(indentMultiline(text, "  "))
		}
		b.WriteRune('\n')
		b.WriteString(helperStyle.Render("  " + contextLabel(a)))
	}
	return qaPaneStyle.Width(m.layout.qaWidth).Render(b.String())
}

func (m *model) selectionView(sel *qa.Selection) string {
	width := m.layout.windowWidth - horizontalPadding - 6
	if width < minPaneWidth {
		width = minPaneWidth
	}
	body := wordwrap.String(sel.Segments.Render(func(s string) string {
		return answerHighlightStyle.Render(s)
	}), width)
	rows := []string{
		sectionHeaderStyle.Render("Answer: " + sel.Answer.Text),
		helperStyle.Render(contextLabel(sel.Answer)),
		"",
		body,
		"",
		helperStyle.Render("Esc to close."),
	}
	return selectionBoxStyle.Render(strings.Join(rows, "\n"))
}

func (m *model) messageView() string {
	var parts []string
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.loadingDoc {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		parts = append(parts, helperStyle.Render(message))
	}
	return strings.Join(parts, "\n")
}

// controlsBar shows page position, dwell times, zoom and layout.
func (m *model) controlsBar() string {
	snap := m.tracker.Snapshot()
	stats := []string{
		fmt.Sprintf("Page %d/%s", snap.CurrentPage, totalLabel(snap.TotalPages)),
		fmt.Sprintf("On page %s", formatSeconds(snap.CurrentElapsed)),
		fmt.Sprintf("Total %s", formatSeconds(snap.TotalElapsed)),
		fmt.Sprintf("Zoom %d%%", int(snap.Scale*100+0.5)),
		layoutLabel(snap.Layout),
	}
	if !snap.Visible {
		stats = append(stats, "Paused")
	}
	if n := len(m.running); n > 0 {
		stats = append(stats, fmt.Sprintf("%d job(s) running", n))
	}
	bar := statusBarStyle.Render(strings.Join(stats, " · "))
	hint := helperStyle.Render("  ? for keys")
	return lipgloss.JoinHorizontal(lipgloss.Top, bar, hint)
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"←/→", "Previous/next page"},
		{"g/G", "First or last page"},
		{"+/-", "Zoom in or out"},
		{"0", "Reset zoom"},
		{"tab", "Toggle layout"},
		{"p", "Pause timer"},
		{"q", "Ask question"},
		{"j/k", "Choose context"},
		{"enter", "Show on page"},
		{"/", "Search pages"},
		{"n/N", "Next match"},
		{"esc", "Close or quit"},
	}
	rows := []string{sectionHeaderStyle.Render("Keys")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description + "  ")
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func contextLabel(a qa.Answer) string {
	return fmt.Sprintf("From page %s · Position %d-%d", a.Page, a.Start, a.End)
}

func contextPreview(a qa.Answer) string {
	text := strings.TrimSpace(a.SupportingSentence)
	if text == "" {
		text = a.Text
	}
	runes := []rune(text)
	if len(runes) > contextPreviewLimit {
		return strings.TrimSpace(string(runes[:contextPreviewLimit-1])) + "…"
	}
	return text
}

func totalLabel(total int) string {
	if total <= 0 {
		return "?"
	}
	return fmt.Sprintf("%d", total)
}

func layoutLabel(mode session.LayoutMode) string {
	if mode == session.LayoutFull {
		return "Full page"
	}
	return "Split"
}

// formatSeconds renders m:ss, or h:mm:ss past an hour.
func formatSeconds(secs int) string {
	if secs < 0 {
		secs = 0
	}
	if secs >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

var (
	titleStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Underline(true)
	subtitleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	sectionHeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	answerStyle          = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#a3be8c"))
	searchHighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("190"))
	answerHighlightStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166"))
	pagePaneStyle        = lipgloss.NewStyle().PaddingRight(2)
	qaPaneStyle          = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("#56526e")).PaddingLeft(1)
	selectionBoxStyle    = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7f5af0")).Padding(1, 2)
	statusBarStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle             = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	currentLineStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
)
