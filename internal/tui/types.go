package tui

import (
	"time"

	"github.com/csheth/docview/internal/pages"
	"github.com/csheth/docview/internal/qa"
	"github.com/csheth/docview/internal/service"
)

type focusArea int

const (
	focusPages focusArea = iota
	focusQuestion
	focusSearch
)

const (
	minPaneWidth        = 24
	horizontalPadding   = 4
	qaPaneShareNumer    = 2
	qaPaneShareDenom    = 5
	tickInterval        = time.Second
	contextPreviewLimit = 160
)

const (
	questionPlaceholder = "Ask a question about the document…"
	searchPlaceholder   = "Find pages containing…"
)

type tickMsg time.Time

type visibilityMsg struct {
	visible bool
	closed  bool
}

type documentResultMsg struct {
	doc *pages.Document
	err error
}

type answerResultMsg struct {
	ticket qa.Ticket
	resp   service.QnAResponse
	err    error
}
