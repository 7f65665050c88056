package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/docview/internal/pages"
	"github.com/csheth/docview/internal/qa"
)

// DocumentLoader produces the document shown by the viewer.
type DocumentLoader func(ctx context.Context) (*pages.Document, error)

func loadDocumentJob(load DocumentLoader, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		doc, err := load(ctx)
		return documentResultMsg{doc: doc, err: err}, err
	}
}

func askQuestionJob(session *qa.Session, ticket qa.Ticket, timeout time.Duration) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		resp, err := session.Ask(ctx, ticket)
		return answerResultMsg{ticket: ticket, resp: resp, err: err}, err
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForVisibility blocks on the next visibility change. A closed
// channel ends the subscription.
func waitForVisibility(changes <-chan bool) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		visible, ok := <-changes
		return visibilityMsg{visible: visible, closed: !ok}
	}
}
