// Package qa manages question submission against the QA service, keeps the
// ranked answers, and resolves a chosen answer back to its page text.
package qa

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/csheth/docview/internal/highlight"
	"github.com/csheth/docview/internal/pages"
	"github.com/csheth/docview/internal/service"
)

// FailureMessage is shown to the reader when the QA call fails.
const FailureMessage = "Failed to get answer. Please try again."

// ErrEmptyQuestion is returned for blank questions; no request is made.
var ErrEmptyQuestion = errors.New("question is empty")

// Asker is the part of the service client the session needs.
type Asker interface {
	Ask(ctx context.Context, question string, contents []string) (service.QnAResponse, error)
}

// Answer is one returned answer tagged with the page it came from. Start
// and End are character offsets into that page's text.
type Answer struct {
	Text               string
	SupportingSentence string
	Start              int
	End                int
	Page               string
}

// Selection is an answer opened against the text of its origin page.
type Selection struct {
	Answer   Answer
	PageText string
	Segments highlight.Segments
}

// Ticket identifies one submission. Results are applied only for the
// latest ticket.
type Ticket struct {
	Seq      uint64
	Question string
	Contents []string

	pages pages.Collection
}

// Session holds the question panel state. It is driven from a single
// event loop and is not safe for concurrent use.
type Session struct {
	asker Asker
	log   *slog.Logger

	question   string
	primary    string
	hasPrimary bool
	contexts   []Answer
	pages      pages.Collection
	loading    bool
	errMsg     string
	seq        uint64
	selection  *Selection
}

// NewSession returns an empty session backed by asker.
func NewSession(asker Asker, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{asker: asker, log: log}
}

// Begin validates question and prepares a request carrying every page's
// text in natural order. Blank questions return ErrEmptyQuestion and leave
// earlier answers untouched.
func (s *Session) Begin(question string, collection pages.Collection) (Ticket, error) {
	s.question = question
	if strings.TrimSpace(question) == "" {
		return Ticket{}, ErrEmptyQuestion
	}
	s.seq++
	s.loading = true
	s.errMsg = ""
	return Ticket{
		Seq:      s.seq,
		Question: question,
		Contents: collection.Texts(),
		pages:    collection,
	}, nil
}

// Complete applies the outcome of a request and reports whether it was
// applied. Responses for anything but the latest ticket are dropped. A
// failure keeps the previous answers and sets the error message.
func (s *Session) Complete(t Ticket, resp service.QnAResponse, err error) bool {
	if t.Seq == 0 || t.Seq != s.seq {
		s.log.Info("dropping stale answer", "seq", t.Seq, "latest", s.seq)
		return false
	}
	s.loading = false
	if err != nil {
		s.errMsg = FailureMessage
		s.log.Error("question failed", "question", t.Question, "error", err)
		return true
	}
	answers := Flatten(resp)
	s.pages = t.pages
	if len(answers) == 0 {
		s.primary = ""
		s.hasPrimary = false
		s.contexts = nil
		return true
	}
	s.primary = answers[0].Text
	s.hasPrimary = true
	s.contexts = answers
	return true
}

// Submit runs Begin, the service call and Complete in one step.
func (s *Session) Submit(ctx context.Context, question string, collection pages.Collection) error {
	ticket, err := s.Begin(question, collection)
	if err != nil {
		return err
	}
	resp, err := s.asker.Ask(ctx, ticket.Question, ticket.Contents)
	s.Complete(ticket, resp, err)
	return err
}

// Ask performs the service call for a ticket without touching session
// state, so it can run off the event loop.
func (s *Session) Ask(ctx context.Context, t Ticket) (service.QnAResponse, error) {
	return s.asker.Ask(ctx, t.Question, t.Contents)
}

// Flatten lists the answers page group by page group, keeping the
// service's order within and across groups.
func Flatten(resp service.QnAResponse) []Answer {
	var out []Answer
	for _, group := range resp {
		for _, a := range group.Answers {
			out = append(out, Answer{
				Text:               a.Answer,
				SupportingSentence: a.SupportingSentence,
				Start:              a.Position[0],
				End:                a.Position[1],
				Page:               group.Page,
			})
		}
	}
	return out
}

// SelectContext opens a highlight of a onto its origin page. It does
// nothing and returns false when that page is unknown or has no text.
func (s *Session) SelectContext(a Answer) bool {
	text, ok := s.pages.Lookup(a.Page)
	if !ok || text == "" {
		return false
	}
	s.selection = &Selection{
		Answer:   a,
		PageText: text,
		Segments: highlight.Split(text, a.Start, a.End),
	}
	return true
}

// CloseSelection discards the open highlight.
func (s *Session) CloseSelection() { s.selection = nil }

func (s *Session) Question() string { return s.question }

// PrimaryAnswer returns the first answer of the latest successful request.
func (s *Session) PrimaryAnswer() (string, bool) { return s.primary, s.hasPrimary }

// SupportingContexts returns every answer, the primary one included.
func (s *Session) SupportingContexts() []Answer {
	return append([]Answer(nil), s.contexts...)
}

func (s *Session) Loading() bool { return s.loading }

// Error returns the user-facing failure message, if any.
func (s *Session) Error() string { return s.errMsg }

func (s *Session) Selection() *Selection { return s.selection }
