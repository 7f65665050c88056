// Package stub serves canned backend responses over the real wire format.
// It lets the viewer run without the OCR and QA services and gives the
// client tests a faithful peer. It performs no OCR or answer extraction.
package stub

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/csheth/docview/internal/service"
)

// Fixture is the canned data the stub serves.
type Fixture struct {
	Pages   map[string]string `yaml:"pages"`
	Runs    map[string]string `yaml:"runs"`
	PDFPath string            `yaml:"pdf"`

	// Answers maps a question to its per-page answer groups, in order.
	// Questions are matched case-insensitively after trimming.
	Answers map[string][]AnswerGroup `yaml:"answers"`
	// Default is served for questions without an entry.
	Default []AnswerGroup `yaml:"default"`

	// Failures forces a status code for a route path such as "/qna".
	Failures map[string]int `yaml:"failures"`
}

type AnswerGroup struct {
	Page    string   `yaml:"page"`
	Answers []Answer `yaml:"answers"`
}

type Answer struct {
	Answer             string `yaml:"answer"`
	SupportingSentence string `yaml:"supporting_sentence"`
	Position           [2]int `yaml:"position"`
}

// LoadFixture reads a YAML fixture file. A relative pdf path is resolved
// against the fixture's directory.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, err
	}
	var fix Fixture
	if err := yaml.Unmarshal(data, &fix); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if fix.PDFPath != "" && !filepath.IsAbs(fix.PDFPath) {
		fix.PDFPath = filepath.Join(filepath.Dir(path), fix.PDFPath)
	}
	return fix, nil
}

func (f Fixture) answersFor(question string) service.QnAResponse {
	groups := f.Default
	want := normalizeQuestion(question)
	for q, g := range f.Answers {
		if normalizeQuestion(q) == want {
			groups = g
			break
		}
	}
	resp := make(service.QnAResponse, 0, len(groups))
	for _, group := range groups {
		answers := make([]service.RawAnswer, 0, len(group.Answers))
		for _, a := range group.Answers {
			answers = append(answers, service.RawAnswer{
				Answer:             a.Answer,
				SupportingSentence: a.SupportingSentence,
				Position:           a.Position,
			})
		}
		resp = append(resp, service.PageAnswers{Page: group.Page, Answers: answers})
	}
	return resp
}

func normalizeQuestion(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
