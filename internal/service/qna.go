package service

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawAnswer is one answer as returned by the QA endpoint. Position holds
// the [start, end) character offsets of the answer in the page text.
type RawAnswer struct {
	Answer             string `json:"answer"`
	SupportingSentence string `json:"supporting_sentence"`
	Position           [2]int `json:"position"`
}

// PageAnswers groups the answers found on one page.
type PageAnswers struct {
	Page    string
	Answers []RawAnswer
}

// QnAResponse is the QA endpoint's page → answers object. Pages keep the
// order in which they appear in the response body.
type QnAResponse []PageAnswers

// UnmarshalJSON decodes the object key by key so page order survives.
func (r *QnAResponse) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*r = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("qna response: expected object, got %v", tok)
	}
	var out QnAResponse
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("qna response: unexpected key %v", keyTok)
		}
		var answers []RawAnswer
		if err := dec.Decode(&answers); err != nil {
			return fmt.Errorf("qna response: page %s: %w", key, err)
		}
		out = append(out, PageAnswers{Page: key, Answers: answers})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

// MarshalJSON writes the pages back as an object in the same order.
func (r QnAResponse) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, group := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(group.Page)
		if err != nil {
			return nil, err
		}
		answers := group.Answers
		if answers == nil {
			answers = []RawAnswer{}
		}
		value, err := json.Marshal(answers)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
