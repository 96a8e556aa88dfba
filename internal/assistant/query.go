package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/eparchi/eparchi/internal/platform/vectorstore"
)

// ErrEmptyScope is returned when a query arrives without any retrieval
// scope. Unscoped retrieval would search across every patient's records, so
// it is refused outright.
var ErrEmptyScope = errors.New("query scope is required")

// Scope restricts retrieval to one patient or one document. PatientID wins
// when both are set.
type Scope struct {
	PatientID string
	FileID    string
}

func (s Scope) empty() bool {
	return s.PatientID == "" && s.FileID == ""
}

func (s Scope) filter() vectorstore.Filter {
	if s.PatientID != "" {
		return vectorstore.Filter{Key: vectorstore.MetaPatientID, Value: s.PatientID}
	}
	return vectorstore.Filter{Key: vectorstore.MetaFileID, Value: s.FileID}
}

// QueryResult carries the assistant's answer. Upstream failures are
// reported in-band via Status, same as UploadResult.
type QueryResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Answer  string `json:"ai_response,omitempty"`
	Source  string `json:"source_document,omitempty"`
}

// Querier answers doctor questions over a patient's indexed records.
type Querier struct {
	ai      AI
	vectors vectorstore.Store
	topK    int
	log     zerolog.Logger
}

func NewQuerier(ai AI, vectors vectorstore.Store, topK int, log zerolog.Logger) *Querier {
	if topK <= 0 {
		topK = 3
	}
	return &Querier{ai: ai, vectors: vectors, topK: topK, log: log}
}

// Answer embeds the question, retrieves the top matches within scope,
// stuffs them into the answer prompt, and returns the model's reply with
// the top match's source filename attached. An empty scope is an input
// error; everything downstream is caught into an error-status result.
func (q *Querier) Answer(ctx context.Context, question string, scope Scope) (*QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("question is required")
	}
	if scope.empty() {
		return nil, ErrEmptyScope
	}

	vec, err := q.ai.Embed(ctx, question)
	if err != nil {
		q.log.Error().Err(err).Msg("question embedding failed")
		return &QueryResult{Status: StatusError, Message: err.Error()}, nil
	}

	matches, err := q.vectors.Search(ctx, vec, q.topK, scope.filter())
	if err != nil {
		q.log.Error().Err(err).Msg("vector search failed")
		return &QueryResult{Status: StatusError, Message: err.Error()}, nil
	}

	contexts := make([]string, 0, len(matches))
	for _, m := range matches {
		contexts = append(contexts, m.Record.Text)
	}

	raw, err := q.ai.Complete(ctx, queryPrompt(strings.Join(contexts, "\n\n"), question))
	if err != nil {
		q.log.Error().Err(err).Msg("answer generation failed")
		return &QueryResult{Status: StatusError, Message: err.Error()}, nil
	}

	var source string
	if len(matches) > 0 {
		source = matches[0].Record.Metadata[vectorstore.MetaSource]
	}

	q.log.Info().Int("matches", len(matches)).Str("source", source).Msg("query answered")

	return &QueryResult{
		Status: StatusSuccess,
		Answer: stripFences(raw),
		Source: source,
	}, nil
}
