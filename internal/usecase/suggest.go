package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"suggestion-agent/internal/domain"
	"suggestion-agent/internal/repository"
	"suggestion-agent/internal/suggest"
)

type Suggester interface {
	Resolve(ctx context.Context, prompt string) suggest.Outcome
}

// Recorder persists and reads back suggestion outcomes.
type Recorder interface {
	SaveOutcome(ctx context.Context, rec domain.SuggestionRecord) error
	GetRecord(ctx context.Context, requestID string) (domain.SuggestionRecord, error)
}

type SuggestService struct {
	suggester Suggester
	recorder  Recorder
	logger    *slog.Logger
}

type SuggestInput struct {
	Prompt string
}

// SuggestOutput carries a nil Suggestion when no provider produced one.
type SuggestOutput struct {
	RequestID  string
	Suggestion *string
	Provider   string
}

// NewSuggestService wires the service. recorder may be nil, in which case
// outcomes are not persisted and Lookup reports NOT_CONFIGURED.
func NewSuggestService(s Suggester, recorder Recorder, logger *slog.Logger) (*SuggestService, error) {
	if s == nil {
		return nil, errors.New("usecase: suggester must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SuggestService{suggester: s, recorder: recorder, logger: logger}, nil
}

// Suggest resolves the prompt as given. Provider failures yield a nil
// suggestion, never an error.
func (s *SuggestService) Suggest(ctx context.Context, in SuggestInput) (SuggestOutput, error) {
	requestID := newUUID()
	outcome := s.suggester.Resolve(ctx, in.Prompt)

	out := SuggestOutput{RequestID: requestID}
	if outcome.OK {
		text := outcome.Suggestion.Text
		out.Suggestion = &text
		out.Provider = outcome.Suggestion.Provider
	}

	if s.recorder != nil {
		rec := toRecord(requestID, in.Prompt, outcome)
		if err := s.recorder.SaveOutcome(ctx, rec); err != nil {
			s.logger.WarnContext(ctx, "failed to record suggestion outcome", "requestId", requestID, "err", err)
		}
	}
	return out, nil
}

// Lookup returns the audit record for a previous request.
func (s *SuggestService) Lookup(ctx context.Context, requestID string) (domain.SuggestionRecord, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return domain.SuggestionRecord{}, newError(ErrorInvalidInput, "empty_request_id", nil)
	}
	if s.recorder == nil {
		return domain.SuggestionRecord{}, newError(ErrorNotConfigured, "suggestion_log_disabled", nil)
	}
	rec, err := s.recorder.GetRecord(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.SuggestionRecord{}, newError(ErrorNotFound, "record_not_found", err)
		}
		return domain.SuggestionRecord{}, newError(ErrorInternal, "dynamodb_read_error", err)
	}
	return rec, nil
}

func toRecord(requestID, prompt string, outcome suggest.Outcome) domain.SuggestionRecord {
	rec := repository.NewRecord(requestID, prompt)
	if outcome.OK {
		rec.Status = domain.StatusAnswered
		rec.Suggestion = outcome.Suggestion.Text
		rec.Provider = outcome.Suggestion.Provider
	}
	for _, a := range outcome.Attempts {
		pa := domain.ProviderAttempt{Provider: a.Provider, OK: a.OK()}
		if a.Err != nil {
			pa.Error = a.Err.Error()
		}
		rec.Attempts = append(rec.Attempts, pa)
	}
	return rec
}

var newUUID = func() string {
	return uuid.NewString()
}
