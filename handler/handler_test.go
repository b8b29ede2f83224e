package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"suggestion-agent/internal/domain"
	"suggestion-agent/internal/usecase"
)

type stubUseCase struct {
	out      usecase.SuggestOutput
	err      error
	in       usecase.SuggestInput
	record   domain.SuggestionRecord
	lookupID string
}

func (s *stubUseCase) Suggest(_ context.Context, in usecase.SuggestInput) (usecase.SuggestOutput, error) {
	s.in = in
	return s.out, s.err
}

func (s *stubUseCase) Lookup(_ context.Context, requestID string) (domain.SuggestionRecord, error) {
	s.lookupID = requestID
	return s.record, s.err
}

func makeEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/suggest",
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func makeLookupEvent(id string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod:     http.MethodGet,
		Path:           "/suggestions/" + id,
		Headers:        map[string]string{},
		PathParameters: map[string]string{"id": id},
	}
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func strPtr(s string) *string { return &s }

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestHandle_Suggest_HappyPath(t *testing.T) {
	uc := &stubUseCase{out: usecase.SuggestOutput{RequestID: "req-1", Suggestion: strPtr("Use clear subject lines."), Provider: "openai"}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`{"prompt":"How can I improve my email communication?"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, usecase.SuggestInput{Prompt: "How can I improve my email communication?"}, uc.in)

	out := parseBody[suggestResponse](t, resp.Body)
	require.Equal(t, "req-1", out.RequestID)
	require.Equal(t, "Use clear subject lines.", *out.Suggestion)
	require.Equal(t, "openai", out.Provider)
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])
}

func TestHandle_Suggest_AbsentIsNull(t *testing.T) {
	uc := &stubUseCase{out: usecase.SuggestOutput{RequestID: "req-2"}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`{"prompt":""}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"requestId":"req-2","suggestion":null}`, resp.Body)
	require.Equal(t, usecase.SuggestInput{Prompt: ""}, uc.in)
}

func TestHandle_Suggest_InvalidBody(t *testing.T) {
	h, err := NewHandler(&stubUseCase{})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(`not-json`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out := parseBody[errorResponse](t, resp.Body)
	require.Equal(t, string(usecase.ErrorInvalidInput), out.Error)
}

func TestHandle_Lookup_HappyPath(t *testing.T) {
	uc := &stubUseCase{record: domain.SuggestionRecord{
		RequestID:  "req-1",
		Prompt:     "p",
		Suggestion: "Try bullet points.",
		Provider:   "googleai",
		Status:     domain.StatusAnswered,
		Attempts: []domain.ProviderAttempt{
			{Provider: "openai", Error: "auth"},
			{Provider: "googleai", OK: true},
		},
	}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeLookupEvent("req-1"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "req-1", uc.lookupID)

	out := parseBody[recordResponse](t, resp.Body)
	require.Equal(t, "Try bullet points.", *out.Suggestion)
	require.Equal(t, domain.StatusAnswered, out.Status)
	require.Len(t, out.Attempts, 2)
	require.Equal(t, "auth", out.Attempts[0].Error)
	require.True(t, out.Attempts[1].OK)
}

func TestHandle_Lookup_AbsentRecordHasNullSuggestion(t *testing.T) {
	uc := &stubUseCase{record: domain.SuggestionRecord{RequestID: "req-3", Prompt: "p", Status: domain.StatusAbsent}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	event := makeLookupEvent("req-3")
	event.PathParameters = nil
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "req-3", uc.lookupID)

	out := parseBody[recordResponse](t, resp.Body)
	require.Nil(t, out.Suggestion)
	require.Empty(t, out.Attempts)
}

func TestHandle_MapsUseCaseErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "invalid input", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_request_id"}, status: http.StatusBadRequest, code: string(usecase.ErrorInvalidInput)},
		{name: "not found", err: &usecase.Error{Code: usecase.ErrorNotFound, Reason: "record_not_found"}, status: http.StatusNotFound, code: string(usecase.ErrorNotFound)},
		{name: "not configured", err: &usecase.Error{Code: usecase.ErrorNotConfigured, Reason: "suggestion_log_disabled"}, status: http.StatusNotImplemented, code: string(usecase.ErrorNotConfigured)},
		{name: "internal", err: &usecase.Error{Code: usecase.ErrorInternal, Reason: "dynamodb_read_error"}, status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: string(usecase.ErrorInternal)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubUseCase{err: tc.err}
			h, err := NewHandler(uc)
			require.NoError(t, err)

			resp, err := h.Handle(context.Background(), makeLookupEvent("req-1"))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			out := parseBody[errorResponse](t, resp.Body)
			require.Equal(t, tc.code, out.Error)
		})
	}
}

func TestHandle_UnknownRoute(t *testing.T) {
	h, err := NewHandler(&stubUseCase{})
	require.NoError(t, err)

	event := makeEvent(`{}`)
	event.Path = "/ask"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	uc := &stubUseCase{out: usecase.SuggestOutput{RequestID: "req-1"}}
	h, err := NewHandler(uc)
	require.NoError(t, err)

	event := makeEvent(`{"prompt":"hi"}`)
	event.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
}
