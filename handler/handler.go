package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"suggestion-agent/internal/domain"
	"suggestion-agent/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"
	suggestPath       = "/suggest"
	recordsPrefix     = "/suggestions/"
)

type UseCase interface {
	Suggest(ctx context.Context, in usecase.SuggestInput) (usecase.SuggestOutput, error)
	Lookup(ctx context.Context, requestID string) (domain.SuggestionRecord, error)
}

type suggestRequest struct {
	Prompt string `json:"prompt"`
}

type suggestResponse struct {
	RequestID  string  `json:"requestId"`
	Suggestion *string `json:"suggestion"`
	Provider   string  `json:"provider,omitempty"`
}

type attemptResponse struct {
	Provider string `json:"provider"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

type recordResponse struct {
	RequestID  string            `json:"requestId"`
	Prompt     string            `json:"prompt"`
	Suggestion *string           `json:"suggestion"`
	Provider   string            `json:"provider,omitempty"`
	Status     string            `json:"status"`
	CreatedAt  string            `json:"createdAt,omitempty"`
	Attempts   []attemptResponse `json:"attempts"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	uc UseCase
}

func NewHandler(uc UseCase) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	return &Handler{uc: uc}, nil
}

// Handle serves API Gateway proxy events for POST /suggest and
// GET /suggestions/{id}.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(event.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	logger := slog.With("correlationId", correlationID, "method", event.HTTPMethod, "path", event.Path)

	switch {
	case event.HTTPMethod == http.MethodPost && event.Path == suggestPath:
		return h.handleSuggest(ctx, logger, correlationID, event.Body), nil
	case event.HTTPMethod == http.MethodGet && strings.HasPrefix(event.Path, recordsPrefix):
		id := event.PathParameters["id"]
		if id == "" {
			id = strings.TrimPrefix(event.Path, recordsPrefix)
		}
		return h.handleLookup(ctx, logger, correlationID, id), nil
	default:
		return jsonResponse(http.StatusNotFound, correlationID, errorResponse{Error: "NOT_FOUND"}), nil
	}
}

func (h *Handler) handleSuggest(ctx context.Context, logger *slog.Logger, correlationID, body string) events.APIGatewayProxyResponse {
	var req suggestRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		logger.Info("rejected malformed suggest request", "err", err)
		return jsonResponse(http.StatusBadRequest, correlationID, errorResponse{Error: string(usecase.ErrorInvalidInput)})
	}

	out, err := h.uc.Suggest(ctx, usecase.SuggestInput{Prompt: req.Prompt})
	if err != nil {
		return errorFromUseCase(logger, correlationID, err)
	}
	logger.Info("suggest request completed", "requestId", out.RequestID, "answered", out.Suggestion != nil, "provider", out.Provider)
	return jsonResponse(http.StatusOK, correlationID, suggestResponse{
		RequestID:  out.RequestID,
		Suggestion: out.Suggestion,
		Provider:   out.Provider,
	})
}

func (h *Handler) handleLookup(ctx context.Context, logger *slog.Logger, correlationID, requestID string) events.APIGatewayProxyResponse {
	rec, err := h.uc.Lookup(ctx, requestID)
	if err != nil {
		return errorFromUseCase(logger, correlationID, err)
	}

	resp := recordResponse{
		RequestID: rec.RequestID,
		Prompt:    rec.Prompt,
		Provider:  rec.Provider,
		Status:    rec.Status,
		CreatedAt: rec.CreatedAt,
		Attempts:  make([]attemptResponse, 0, len(rec.Attempts)),
	}
	if rec.Status == domain.StatusAnswered {
		s := rec.Suggestion
		resp.Suggestion = &s
	}
	for _, a := range rec.Attempts {
		resp.Attempts = append(resp.Attempts, attemptResponse{Provider: a.Provider, OK: a.OK, Error: a.Error})
	}
	return jsonResponse(http.StatusOK, correlationID, resp)
}

func errorFromUseCase(logger *slog.Logger, correlationID string, err error) events.APIGatewayProxyResponse {
	code := usecase.ErrorInternal
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		code = ucErr.Code
	}

	status := http.StatusInternalServerError
	switch code {
	case usecase.ErrorInvalidInput:
		status = http.StatusBadRequest
	case usecase.ErrorNotFound:
		status = http.StatusNotFound
	case usecase.ErrorNotConfigured:
		status = http.StatusNotImplemented
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", code, "err", err)
	} else {
		logger.Info("request rejected", "code", code, "err", err)
	}
	return jsonResponse(status, correlationID, errorResponse{Error: string(code)})
}

func jsonResponse(status int, correlationID string, body any) events.APIGatewayProxyResponse {
	buf, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		buf = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: string(buf),
	}
}

// headerValue looks up name case-insensitively; API Gateway preserves client casing.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
