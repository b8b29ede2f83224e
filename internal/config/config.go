package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultOpenAIModel      = "gpt-3.5-turbo"
	DefaultOpenAIBaseURL    = "https://api.openai.com/v1"
	DefaultMaxTokens        = 150
	DefaultGoogleAIEndpoint = "https://us-language.googleapis.com"
	DefaultHTTPTimeout      = 10 * time.Second

	openAITokenParam   = "/open-ai-token"
	googleAITokenParam = "/google-ai-token"
)

// Credentials holds the provider bearer tokens. It is resolved once at
// startup and never mutated afterwards.
type Credentials struct {
	OpenAIKey   string
	GoogleAIKey string
}

// Config is the process configuration, built once in main and passed down
// by reference.
type Config struct {
	Credentials Credentials

	OpenAIModel      string
	OpenAIBaseURL    string
	MaxTokens        int
	GoogleAIEndpoint string
	HTTPTimeout      time.Duration

	ParamPrefix     string
	SuggestionTable string
}

// Getter reads a batch of parameters by name. Names that do not exist are
// omitted from the returned map.
type Getter interface {
	GetParameters(ctx context.Context, names ...string) (map[string]string, error)
}

// tokenPayload is the expected JSON shape stored in SSM for an API token.
type tokenPayload struct {
	Token string `json:"token"`
}

// Load builds a Config from getenv. An empty credential is not an error here;
// the provider rejects it on the first call.
func Load(getenv func(string) string) Config {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	return Config{
		Credentials: Credentials{
			OpenAIKey:   strings.TrimSpace(getenv("OPENAI_API_KEY")),
			GoogleAIKey: strings.TrimSpace(getenv("GOOGLE_AI_API_KEY")),
		},
		OpenAIModel:      envString(getenv, "OPENAI_MODEL", DefaultOpenAIModel),
		OpenAIBaseURL:    envString(getenv, "OPENAI_BASE_URL", DefaultOpenAIBaseURL),
		MaxTokens:        envInt(getenv, "MAX_TOKENS", DefaultMaxTokens),
		GoogleAIEndpoint: envString(getenv, "GOOGLE_AI_ENDPOINT", DefaultGoogleAIEndpoint),
		HTTPTimeout:      time.Duration(envInt(getenv, "HTTP_TIMEOUT_SECONDS", int(DefaultHTTPTimeout/time.Second))) * time.Second,
		ParamPrefix:      strings.TrimRight(strings.TrimSpace(getenv("PARAM_PREFIX")), "/"),
		SuggestionTable:  strings.TrimSpace(getenv("SUGGESTION_TABLE")),
	}
}

// ResolveCredentials fills any empty credential from the parameter store
// under prefix. Lookup failures are logged and leave the credential empty.
func ResolveCredentials(ctx context.Context, getter Getter, prefix string, creds Credentials, logger *slog.Logger) Credentials {
	if logger == nil {
		logger = slog.Default()
	}
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if getter == nil || prefix == "" {
		return creds
	}

	targets := map[string]*string{}
	if creds.OpenAIKey == "" {
		targets[prefix+openAITokenParam] = &creds.OpenAIKey
	}
	if creds.GoogleAIKey == "" {
		targets[prefix+googleAITokenParam] = &creds.GoogleAIKey
	}
	if len(targets) == 0 {
		return creds
	}

	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)

	values, err := getter.GetParameters(ctx, names...)
	if err != nil {
		logger.Warn("failed to resolve credentials from parameter store", "err", err)
		return creds
	}
	for _, name := range names {
		raw, ok := values[name]
		if !ok {
			logger.Warn("credential parameter not found", "name", name)
			continue
		}
		token, err := DecodeToken(name, raw)
		if err != nil {
			logger.Warn("credential parameter is invalid", "name", name, "err", err)
			continue
		}
		*targets[name] = token
	}
	return creds
}

// DecodeToken decodes the {"token":"..."} payload stored under name.
func DecodeToken(name, raw string) (string, error) {
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("config: unmarshal paramstore token value as JSON: %w", err)
	}
	if tp.Token == "" {
		return "", fmt.Errorf("config: API token %q is empty", name)
	}
	return tp.Token, nil
}

func envString(getenv func(string) string, key, def string) string {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(getenv func(string) string, key string, def int) int {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
