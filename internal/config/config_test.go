package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func envMap(vals map[string]string) func(string) string {
	return func(k string) string { return vals[k] }
}

// fakeGetter is a minimal batch paramstore stub keyed by parameter name.
type fakeGetter struct {
	vals  map[string]string
	err   error
	calls [][]string
}

func (f *fakeGetter) GetParameters(_ context.Context, names ...string) (map[string]string, error) {
	f.calls = append(f.calls, names)
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]string{}
	for _, n := range names {
		if v, ok := f.vals[n]; ok {
			out[n] = v
		}
	}
	return out, nil
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load(envMap(nil))
	require.Equal(t, Credentials{}, cfg.Credentials)
	require.Equal(t, DefaultOpenAIModel, cfg.OpenAIModel)
	require.Equal(t, DefaultOpenAIBaseURL, cfg.OpenAIBaseURL)
	require.Equal(t, 150, cfg.MaxTokens)
	require.Equal(t, DefaultGoogleAIEndpoint, cfg.GoogleAIEndpoint)
	require.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	require.Empty(t, cfg.ParamPrefix)
	require.Empty(t, cfg.SuggestionTable)
}

func TestLoad_NilGetenv(t *testing.T) {
	cfg := Load(nil)
	require.Equal(t, DefaultMaxTokens, cfg.MaxTokens)
}

func TestLoad_Overrides(t *testing.T) {
	cfg := Load(envMap(map[string]string{
		"OPENAI_API_KEY":       " sk-test ",
		"GOOGLE_AI_API_KEY":    "g-test",
		"OPENAI_MODEL":         "gpt-4o-mini",
		"OPENAI_BASE_URL":      "http://localhost:8080",
		"MAX_TOKENS":           "64",
		"GOOGLE_AI_ENDPOINT":   "http://localhost:9090/suggest",
		"HTTP_TIMEOUT_SECONDS": "3",
		"PARAM_PREFIX":         "/suggestion-agent/",
		"SUGGESTION_TABLE":     "suggestions",
	}))
	require.Equal(t, Credentials{OpenAIKey: "sk-test", GoogleAIKey: "g-test"}, cfg.Credentials)
	require.Equal(t, "gpt-4o-mini", cfg.OpenAIModel)
	require.Equal(t, "http://localhost:8080", cfg.OpenAIBaseURL)
	require.Equal(t, 64, cfg.MaxTokens)
	require.Equal(t, "http://localhost:9090/suggest", cfg.GoogleAIEndpoint)
	require.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	require.Equal(t, "/suggestion-agent", cfg.ParamPrefix)
	require.Equal(t, "suggestions", cfg.SuggestionTable)
}

func TestLoad_InvalidIntsFallBackToDefaults(t *testing.T) {
	cfg := Load(envMap(map[string]string{
		"MAX_TOKENS":           "lots",
		"HTTP_TIMEOUT_SECONDS": "-1",
	}))
	require.Equal(t, DefaultMaxTokens, cfg.MaxTokens)
	require.Equal(t, DefaultHTTPTimeout, cfg.HTTPTimeout)
}

func TestResolveCredentials_FillsOnlyMissing(t *testing.T) {
	g := &fakeGetter{vals: map[string]string{
		"/prefix/google-ai-token": `{"token":"g-from-ssm"}`,
		"/prefix/open-ai-token":   `{"token":"sk-from-ssm"}`,
	}}
	creds := ResolveCredentials(context.Background(), g, "/prefix/", Credentials{OpenAIKey: "sk-env"}, nil)
	require.Equal(t, Credentials{OpenAIKey: "sk-env", GoogleAIKey: "g-from-ssm"}, creds)
	require.Equal(t, [][]string{{"/prefix/google-ai-token"}}, g.calls)
}

func TestResolveCredentials_SingleBatchForBothKeys(t *testing.T) {
	g := &fakeGetter{vals: map[string]string{
		"/prefix/google-ai-token": `{"token":"g-from-ssm"}`,
		"/prefix/open-ai-token":   `{"token":"sk-from-ssm"}`,
	}}
	creds := ResolveCredentials(context.Background(), g, "/prefix", Credentials{}, nil)
	require.Equal(t, Credentials{OpenAIKey: "sk-from-ssm", GoogleAIKey: "g-from-ssm"}, creds)
	require.Equal(t, [][]string{{"/prefix/google-ai-token", "/prefix/open-ai-token"}}, g.calls)
}

func TestResolveCredentials_InvalidOrMissingParamsLeaveEmpty(t *testing.T) {
	g := &fakeGetter{vals: map[string]string{
		"/prefix/open-ai-token": `{"broken`,
	}}
	creds := ResolveCredentials(context.Background(), g, "/prefix", Credentials{}, nil)
	require.Equal(t, Credentials{}, creds)
}

func TestResolveCredentials_LookupFailureLeavesEmpty(t *testing.T) {
	g := &fakeGetter{err: errors.New("ssm unavailable")}
	creds := ResolveCredentials(context.Background(), g, "/prefix", Credentials{}, nil)
	require.Equal(t, Credentials{}, creds)
	require.Len(t, g.calls, 1)
}

func TestResolveCredentials_SkipsLookup(t *testing.T) {
	g := &fakeGetter{}
	creds := ResolveCredentials(context.Background(), g, " ", Credentials{}, nil)
	require.Equal(t, Credentials{}, creds)
	require.Empty(t, g.calls)

	creds = ResolveCredentials(context.Background(), g, "/prefix", Credentials{OpenAIKey: "a", GoogleAIKey: "b"}, nil)
	require.Equal(t, Credentials{OpenAIKey: "a", GoogleAIKey: "b"}, creds)
	require.Empty(t, g.calls)

	creds = ResolveCredentials(context.Background(), nil, "/prefix", Credentials{}, nil)
	require.Equal(t, Credentials{}, creds)
}

func TestDecodeToken(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr string
	}{
		{name: "json token", raw: `{"token":"sk-json"}`, want: "sk-json"},
		{name: "missing token field", raw: `{"other":"v"}`, wantErr: "is empty"},
		{name: "malformed json", raw: `{"broken`, wantErr: "unmarshal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeToken("/p/t", tc.raw)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
