// Package suggest resolves a prompt into a suggestion by asking a primary
// provider and falling back to a secondary provider once.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrEmptySuggestion marks a provider call that succeeded but produced no text.
var ErrEmptySuggestion = errors.New("suggest: provider returned an empty suggestion")

// Primary is the first provider tried.
type Primary interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Secondary is the fallback provider.
type Secondary interface {
	Name() string
	Suggest(ctx context.Context, prompt string) (string, error)
}

// Attempt is the tagged result of one provider call: success when Err is nil.
type Attempt struct {
	Provider string
	Text     string
	Err      error
}

func (a Attempt) OK() bool {
	return a.Err == nil
}

// Suggestion is a non-empty provider answer and the provider that gave it.
type Suggestion struct {
	Text     string
	Provider string
}

// Outcome is the full record of one resolution. OK is false when the
// suggestion is absent.
type Outcome struct {
	Attempts   []Attempt
	Suggestion Suggestion
	OK         bool
}

// Client runs the primary-then-secondary sequence. It holds no per-call
// state and is safe for concurrent use if its providers are.
type Client struct {
	primary   Primary
	secondary Secondary
	logger    *slog.Logger
}

func New(primary Primary, secondary Secondary, logger *slog.Logger) (*Client, error) {
	if primary == nil {
		return nil, errors.New("suggest: primary provider must not be nil")
	}
	if secondary == nil {
		return nil, errors.New("suggest: secondary provider must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{primary: primary, secondary: secondary, logger: logger}, nil
}

// GetSuggestion returns the first non-empty suggestion, or false when
// neither provider produced one. Provider errors are logged, never returned.
func (c *Client) GetSuggestion(ctx context.Context, prompt string) (Suggestion, bool) {
	out := c.Resolve(ctx, prompt)
	return out.Suggestion, out.OK
}

// Resolve makes at most two sequential provider calls and reports each of them.
func (c *Client) Resolve(ctx context.Context, prompt string) Outcome {
	first := c.callPrimary(ctx, prompt)
	if first.OK() {
		return Outcome{
			Attempts:   []Attempt{first},
			Suggestion: Suggestion{Text: first.Text, Provider: first.Provider},
			OK:         true,
		}
	}
	c.logger.WarnContext(ctx, "primary provider failed, falling back",
		"provider", first.Provider,
		"err", first.Err,
	)

	second := c.callSecondary(ctx, prompt)
	out := Outcome{Attempts: []Attempt{first, second}}
	if !second.OK() {
		c.logger.ErrorContext(ctx, "secondary provider failed, no suggestion available",
			"provider", second.Provider,
			"err", second.Err,
		)
		return out
	}
	out.Suggestion = Suggestion{Text: second.Text, Provider: second.Provider}
	out.OK = true
	return out
}

func (c *Client) callPrimary(ctx context.Context, prompt string) Attempt {
	name := c.primary.Name()
	return guard(name, func() (string, error) {
		return c.primary.Complete(ctx, prompt)
	})
}

func (c *Client) callSecondary(ctx context.Context, prompt string) Attempt {
	name := c.secondary.Name()
	return guard(name, func() (string, error) {
		return c.secondary.Suggest(ctx, prompt)
	})
}

// guard turns a provider call into an Attempt. A panic inside the provider is
// recorded as a failure so it never reaches the caller.
func guard(provider string, call func() (string, error)) (a Attempt) {
	a.Provider = provider
	defer func() {
		if r := recover(); r != nil {
			a.Text = ""
			a.Err = fmt.Errorf("suggest: %s panicked: %v", provider, r)
		}
	}()

	text, err := call()
	switch {
	case err != nil:
		a.Err = err
	case text == "":
		a.Err = ErrEmptySuggestion
	default:
		a.Text = text
	}
	return a
}
