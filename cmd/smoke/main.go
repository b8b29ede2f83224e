// Command smoke sends one fixed prompt through the suggestion client and
// prints what came back. Placeholder credentials are used for any key the
// environment does not set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"suggestion-agent/internal/config"
	"suggestion-agent/internal/suggest"
)

const defaultPrompt = "How can I improve my email communication?"

var placeholders = map[string]string{
	"OPENAI_API_KEY":    "test_openai_key",
	"GOOGLE_AI_API_KEY": "test_google_ai_key",
}

func main() {
	prompt := flag.String("prompt", defaultPrompt, "prompt to send")
	flag.Parse()

	getenv := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return placeholders[key]
	}
	cfg := config.Load(getenv)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client, err := suggest.NewFromConfig(cfg, logger)
	if err != nil {
		logger.Error("failed to create suggestion client", "err", err)
		os.Exit(1)
	}

	fmt.Println("Testing with input:", *prompt)
	s, ok := client.GetSuggestion(context.Background(), *prompt)
	if !ok {
		fmt.Println("Suggestion received: <none>")
		return
	}
	fmt.Printf("Suggestion received (%s): %s\n", s.Provider, s.Text)
}
