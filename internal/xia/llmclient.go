// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package xia

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/config"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/logging"
	"github.com/fazal-lab/Platform-Console-Studio-Screen/internal/metrics"
)

// ErrChatLLMUnavailable is returned when the chat backend is down or the
// circuit breaker is open. Callers fall back to typed defaults.
var ErrChatLLMUnavailable = errors.New("xia: chat llm unavailable")

const (
	defaultChatBaseURL = "https://api.groq.com/openai/v1"
	defaultChatModel   = "llama-3.3-70b-versatile"
)

// Completer is the narrow LLM surface the pipeline calls. Tests substitute
// a scripted implementation.
type Completer interface {
	Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error)
}

// Message is one chat-completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string     `json:"model"`
	Messages       []Message  `json:"messages"`
	Temperature    float64    `json:"temperature"`
	MaxTokens      int        `json:"max_tokens"`
	ResponseFormat respFormat `json:"response_format"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatCompletion struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ChatClient talks to an OpenAI-compatible chat completions endpoint. Every
// call requests strict JSON output.
type ChatClient struct {
	cfg     config.ChatLLMConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewChatClient builds the conversational LLM client.
func NewChatClient(cfg config.ChatLLMConfig) *ChatClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultChatBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultChatModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	settings := gobreaker.Settings{
		Name: "chat-llm",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		Timeout: 30 * time.Second,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Chat LLM circuit breaker state change")
			metrics.RecordBreakerStateChange(name, from.String(), to.String())
		},
	}

	return &ChatClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// Complete sends one chat completion request and returns the raw response
// text, expected to be a JSON object.
func (c *ChatClient) Complete(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:          c.cfg.Model,
		Messages:       messages,
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		ResponseFormat: respFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("chat llm status %d: %s", resp.StatusCode, truncate(string(data), 200))
		}
		return data, nil
	})
	metrics.RecordBreakerRequest("chat-llm", err)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrChatLLMUnavailable, err)
	}

	var completion chatCompletion
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if completion.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrChatLLMUnavailable, completion.Error.Message)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", ErrChatLLMUnavailable)
	}

	logging.Debug().
		Dur("latency", time.Since(start)).
		Int("prompt_tokens", completion.Usage.PromptTokens).
		Int("completion_tokens", completion.Usage.CompletionTokens).
		Str("model", c.cfg.Model).
		Msg("Chat LLM call completed")
	return completion.Choices[0].Message.Content, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
