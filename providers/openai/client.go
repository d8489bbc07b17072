// Package openai kapselt den Chat-Completion-Aufruf an das Sprachmodell
// und die daran gebundenen Summarizer-Module.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"paper-shelf/config"
	"paper-shelf/providers"
)

// ErrTimeout meldet, dass der Aufruf die konfigurierte Obergrenze
// überschritten hat.
var ErrTimeout = errors.New("openai: completion timed out")

// ErrMalformedResponse meldet, dass die Modellantwort kein auswertbares
// JSON mit dem Feld "summary" enthielt. Das ist bewusst von Anbieter- und
// Timeout-Fehlern unterschieden.
var ErrMalformedResponse = errors.New("openai: malformed summary payload")

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type summaryPayload struct {
	Summary string `json:"summary"`
}

// Client ist der Summarizer über der Chat-Completions-API. Die Prompt-
// Templates der Module sind zur Konstruktionszeit gebunden; es gibt keinen
// package-weiten veränderlichen Zustand.
type Client struct {
	Config  *config.Config
	Logger  *zap.Logger
	client  *http.Client
	prompts map[providers.SummaryModule]string
}

// NewClient erstellt einen neuen Summarizer-Client.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		Config: cfg,
		Logger: logger,
		client: &http.Client{},
		prompts: map[providers.SummaryModule]string{
			providers.AbstractSummary:      abstractSummaryPrompt,
			providers.AbstractSummaryFinal: abstractSummaryFinalPrompt,
		},
	}
}

// Summarize füllt das Template des Moduls, ruft das Modell mit der
// konfigurierten Zeitobergrenze auf und extrahiert das Summary-Feld aus der
// JSON-Antwort.
func (c *Client) Summarize(ctx context.Context, module providers.SummaryModule, vars providers.SummaryVars) (string, error) {
	prompt, ok := c.prompts[module]
	if !ok {
		return "", fmt.Errorf("openai: unknown summary module %d", module)
	}

	filled := strings.NewReplacer(
		"{{$language}}", vars.Language,
		"{{$abstract}}", vars.Abstract,
		"{{$abstract_list}}", vars.AbstractList,
	).Replace(prompt)

	ctx, cancel := context.WithTimeout(ctx, c.Config.LLMTimeout)
	defer cancel()

	content, err := c.complete(ctx, filled)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.Logger.Warn("LLM-Aufruf hat die Zeitobergrenze überschritten",
				zap.Duration("timeout", c.Config.LLMTimeout))
			return "", ErrTimeout
		}
		return "", err
	}

	var payload summaryPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil || payload.Summary == "" {
		c.Logger.Warn("Modellantwort enthält kein auswertbares Summary-JSON",
			zap.String("content", content))
		return "", ErrMalformedResponse
	}
	return payload.Summary, nil
}

// complete führt einen einzelnen Chat-Completion-Aufruf aus.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.Config.OpenAIModel,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   1500,
		Temperature: 0.5,
		TopP:        0.5,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/chat/completions", strings.TrimRight(c.Config.OpenAIBaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Config.OpenAIAPIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("openai: %s", msg)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != nil && decoded.Error.Message != "" {
		return "", errors.New(decoded.Error.Message)
	}
	if len(decoded.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return decoded.Choices[0].Message.Content, nil
}
