package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"hermannm.dev/devlog/log"
	"hermannm.dev/leadquery/config"
	"hermannm.dev/wrap"
)

// GeminiClient implements Service with the Gemini generateContent API.
type GeminiClient struct {
	config config.Generation
	client *http.Client
}

func NewGeminiClient(config config.Generation) GeminiClient {
	config.Endpoint = strings.TrimSuffix(config.Endpoint, "/")
	return GeminiClient{config: config, client: &http.Client{Timeout: config.Timeout}}
}

func (gemini GeminiClient) Available() bool {
	return gemini.config.APIKey != ""
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (gemini GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if !gemini.Available() {
		return "", errors.New("Gemini API key not configured")
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", wrap.Error(err, "failed to serialize Gemini request")
	}

	url := fmt.Sprintf("%s/%s:generateContent", gemini.config.Endpoint, gemini.config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", wrap.Error(err, "failed to create Gemini request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", gemini.config.APIKey)

	log.Debug(
		"sending Gemini request",
		slog.String("model", gemini.config.Model),
		slog.Int("promptLength", len(prompt)),
	)

	res, err := gemini.client.Do(req)
	if err != nil {
		return "", wrap.Error(err, "Gemini request failed")
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", wrap.Error(err, "failed to read Gemini response")
	}

	var response geminiResponse
	if err := json.Unmarshal(resBody, &response); err != nil {
		if res.StatusCode != http.StatusOK {
			return "", fmt.Errorf("Gemini returned status %d: %s", res.StatusCode, truncate(string(resBody), 200))
		}
		return "", wrap.Error(err, "failed to parse Gemini response")
	}

	if response.Error != nil {
		return "", fmt.Errorf("Gemini error %d: %s", response.Error.Code, response.Error.Message)
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini returned status %d", res.StatusCode)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("Gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	return text.String(), nil
}

func truncate(str string, maxLength int) string {
	if len(str) <= maxLength {
		return str
	}
	for maxLength > 0 && !utf8.RuneStart(str[maxLength]) {
		maxLength--
	}
	return str[:maxLength] + "..."
}
