// Package openai implements the service.Analyzer interface on top of the
// OpenAI chat completions API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ThamerD/JappTracker/internal/service"
)

const (
	defaultAPIURL = "https://api.openai.com/v1/chat/completions"

	// Classification is cheap; extraction gets the stronger model.
	defaultClassifyModel = "gpt-4o-mini"
	defaultExtractModel  = "gpt-4o"

	// Prompt bodies are truncated so one oversized newsletter does not blow
	// the token budget.
	classifyBodyLimit = 2000
	extractBodyLimit  = 3000
)

type Client struct {
	apiKey        string
	apiURL        string
	classifyModel string
	extractModel  string
	httpClient    *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used in tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.apiURL = url }
}

// WithModels overrides the classification and extraction models.
func WithModels(classify, extract string) Option {
	return func(c *Client) {
		c.classifyModel = classify
		c.extractModel = extract
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:        apiKey,
		apiURL:        defaultAPIURL,
		classifyModel: defaultClassifyModel,
		extractModel:  defaultExtractModel,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify asks the model whether the email is job-application related and
// with what confidence.
func (c *Client) Classify(ctx context.Context, msg service.EmailMessage) (service.Classification, error) {
	prompt := fmt.Sprintf(`Analyze the following email and determine if it is related to a job application (an application submission confirmation, interview invitation, rejection, or any job application status update).

Email Subject: %s

Email Body:
%s

Return a strict JSON object with exactly these keys:
{"job_related": true or false, "confidence": a number between 0.0 and 1.0}

ONLY return valid JSON, no additional text.`, msg.Subject, truncate(msg.BodyText, classifyBodyLimit))

	content, err := c.complete(ctx, c.classifyModel, prompt, false)
	if err != nil {
		return service.Classification{}, err
	}

	var result struct {
		JobRelated bool    `json:"job_related"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(cleanJSONResponse(content)), &result); err != nil {
		return service.Classification{}, fmt.Errorf("parse classification JSON: %w (response: %s)", err, content)
	}

	return service.Classification{
		JobRelated: result.JobRelated,
		Confidence: result.Confidence,
	}, nil
}

// Extract asks the model for the structured field set. Values come back as
// raw strings; normalization is the Extractor's job.
func (c *Client) Extract(ctx context.Context, msg service.EmailMessage) (service.ExtractedFields, error) {
	prompt := fmt.Sprintf(`Extract job application information from this email.

Email Subject: %s
Email Date: %s

Email Body:
%s

Extract the following:
1. role: the job title / position name
2. organization: the employer / company name
3. job_description_link: a URL to the job posting if mentioned, otherwise null
4. status: one of "Applied" (application submitted), "Interview" (interview invitation or scheduling), "Rejected" (rejection notification). Default to "Applied" if unclear.
5. date: the date the application was submitted, format YYYY-MM-DD (use the email date if not found)
6. notes: any short noteworthy detail explicitly present in the email, otherwise null

Return a JSON object with the keys: role, organization, job_description_link, status, date, notes.
Use null for anything that cannot be found (except status, which defaults to "Applied").

ONLY return valid JSON, no additional text or explanation.`,
		msg.Subject, msg.ReceivedAt.Format("2006-01-02"), truncate(msg.BodyText, extractBodyLimit))

	content, err := c.complete(ctx, c.extractModel, prompt, true)
	if err != nil {
		return service.ExtractedFields{}, err
	}

	var result struct {
		Role               string `json:"role"`
		Organization       string `json:"organization"`
		JobDescriptionLink string `json:"job_description_link"`
		Status             string `json:"status"`
		Date               string `json:"date"`
		Notes              string `json:"notes"`
	}
	if err := json.Unmarshal([]byte(cleanJSONResponse(content)), &result); err != nil {
		return service.ExtractedFields{}, fmt.Errorf("parse extraction JSON: %w (response: %s)", err, content)
	}

	return service.ExtractedFields{
		Role:               result.Role,
		Organization:       result.Organization,
		JobDescriptionLink: result.JobDescriptionLink,
		Status:             result.Status,
		Date:               result.Date,
		Notes:              result.Notes,
	}, nil
}

// complete sends one chat completion request and returns the reply content.
func (c *Client) complete(ctx context.Context, model, prompt string, jsonMode bool) (string, error) {
	reqBody := chatRequest{
		Model:       model,
		Temperature: 0.1,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}
	if jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var apiResp chatResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("parse API response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return apiResp.Choices[0].Message.Content, nil
}

// cleanJSONResponse strips markdown fences and surrounding prose from an LLM
// reply, keeping the first top-level JSON object.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)

	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx == -1 || endIdx == -1 || startIdx > endIdx {
		// No JSON object found; let the caller's parser report it.
		return content
	}

	return strings.TrimSpace(content[startIdx : endIdx+1])
}

// truncate cuts s to at most max bytes without splitting a UTF-8 rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
