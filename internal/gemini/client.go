// Package gemini implements the Gemini REST client used for all brand
// assistant reasoning: plain completions, history-threaded chat,
// Google Search grounded answers with citations, declared-tool calls,
// and schema-constrained structured output.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"brandos/internal/logging"
	"brandos/internal/types"
)

// ErrNoAPIKey is returned when no credential is configured. Callers
// treat this as a configuration error: static message, no retry.
var ErrNoAPIKey = errors.New("gemini: API key not configured")

const defaultSystemInstruction = "You are an elite Brand Automation Strategist. You help enterprises manage their brand identity, assets, and social media strategy. Provide insights based on the provided company context. Be professional, creative, and concise."

// Client talks to the Gemini generateContent API.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	topK        int
	topP        float64
	httpClient  *http.Client

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient creates a Gemini client. The key may be empty; every call
// then fails with ErrNoAPIKey so the caller can degrade gracefully.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gemini-3-flash-preview"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		topK:        cfg.TopK,
		topP:        cfg.TopP,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether a credential is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Model returns the configured model.
func (c *Client) Model() string {
	return c.model
}

// Complete sends a bare prompt and returns the completion.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a single-turn prompt with a system message.
func (c *Client) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.generate(ctx, c.buildRequest(systemPrompt, []Content{userContent(userPrompt)}, nil, nil))
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

// CompleteDeterministic sends a single-turn prompt at temperature zero.
// Used for intent classification, where sampling jitter would make
// routing unstable.
func (c *Client) CompleteDeterministic(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := c.buildRequest(systemPrompt, []Content{userContent(userPrompt)}, nil, nil)
	zero := 0.0
	req.GenerationConfig.Temperature = &zero
	req.GenerationConfig.TopK = 1
	req.GenerationConfig.TopP = 0

	resp, err := c.generate(ctx, req)
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

// CompleteWithHistory sends the full conversation history plus system
// instruction and returns the completion text.
func (c *Client) CompleteWithHistory(ctx context.Context, systemPrompt string, history []types.ConversationTurn) (string, error) {
	resp, err := c.generate(ctx, c.buildRequest(systemPrompt, historyContents(history), nil, nil))
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

// CompleteWithSearch sends the conversation with Google Search grounding
// enabled and returns the completion text plus extracted citations.
// Citations lacking a resolvable URI are filtered; duplicates collapse.
func (c *Client) CompleteWithSearch(ctx context.Context, systemPrompt string, history []types.ConversationTurn) (string, []types.Citation, error) {
	req := c.buildRequest(systemPrompt, historyContents(history), nil, nil)
	req.Tools = []tool{{GoogleSearch: &googleSearch{}}}

	resp, err := c.generate(ctx, req)
	if err != nil {
		return "", nil, err
	}

	citations := extractCitations(resp)
	logging.APIDebug("[Gemini] search-grounded completion: citations=%d", len(citations))
	return responseText(resp), citations, nil
}

// CompleteWithTools sends the conversation with declared function tools.
// The exchange is stateless: to continue it, pass the same history plus
// the returned tool calls to ResumeWithToolResults. The client holds no
// per-conversation state, so tenants can interleave exchanges freely.
//
// Gemini cannot combine built-in grounding tools with function
// declarations, so this path never enables Google Search.
func (c *Client) CompleteWithTools(ctx context.Context, systemPrompt string, history []types.ConversationTurn, tools []types.ToolDefinition) (*types.LLMToolResponse, error) {
	req := c.buildRequest(systemPrompt, historyContents(history), toolDeclarations(tools), nil)

	resp, err := c.generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return toToolResponse(resp), nil
}

// ResumeWithToolResults continues a tool exchange: history is the same
// conversation given to CompleteWithTools, calls are the tool calls the
// model requested, and results are the caller-computed answers matched
// to them by ID.
func (c *Client) ResumeWithToolResults(ctx context.Context, systemPrompt string, history []types.ConversationTurn, calls []types.ToolCall, results []types.ToolResult, tools []types.ToolDefinition) (*types.LLMToolResponse, error) {
	if len(calls) == 0 {
		return nil, fmt.Errorf("gemini: no tool calls to resume")
	}

	contents := historyContents(history)

	// Replay the model's function-call turn so the follow-up request
	// presents a complete exchange.
	callParts := make([]Part, 0, len(calls))
	for _, tc := range calls {
		callParts = append(callParts, Part{FunctionCall: &FunctionCall{Name: tc.Name, Args: tc.Input}})
	}
	contents = append(contents, Content{Role: "model", Parts: callParts})

	resultsByID := make(map[string]types.ToolResult, len(results))
	for _, tr := range results {
		resultsByID[tr.ToolUseID] = tr
	}

	resultParts := make([]Part, 0, len(results))
	for _, call := range calls {
		tr, ok := resultsByID[call.ID]
		if !ok {
			logging.APIDebug("[Gemini] ResumeWithToolResults: missing result for %s", call.ID)
			continue
		}
		resultParts = append(resultParts, Part{
			FunctionResponse: &FunctionResponse{
				Name: call.Name,
				Response: map[string]interface{}{
					"content":  tr.Content,
					"is_error": tr.IsError,
				},
			},
		})
	}

	contents = append(contents, Content{Role: "function", Parts: resultParts})
	req := c.buildRequest(systemPrompt, contents, toolDeclarations(tools), nil)

	resp, err := c.generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return toToolResponse(resp), nil
}

// CompleteWithSchema sends a prompt and enforces a JSON response schema
// via responseMimeType/responseSchema.
func (c *Client) CompleteWithSchema(ctx context.Context, systemPrompt, userPrompt string, schema map[string]interface{}) (string, error) {
	req := c.buildRequest(systemPrompt, []Content{userContent(userPrompt)}, nil, schema)
	resp, err := c.generate(ctx, req)
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

// buildRequest assembles a generateContent request body with the
// client's sampling defaults.
func (c *Client) buildRequest(systemPrompt string, contents []Content, declarations []functionDeclaration, schema map[string]interface{}) *generateRequest {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaultSystemInstruction
	}
	temp := c.temperature
	req := &generateRequest{
		Contents: contents,
		SystemInstruction: &Content{
			Parts: []Part{{Text: systemPrompt}},
		},
		GenerationConfig: generationConfig{
			Temperature: &temp,
			TopK:        c.topK,
			TopP:        c.topP,
		},
	}
	if len(declarations) > 0 {
		req.Tools = []tool{{FunctionDeclarations: declarations}}
	}
	if schema != nil {
		req.GenerationConfig.ResponseMimeType = "application/json"
		req.GenerationConfig.ResponseSchema = schema
	}
	return req
}

// generate sends the request with rate-limit spacing and bounded
// retries for transient failures.
func (c *Client) generate(ctx context.Context, reqBody *generateRequest) (*generateResponse, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	// Auto-apply timeout if the context has no deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	startTime := time.Now()

	// Rate limiting: keep at least 100ms between requests. The send
	// slot is reserved under the lock; the wait happens outside it so
	// concurrent callers only queue for the arithmetic.
	c.mu.Lock()
	wait := 100*time.Millisecond - time.Since(c.lastRequest)
	if wait < 0 {
		wait = 0
	}
	c.lastRequest = time.Now().Add(wait)
	c.mu.Unlock()
	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	const maxRetries = 3
	var lastErr error

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			select {
			case <-time.After(time.Duration(1<<uint(i-1)) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}

		var out generateResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if out.Error != nil {
			return nil, fmt.Errorf("API error: %s", out.Error.Message)
		}
		if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
			return nil, fmt.Errorf("no completion returned")
		}

		logging.API("[Gemini] generateContent: model=%s completed in %v tokens=%d",
			c.model, time.Since(startTime), out.UsageMetadata.TotalTokenCount)
		return &out, nil
	}

	logging.APIError("[Gemini] generateContent: max retries exceeded after %v: %v", time.Since(startTime), lastErr)
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// historyContents converts a conversation history to wire contents.
func historyContents(history []types.ConversationTurn) []Content {
	contents := make([]Content, 0, len(history))
	for _, turn := range history {
		contents = append(contents, Content{
			Role:  string(turn.Role),
			Parts: []Part{{Text: turn.Content}},
		})
	}
	return contents
}

func userContent(text string) Content {
	return Content{Role: "user", Parts: []Part{{Text: text}}}
}

func toolDeclarations(tools []types.ToolDefinition) []functionDeclaration {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]functionDeclaration, len(tools))
	for i, t := range tools {
		decls[i] = functionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.InputSchema,
		}
	}
	return decls
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *generateResponse) string {
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}

// toToolResponse converts a wire response into the shared tool-response
// shape: text, requested tool calls, and grounding citations.
func toToolResponse(resp *generateResponse) *types.LLMToolResponse {
	result := &types.LLMToolResponse{
		StopReason: resp.Candidates[0].FinishReason,
		Citations:  extractCitations(resp),
	}
	var textBuilder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			textBuilder.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			result.ToolCalls = append(result.ToolCalls, types.ToolCall{
				ID:    fmt.Sprintf("call_%d", len(result.ToolCalls)),
				Name:  part.FunctionCall.Name,
				Input: part.FunctionCall.Args,
			})
		}
	}
	result.Text = strings.TrimSpace(textBuilder.String())
	return result
}

// extractCitations pulls {title, uri} references out of grounding
// metadata. Entries without a resolvable URI are dropped; duplicate
// URIs collapse to the first occurrence.
func extractCitations(resp *generateResponse) []types.Citation {
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return nil
	}
	seen := make(map[string]bool, len(gm.GroundingChunks))
	var citations []types.Citation
	for _, chunk := range gm.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		citations = append(citations, types.Citation{
			Title: chunk.Web.Title,
			URI:   chunk.Web.URI,
		})
	}
	return citations
}
