package gemini

import "time"

// Config holds Gemini client configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// Sampling for conversational calls. Deterministic calls
	// (classification) ignore these and run at temperature 0.
	Temperature float64
	TopK        int
	TopP        float64
}

// DefaultConfig returns sensible defaults for brand reasoning.
// gemini-3-flash-preview: fast, 1M context, grounding support.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:      apiKey,
		BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
		Model:       "gemini-3-flash-preview",
		Timeout:     2 * time.Minute,
		Temperature: 0.7,
		TopK:        40,
		TopP:        0.95,
	}
}

// Content represents one conversation entry in the request.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part represents a part of a content entry.
type Part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// FunctionCall is a tool invocation requested by the model.
type FunctionCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// FunctionResponse carries a tool result back to the model.
type FunctionResponse struct {
	Name     string                 `json:"name"`
	Response map[string]interface{} `json:"response"`
}

// generationConfig holds sampling parameters. Temperature is a pointer
// so an explicit zero (deterministic routing) survives serialization.
type generationConfig struct {
	Temperature      *float64               `json:"temperature,omitempty"`
	TopK             int                    `json:"topK,omitempty"`
	TopP             float64                `json:"topP,omitempty"`
	MaxOutputTokens  int                    `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string                 `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]interface{} `json:"responseSchema,omitempty"`
}

// tool is a single entry in the request tools array: either a set of
// function declarations or the built-in Google Search grounding tool.
// The API rejects requests combining both.
type tool struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations,omitempty"`
	GoogleSearch         *googleSearch         `json:"googleSearch,omitempty"`
}

type functionDeclaration struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

type googleSearch struct{}

// generateRequest is the generateContent request body.
type generateRequest struct {
	Contents          []Content        `json:"contents"`
	SystemInstruction *Content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig,omitempty"`
	Tools             []tool           `json:"tools,omitempty"`
}

// generateResponse is the generateContent response body.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []Part `json:"parts"`
			Role  string `json:"role"`
		} `json:"content"`
		FinishReason      string             `json:"finishReason"`
		GroundingMetadata *groundingMetadata `json:"groundingMetadata,omitempty"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// groundingMetadata holds the web sources Gemini used for a grounded
// answer.
type groundingMetadata struct {
	GroundingChunks  []groundingChunk `json:"groundingChunks"`
	WebSearchQueries []string         `json:"webSearchQueries"`
}

type groundingChunk struct {
	Web *struct {
		URI   string `json:"uri"`
		Title string `json:"title"`
	} `json:"web,omitempty"`
}
