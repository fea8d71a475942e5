package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brandos/internal/types"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gemini-3-flash-preview",
		Timeout: 5 * time.Second,
	})
}

func writeTextResponse(w http.ResponseWriter, text string) {
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]interface{}{{"text": text}},
					"role":  "model",
				},
				"finishReason": "STOP",
			},
		},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func TestCompleteWithSystem(t *testing.T) {
	var captured generateRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		writeTextResponse(w, "  hello brand  ")
	})

	got, err := client.CompleteWithSystem(context.Background(), "system text", "user text")
	if err != nil {
		t.Fatalf("CompleteWithSystem failed: %v", err)
	}
	if got != "hello brand" {
		t.Errorf("text = %q, want trimmed completion", got)
	}
	if captured.SystemInstruction == nil || captured.SystemInstruction.Parts[0].Text != "system text" {
		t.Error("system instruction not threaded")
	}
	if len(captured.Contents) != 1 || captured.Contents[0].Role != "user" {
		t.Errorf("contents = %+v, want single user turn", captured.Contents)
	}
}

func TestCompleteDeterministic_TemperatureZero(t *testing.T) {
	var captured generateRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		writeTextResponse(w, "INTERNAL")
	})

	_, err := client.CompleteDeterministic(context.Background(), "classify", "query")
	if err != nil {
		t.Fatalf("CompleteDeterministic failed: %v", err)
	}
	if captured.GenerationConfig.Temperature == nil || *captured.GenerationConfig.Temperature != 0 {
		t.Errorf("temperature = %v, want explicit 0", captured.GenerationConfig.Temperature)
	}
}

func TestCompleteWithHistory_ThreadsTurns(t *testing.T) {
	var captured generateRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		writeTextResponse(w, "answer")
	})

	history := []types.ConversationTurn{
		{Role: types.RoleUser, Content: "first"},
		{Role: types.RoleModel, Content: "reply"},
		{Role: types.RoleUser, Content: "second"},
	}
	_, err := client.CompleteWithHistory(context.Background(), "", history)
	if err != nil {
		t.Fatalf("CompleteWithHistory failed: %v", err)
	}
	if len(captured.Contents) != 3 {
		t.Fatalf("contents = %d turns, want 3", len(captured.Contents))
	}
	if captured.Contents[1].Role != "model" || captured.Contents[1].Parts[0].Text != "reply" {
		t.Errorf("history turn not threaded: %+v", captured.Contents[1])
	}
}

func TestCompleteWithSearch_Citations(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]interface{}{{"text": "grounded answer"}},
					},
					"finishReason": "STOP",
					"groundingMetadata": map[string]interface{}{
						"groundingChunks": []map[string]interface{}{
							{"web": map[string]string{"uri": "", "title": "No Link"}},
							{"web": map[string]string{"uri": "https://a.example", "title": "A"}},
							{"web": map[string]string{"uri": "https://a.example", "title": "A dup"}},
						},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	text, citations, err := client.CompleteWithSearch(context.Background(), "", []types.ConversationTurn{{Role: types.RoleUser, Content: "q"}})
	if err != nil {
		t.Fatalf("CompleteWithSearch failed: %v", err)
	}
	if text != "grounded answer" {
		t.Errorf("text = %q", text)
	}
	if len(citations) != 1 {
		t.Fatalf("citations = %d, want 1 (empty URI filtered, duplicate collapsed)", len(citations))
	}
	if citations[0].URI != "https://a.example" || citations[0].Title != "A" {
		t.Errorf("citation = %+v", citations[0])
	}
}

func TestToolCallRoundTrip(t *testing.T) {
	calls := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			resp := map[string]interface{}{
				"candidates": []map[string]interface{}{
					{
						"content": map[string]interface{}{
							"parts": []map[string]interface{}{
								{"functionCall": map[string]interface{}{
									"name": "search_internal_documents",
									"args": map[string]interface{}{"query": "pricing"},
								}},
							},
						},
						"finishReason": "STOP",
					},
				},
			}
			_ = json.NewEncoder(w).Encode(resp)
			return
		}
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		last := req.Contents[len(req.Contents)-1]
		if last.Role != "function" || last.Parts[0].FunctionResponse == nil {
			t.Errorf("tool result not threaded: %+v", last)
		}
		writeTextResponse(w, "final grounded answer")
	})

	tools := []types.ToolDefinition{{Name: "search_internal_documents", Description: "search"}}
	history := []types.ConversationTurn{{Role: types.RoleUser, Content: "what do we charge?"}}

	first, err := client.CompleteWithTools(context.Background(), "", history, tools)
	if err != nil {
		t.Fatalf("CompleteWithTools failed: %v", err)
	}
	if len(first.ToolCalls) != 1 || first.ToolCalls[0].Name != "search_internal_documents" {
		t.Fatalf("tool calls = %+v", first.ToolCalls)
	}

	final, err := client.ResumeWithToolResults(context.Background(), "", history, first.ToolCalls, []types.ToolResult{
		{ToolUseID: first.ToolCalls[0].ID, Content: "pricing doc snippet"},
	}, tools)
	if err != nil {
		t.Fatalf("ResumeWithToolResults failed: %v", err)
	}
	if final.Text != "final grounded answer" {
		t.Errorf("final text = %q", final.Text)
	}
}

// Two conversations interleave their tool exchanges through one shared
// client; each resumed request must carry only its own conversation.
func TestInterleavedToolExchangesStayIsolated(t *testing.T) {
	var resumed []generateRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		last := req.Contents[len(req.Contents)-1]
		if last.Role == "function" {
			resumed = append(resumed, req)
			writeTextResponse(w, "resumed answer")
			return
		}
		resp := map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content": map[string]interface{}{
						"parts": []map[string]interface{}{
							{"functionCall": map[string]interface{}{
								"name": "search_internal_documents",
								"args": map[string]interface{}{"query": "q"},
							}},
						},
					},
					"finishReason": "STOP",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	tools := []types.ToolDefinition{{Name: "search_internal_documents", Description: "search"}}
	historyA := []types.ConversationTurn{{Role: types.RoleUser, Content: "alpha question"}}
	historyB := []types.ConversationTurn{{Role: types.RoleUser, Content: "bravo question"}}

	firstA, err := client.CompleteWithTools(context.Background(), "", historyA, tools)
	if err != nil {
		t.Fatalf("CompleteWithTools A failed: %v", err)
	}
	firstB, err := client.CompleteWithTools(context.Background(), "", historyB, tools)
	if err != nil {
		t.Fatalf("CompleteWithTools B failed: %v", err)
	}

	// A resumes after B started its own exchange.
	_, err = client.ResumeWithToolResults(context.Background(), "", historyA, firstA.ToolCalls, []types.ToolResult{
		{ToolUseID: firstA.ToolCalls[0].ID, Content: "alpha snippet"},
	}, tools)
	if err != nil {
		t.Fatalf("ResumeWithToolResults A failed: %v", err)
	}
	_, err = client.ResumeWithToolResults(context.Background(), "", historyB, firstB.ToolCalls, []types.ToolResult{
		{ToolUseID: firstB.ToolCalls[0].ID, Content: "bravo snippet"},
	}, tools)
	if err != nil {
		t.Fatalf("ResumeWithToolResults B failed: %v", err)
	}

	if len(resumed) != 2 {
		t.Fatalf("resumed requests = %d, want 2", len(resumed))
	}
	if got := resumed[0].Contents[0].Parts[0].Text; got != "alpha question" {
		t.Errorf("first resume carries %q, want alpha conversation", got)
	}
	for _, content := range resumed[0].Contents {
		for _, part := range content.Parts {
			if part.Text == "bravo question" {
				t.Error("alpha resume leaked bravo conversation")
			}
		}
	}
	if got := resumed[1].Contents[0].Parts[0].Text; got != "bravo question" {
		t.Errorf("second resume carries %q, want bravo conversation", got)
	}
}

func TestResumeWithoutCalls(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeTextResponse(w, "unreachable")
	})
	_, err := client.ResumeWithToolResults(context.Background(), "", nil, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error when resuming with no tool calls")
	}
}

func TestNoAPIKey(t *testing.T) {
	client := NewClient(Config{APIKey: ""})
	if client.Configured() {
		t.Error("Configured() should be false without a key")
	}
	_, err := client.Complete(context.Background(), "hi")
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestServerErrorNotRetried(t *testing.T) {
	calls := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	})

	_, err := client.Complete(context.Background(), "hi")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (client errors are not retried)", calls)
	}
}
