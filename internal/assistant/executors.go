package assistant

import (
	"context"
	"fmt"

	"brandos/internal/logging"
	"brandos/internal/types"
)

// internalSearchTool is the single declared tool for the
// internal-knowledge strategy.
var internalSearchTool = types.ToolDefinition{
	Name:        "search_internal_documents",
	Description: "Search the company's internal brand documents, onboarding profile, and offering portfolio for grounding facts.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "What to look up in the internal knowledge base.",
			},
		},
		"required": []string{"query"},
	},
}

// executeInternal answers from internal brand knowledge. The model may
// request the search tool; the knowledge context serves as the document
// store, and the tool result is threaded back for a final grounded
// answer. If the model never invokes the tool its first response is
// used directly.
func (a *Assistant) executeInternal(ctx context.Context, systemPrompt string, history []types.ConversationTurn, knowledgeContext string) (string, error) {
	tools := []types.ToolDefinition{internalSearchTool}

	first, err := a.model.CompleteWithTools(ctx, systemPrompt, history, tools)
	if err != nil {
		return "", err
	}
	if len(first.ToolCalls) == 0 {
		return first.Text, nil
	}

	results := make([]types.ToolResult, 0, len(first.ToolCalls))
	for _, call := range first.ToolCalls {
		query, _ := call.Input["query"].(string)
		logging.Knowledge("[Executor] internal search requested: %q", query)
		results = append(results, types.ToolResult{
			ToolUseID: call.ID,
			Content:   fmt.Sprintf("Internal document search results for %q:\n\n%s", query, knowledgeContext),
		})
	}

	final, err := a.model.ResumeWithToolResults(ctx, systemPrompt, history, first.ToolCalls, results, tools)
	if err != nil {
		return "", err
	}
	return final.Text, nil
}

// executeMarket answers from live web search, returning grounding
// citations alongside the text.
func (a *Assistant) executeMarket(ctx context.Context, systemPrompt string, history []types.ConversationTurn) (string, []types.Citation, error) {
	return a.model.CompleteWithSearch(ctx, systemPrompt, history)
}

// executeGeneral answers from plain conversation with no tools.
func (a *Assistant) executeGeneral(ctx context.Context, systemPrompt string, history []types.ConversationTurn) (string, error) {
	return a.model.CompleteWithHistory(ctx, systemPrompt, history)
}
