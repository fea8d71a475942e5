package assistant

import (
	"context"
	"strings"

	"brandos/internal/logging"
)

// Intent labels the strategy a user message should be answered with.
type Intent string

const (
	// IntentInternal answers from the tenant's own brand knowledge.
	IntentInternal Intent = "INTERNAL"
	// IntentMarket answers from live web search with citations.
	IntentMarket Intent = "MARKET"
	// IntentGeneral answers from plain conversation.
	IntentGeneral Intent = "GENERAL"
)

const routerSystemPrompt = `You are an intent classifier for a brand assistant.
Classify the user's message into exactly one of these labels:

INTERNAL - the message asks about the company's own brand, products, offerings, positioning, or internal documents.
MARKET - the message asks about competitors, market trends, news, or anything requiring current external information.
GENERAL - anything else: greetings, general advice, creative requests, follow-up chat.

Respond with the single label only. No punctuation, no explanation.`

// Router classifies user messages by issuing a constrained one-word
// prompt at deterministic sampling. Classification never shares a call
// with tool-bearing requests.
type Router struct {
	model ModelClient
}

// NewRouter creates an intent router over the given model.
func NewRouter(model ModelClient) *Router {
	return &Router{model: model}
}

// Route returns the intent for the user text. Any failure, transport
// or parse, falls back to GENERAL so the conversation still gets an
// answer.
func (r *Router) Route(ctx context.Context, userText string) Intent {
	timer := logging.StartTimer(logging.CategoryRouting, "classify")
	defer timer.Stop()

	answer, err := r.model.CompleteDeterministic(ctx, routerSystemPrompt, userText)
	if err != nil {
		logging.RoutingWarn("[Router] classification call failed, defaulting to GENERAL: %v", err)
		return IntentGeneral
	}

	intent := parseIntent(answer)
	logging.Routing("[Router] classified as %s (raw=%q)", intent, answer)
	return intent
}

// parseIntent matches the model's answer against the known labels,
// case-insensitively. Anything unrecognized is GENERAL.
func parseIntent(answer string) Intent {
	label := strings.ToUpper(strings.TrimSpace(answer))
	label = strings.Trim(label, ".!\"'` ")
	switch label {
	case string(IntentInternal):
		return IntentInternal
	case string(IntentMarket):
		return IntentMarket
	case string(IntentGeneral):
		return IntentGeneral
	}
	return IntentGeneral
}
