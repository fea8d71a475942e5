package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"brandos/internal/events"
	"brandos/internal/knowledge"
	"brandos/internal/logging"
	"brandos/internal/profile"
	"brandos/internal/sitedoc"
	"brandos/internal/store"
	"brandos/internal/types"
)

const assistantSystemPrompt = "You are an elite Brand Automation Strategist. You help enterprises manage their brand identity, assets, and social media strategy. Provide insights based on the provided company context. Be professional, creative, and concise."

const builderSystemPrompt = `You are an elite Brand Automation Strategist operating the site builder.
Reply conversationally, then finish your message with a JSON array of actions to apply.
Supported actions:
  {"action":"CREATE_PAGE","pageName":"..."}
  {"action":"RESET_PAGE"}
  {"action":"SET_TEMPLATE","templateId":"Enterprise Base"|"Modern Portfolio"|"SaaS Landing"}
  {"action":"ADD_WIDGET","widgetType":"Header"|"Hero"|"Grid"|"Pricing"|"Contact","attributes":{...}}
Actions apply in order. CREATE_PAGE targets that page for the rest of the batch.
If no site change is needed, reply without an action array.`

// ModelClient is the model surface the orchestrator is written
// against. *gemini.Client satisfies it.
type ModelClient interface {
	Configured() bool
	CompleteDeterministic(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteWithHistory(ctx context.Context, systemPrompt string, history []types.ConversationTurn) (string, error)
	CompleteWithSearch(ctx context.Context, systemPrompt string, history []types.ConversationTurn) (string, []types.Citation, error)
	CompleteWithTools(ctx context.Context, systemPrompt string, history []types.ConversationTurn, tools []types.ToolDefinition) (*types.LLMToolResponse, error)
	ResumeWithToolResults(ctx context.Context, systemPrompt string, history []types.ConversationTurn, calls []types.ToolCall, results []types.ToolResult, tools []types.ToolDefinition) (*types.LLMToolResponse, error)
}

// Reply is the outcome of one chat turn.
type Reply struct {
	Text      string
	Citations []types.Citation
	Intent    Intent
	Degraded  bool
}

// BuildResult is the outcome of one site-builder turn.
type BuildResult struct {
	Reply          string
	ActionsApplied int
	Document       *sitedoc.SiteDocument
	Markup         string
	Degraded       bool
}

// Assistant orchestrates chat and site-building for all tenants.
// Turns for the same tenant are serialized; independent tenants
// proceed concurrently.
type Assistant struct {
	model    ModelClient
	store    *store.LocalStore
	profiles *profile.Service
	sites    *sitedoc.Manager
	router   *Router
	bus      *events.Bus

	mu          sync.Mutex
	tenantLocks map[string]*sync.Mutex
}

// New creates the assistant. The bus may be nil.
func New(model ModelClient, st *store.LocalStore, profiles *profile.Service, sites *sitedoc.Manager, bus *events.Bus) *Assistant {
	return &Assistant{
		model:       model,
		store:       st,
		profiles:    profiles,
		sites:       sites,
		router:      NewRouter(model),
		bus:         bus,
		tenantLocks: make(map[string]*sync.Mutex),
	}
}

// tenantLock returns the mutex serializing one tenant's turns.
func (a *Assistant) tenantLock(tenantID string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	lock, ok := a.tenantLocks[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		a.tenantLocks[tenantID] = lock
	}
	return lock
}

// Chat answers one user message for a tenant. On success the user and
// assistant turns are persisted together; on any model failure the
// stored history is unchanged and the reply carries a degraded
// conversational message.
func (a *Assistant) Chat(ctx context.Context, tenantID, message string) (*Reply, error) {
	lock := a.tenantLock(tenantID)
	lock.Lock()
	defer lock.Unlock()

	if !a.model.Configured() {
		return &Reply{Text: MsgNotConfigured, Intent: IntentGeneral, Degraded: true}, nil
	}

	start := time.Now()

	history, err := a.store.History(tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	prof, err := a.profiles.Get(tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	knowledgeContext := knowledge.BuildContext(prof)
	systemPrompt := assistantSystemPrompt + "\n\nCompany context:\n" + knowledgeContext

	intent := a.router.Route(ctx, message)
	a.bus.Emit(events.SourceAssistant, events.KindRequestStart, tenantID, map[string]any{"intent": string(intent)})

	userTurn := types.ConversationTurn{Role: types.RoleUser, Content: message}
	threaded := append(append([]types.ConversationTurn{}, history...), userTurn)

	var (
		text      string
		citations []types.Citation
	)
	switch intent {
	case IntentInternal:
		text, err = a.executeInternal(ctx, systemPrompt, threaded, knowledgeContext)
	case IntentMarket:
		text, citations, err = a.executeMarket(ctx, systemPrompt, threaded)
	default:
		text, err = a.executeGeneral(ctx, systemPrompt, threaded)
	}
	if err != nil {
		logging.Conversation("[Assistant] %s executor failed for tenant %s: %v", intent, tenantID, err)
		a.emitComplete(tenantID, intent, start, true)
		return &Reply{Text: MsgServiceUnavailable, Intent: intent, Degraded: true}, nil
	}

	modelTurn := types.ConversationTurn{Role: types.RoleModel, Content: text, Citations: citations}
	if err := a.store.AppendTurns(tenantID, userTurn, modelTurn); err != nil {
		return nil, fmt.Errorf("failed to persist turns: %w", err)
	}

	a.bus.Emit(events.SourceAssistant, events.KindConversationUpdated, tenantID, map[string]any{"turns": 2})
	a.emitComplete(tenantID, intent, start, false)

	return &Reply{Text: text, Citations: citations, Intent: intent}, nil
}

// BuildSite runs one site-builder turn: the model replies with prose
// plus an optional trailing action batch, which is applied to the
// site's document and persisted. A reply without a parseable batch
// applies zero actions and is treated as purely conversational.
func (a *Assistant) BuildSite(ctx context.Context, tenantID, siteID, message string) (*BuildResult, error) {
	lock := a.tenantLock(tenantID)
	lock.Lock()
	defer lock.Unlock()

	if !a.model.Configured() {
		return &BuildResult{Reply: MsgNotConfigured, Degraded: true}, nil
	}

	site, err := a.sites.Load(tenantID, siteID)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, fmt.Errorf("site %s not found", siteID)
	}

	history, err := a.store.History(tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	systemPrompt := builderSystemPrompt + "\n\nCurrent site state:\n" + describeDocument(site.Document)
	userTurn := types.ConversationTurn{Role: types.RoleUser, Content: message}
	threaded := append(append([]types.ConversationTurn{}, history...), userTurn)

	raw, err := a.model.CompleteWithHistory(ctx, systemPrompt, threaded)
	if err != nil {
		logging.Conversation("[Assistant] builder call failed for tenant %s: %v", tenantID, err)
		return &BuildResult{Reply: MsgServiceUnavailable, Degraded: true}, nil
	}

	result := &BuildResult{Reply: raw, Document: site.Document}

	actions, remainder, parseErr := sitedoc.ExtractActions(raw)
	if parseErr == nil {
		next := sitedoc.Apply(site.Document, actions)
		if err := a.sites.SaveDocument(tenantID, siteID, next); err != nil {
			return nil, fmt.Errorf("failed to persist document: %w", err)
		}
		result.Document = next
		result.ActionsApplied = len(actions)
		if remainder != "" {
			result.Reply = remainder
		} else {
			result.Reply = fmt.Sprintf("Applied %d site change(s).", len(actions))
		}
	}
	result.Markup = sitedoc.RenderPage(result.Document, result.Document.ActivePageID)

	modelTurn := types.ConversationTurn{Role: types.RoleModel, Content: result.Reply}
	if err := a.store.AppendTurns(tenantID, userTurn, modelTurn); err != nil {
		return nil, fmt.Errorf("failed to persist turns: %w", err)
	}
	a.bus.Emit(events.SourceAssistant, events.KindConversationUpdated, tenantID, map[string]any{"turns": 2})

	return result, nil
}

// History returns the tenant's full ordered transcript.
func (a *Assistant) History(tenantID string) ([]types.ConversationTurn, error) {
	return a.store.History(tenantID)
}

// ClearConversation atomically empties one tenant's transcript.
func (a *Assistant) ClearConversation(tenantID string) error {
	lock := a.tenantLock(tenantID)
	lock.Lock()
	defer lock.Unlock()

	if err := a.store.ClearConversation(tenantID); err != nil {
		return err
	}
	a.bus.Emit(events.SourceAssistant, events.KindConversationCleared, tenantID, nil)
	return nil
}

func (a *Assistant) emitComplete(tenantID string, intent Intent, start time.Time, degraded bool) {
	a.bus.Emit(events.SourceAssistant, events.KindRequestComplete, tenantID, map[string]any{
		"intent":     string(intent),
		"elapsed_ms": time.Since(start).Milliseconds(),
		"degraded":   degraded,
	})
}

// describeDocument summarizes the document for the builder prompt.
func describeDocument(doc *sitedoc.SiteDocument) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Template: %s\n", doc.TemplateID)
	for _, page := range doc.Pages {
		marker := ""
		if page.ID == doc.ActivePageID {
			marker = " (current target)"
		}
		widgetTypes := make([]string, 0, len(page.Sections))
		for _, s := range page.Sections {
			widgetTypes = append(widgetTypes, string(s.Type))
		}
		sections, _ := json.Marshal(widgetTypes)
		fmt.Fprintf(&b, "Page %q (%s)%s: sections=%s\n", page.Name, page.Path, marker, sections)
	}
	return b.String()
}
