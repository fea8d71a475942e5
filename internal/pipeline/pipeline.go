// Package pipeline synthesizes and manages a tenant's scheduled
// content pipeline, and produces one-shot intelligence reports. Both
// degrade to safe static output when the model is unavailable.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"brandos/internal/events"
	"brandos/internal/logging"
	"brandos/internal/profile"
	"brandos/internal/store"
)

// StatusScheduled is the initial status of every synthesized post.
const StatusScheduled = "Scheduled"

// Degraded report strings. Conversational, never errors.
const (
	msgReportNotConfigured = "AI Configuration Missing."
	msgReportFailed        = "Error synthesizing intelligence report."
)

// Model is the model surface the pipeline needs.
type Model interface {
	Configured() bool
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteWithSchema(ctx context.Context, systemPrompt, userPrompt string, schema map[string]interface{}) (string, error)
}

// postSchema constrains synthesis output to a JSON array of posts.
var postSchema = map[string]interface{}{
	"type": "array",
	"items": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"platform":       map[string]interface{}{"type": "string"},
			"title":          map[string]interface{}{"type": "string"},
			"contentSummary": map[string]interface{}{"type": "string"},
			"daysFromNow":    map[string]interface{}{"type": "number"},
		},
	},
}

// generatedPost is the wire shape of one synthesized post.
type generatedPost struct {
	Platform       string  `json:"platform"`
	Title          string  `json:"title"`
	ContentSummary string  `json:"contentSummary"`
	DaysFromNow    float64 `json:"daysFromNow"`
}

// Service synthesizes and manages per-tenant content pipelines.
type Service struct {
	model    Model
	store    *store.LocalStore
	profiles *profile.Service
	bus      *events.Bus
}

// NewService creates a pipeline service. The bus may be nil.
func NewService(model Model, st *store.LocalStore, profiles *profile.Service, bus *events.Bus) *Service {
	return &Service{model: model, store: st, profiles: profiles, bus: bus}
}

// Synthesize generates a one-week content pipeline from the tenant's
// profile and replaces the stored pipeline with it. An unconfigured
// model, a missing profile, or an unparseable response all fall back
// to a static single-post pipeline.
func (s *Service) Synthesize(ctx context.Context, tenantID string) ([]store.ScheduledPost, error) {
	posts := s.generate(ctx, tenantID)
	if err := s.store.SavePosts(tenantID, posts); err != nil {
		return nil, err
	}
	s.bus.Emit(events.SourcePipeline, events.KindPipelineUpdated, tenantID, map[string]any{"posts": len(posts)})
	return posts, nil
}

func (s *Service) generate(ctx context.Context, tenantID string) []store.ScheduledPost {
	if !s.model.Configured() {
		return staticFallback(tenantID)
	}

	prof, err := s.profiles.Get(tenantID)
	if err != nil || prof == nil {
		return staticFallback(tenantID)
	}

	prompt := fmt.Sprintf(
		"Synthesize a 1-week strategic content pipeline for %s (%s). Mission: %s. Voice: %s. Return exactly 4 posts.",
		prof.CompanyName, prof.Industry, prof.Mission, prof.BrandVoice,
	)

	raw, err := s.model.CompleteWithSchema(ctx, "", prompt, postSchema)
	if err != nil {
		logging.PipelineWarn("[Pipeline] synthesis call failed for tenant %s: %v", tenantID, err)
		return staticFallback(tenantID)
	}

	var generated []generatedPost
	if err := json.Unmarshal([]byte(raw), &generated); err != nil || len(generated) == 0 {
		logging.PipelineWarn("[Pipeline] unparseable synthesis output for tenant %s: %v", tenantID, err)
		return staticFallback(tenantID)
	}

	now := time.Now().UTC()
	posts := make([]store.ScheduledPost, len(generated))
	for i, g := range generated {
		posts[i] = store.ScheduledPost{
			ID:             "sp-ai-" + uuid.NewString(),
			Platform:       g.Platform,
			Title:          g.Title,
			ContentSummary: g.ContentSummary,
			Status:         StatusScheduled,
			PublishAt:      now.Add(time.Duration(g.DaysFromNow*24) * time.Hour),
		}
	}
	logging.Pipeline("[Pipeline] synthesized %d post(s) for tenant %s", len(posts), tenantID)
	return posts
}

// staticFallback is the pipeline used when synthesis is impossible.
func staticFallback(tenantID string) []store.ScheduledPost {
	return []store.ScheduledPost{{
		ID:             "sp-fb-1-" + tenantID,
		Platform:       "LinkedIn",
		Title:          "Strategic Vision 2025",
		ContentSummary: "Establishing brand authority in the new ecosystem.",
		Status:         StatusScheduled,
		PublishAt:      time.Now().UTC().Add(24 * time.Hour),
	}}
}

// CreatePost adds a single post to the tenant's pipeline, assigning an
// ID if the caller left it empty.
func (s *Service) CreatePost(tenantID string, post store.ScheduledPost) (store.ScheduledPost, error) {
	if post.ID == "" {
		post.ID = "sp-" + uuid.NewString()
	}
	if post.Status == "" {
		post.Status = StatusScheduled
	}
	if err := s.store.AddPost(tenantID, post); err != nil {
		return store.ScheduledPost{}, err
	}
	s.bus.Emit(events.SourcePipeline, events.KindPipelineUpdated, tenantID, nil)
	return post, nil
}

// Posts returns the tenant's pipeline ordered by publish time.
func (s *Service) Posts(tenantID string) ([]store.ScheduledPost, error) {
	return s.store.Posts(tenantID)
}

// ClearSchedule removes the tenant's pipeline.
func (s *Service) ClearSchedule(tenantID string) error {
	if err := s.store.ClearPosts(tenantID); err != nil {
		return err
	}
	s.bus.Emit(events.SourcePipeline, events.KindPipelineUpdated, tenantID, nil)
	return nil
}

// Report generates a high-level intelligence report for the tenant.
// Failures return a degraded message string, never an error.
func (s *Service) Report(ctx context.Context, tenantID string) string {
	if !s.model.Configured() {
		return msgReportNotConfigured
	}

	company := "the organization"
	if prof, err := s.profiles.Get(tenantID); err == nil && prof != nil && prof.CompanyName != "" {
		company = prof.CompanyName
	}

	prompt := fmt.Sprintf(`Generate a high-level "Enterprise Intelligence Report" for %s. 1. Summary, 2. Strategy, 3. Future Opportunities.`, company)
	text, err := s.model.CompleteWithSystem(ctx, "", prompt)
	if err != nil {
		logging.PipelineWarn("[Pipeline] report generation failed for tenant %s: %v", tenantID, err)
		return msgReportFailed
	}
	return text
}
