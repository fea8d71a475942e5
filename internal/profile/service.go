// Package profile manages tenant onboarding profiles: the company
// identity data the knowledge context builder turns into model context.
package profile

import (
	"fmt"
	"time"

	"brandos/internal/events"
	"brandos/internal/logging"
	"brandos/internal/store"
	"brandos/internal/types"
)

// Service reads and updates tenant profiles.
type Service struct {
	store *store.LocalStore
	bus   *events.Bus
}

// NewService creates a profile service. The bus may be nil.
func NewService(st *store.LocalStore, bus *events.Bus) *Service {
	return &Service{store: st, bus: bus}
}

// Get returns the tenant's profile, or nil when the tenant has not
// onboarded.
func (s *Service) Get(tenantID string) (*types.Profile, error) {
	return s.store.GetProfile(tenantID)
}

// Save merges the patch into the tenant's stored profile and persists
// the result. Empty patch fields leave the stored value alone, so
// onboarding steps can each submit only the fields they collect.
func (s *Service) Save(tenantID string, patch *types.Profile) (*types.Profile, error) {
	if patch == nil {
		return nil, fmt.Errorf("profile: nil patch")
	}

	current, err := s.store.GetProfile(tenantID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = &types.Profile{}
	}

	merged := merge(*current, *patch)
	merged.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := s.store.SaveProfile(tenantID, &merged); err != nil {
		return nil, err
	}

	logging.Knowledge("[Profile] saved profile for tenant %s (company=%q)", tenantID, merged.CompanyName)
	s.bus.Emit(events.SourceStore, events.KindProfileUpdated, tenantID, nil)
	return &merged, nil
}

// merge overlays non-empty patch fields onto the base profile.
func merge(base, patch types.Profile) types.Profile {
	if patch.CompanyName != "" {
		base.CompanyName = patch.CompanyName
	}
	if patch.Industry != "" {
		base.Industry = patch.Industry
	}
	if patch.BrandVoice != "" {
		base.BrandVoice = patch.BrandVoice
	}
	if patch.Mission != "" {
		base.Mission = patch.Mission
	}
	if patch.Tagline != "" {
		base.Tagline = patch.Tagline
	}
	if len(patch.ValueProps) > 0 {
		base.ValueProps = patch.ValueProps
	}
	if len(patch.Offerings) > 0 {
		base.Offerings = patch.Offerings
	}
	return base
}
