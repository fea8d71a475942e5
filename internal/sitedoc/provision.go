package sitedoc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"brandos/internal/events"
	"brandos/internal/logging"
	"brandos/internal/store"
)

// SiteStatus tracks a provisioned site's lifecycle.
type SiteStatus string

const (
	StatusStaging SiteStatus = "Staging"
	StatusLive    SiteStatus = "Live"
)

// Site is a provisioned website: metadata plus its editable document.
type Site struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Status   SiteStatus    `json:"status"`
	LastSync time.Time     `json:"lastSync"`
	Document *SiteDocument `json:"document"`
}

// Manager provisions sites and persists their documents per tenant.
type Manager struct {
	store *store.LocalStore
	bus   *events.Bus
}

// NewManager creates a site manager. The bus may be nil.
func NewManager(st *store.LocalStore, bus *events.Bus) *Manager {
	return &Manager{store: st, bus: bus}
}

// Provision creates a new staging site with an empty home page and
// persists it.
func (m *Manager) Provision(tenantID, name string, template TemplateID) (*Site, error) {
	site := &Site{
		ID:       uuid.NewString(),
		Name:     name,
		Status:   StatusStaging,
		LastSync: time.Now().UTC(),
		Document: NewDocument(template),
	}
	if err := m.save(tenantID, site); err != nil {
		return nil, err
	}
	logging.Interpreter("[Sites] provisioned site %q (%s) for tenant %s", name, template, tenantID)
	m.bus.Emit(events.SourceInterpreter, events.KindDocumentUpdated, tenantID, map[string]any{"site_id": site.ID})
	return site, nil
}

// Load returns a tenant's site by ID, or (nil, nil) when absent.
func (m *Manager) Load(tenantID, siteID string) (*Site, error) {
	rec, err := m.store.LoadSite(tenantID, siteID)
	if err != nil || rec == nil {
		return nil, err
	}
	return fromRecord(rec)
}

// List returns all of a tenant's sites.
func (m *Manager) List(tenantID string) ([]*Site, error) {
	recs, err := m.store.ListSites(tenantID)
	if err != nil {
		return nil, err
	}
	sites := make([]*Site, 0, len(recs))
	for i := range recs {
		site, err := fromRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// SaveDocument swaps in an updated document for the site and persists
// it, refreshing the sync timestamp.
func (m *Manager) SaveDocument(tenantID, siteID string, doc *SiteDocument) error {
	site, err := m.Load(tenantID, siteID)
	if err != nil {
		return err
	}
	if site == nil {
		return fmt.Errorf("site %s not found", siteID)
	}
	site.Document = doc
	site.LastSync = time.Now().UTC()
	if err := m.save(tenantID, site); err != nil {
		return err
	}
	m.bus.Emit(events.SourceInterpreter, events.KindDocumentUpdated, tenantID, map[string]any{"site_id": siteID})
	return nil
}

// MarkLive promotes a staging site to live.
func (m *Manager) MarkLive(tenantID, siteID string) error {
	site, err := m.Load(tenantID, siteID)
	if err != nil {
		return err
	}
	if site == nil {
		return fmt.Errorf("site %s not found", siteID)
	}
	site.Status = StatusLive
	return m.save(tenantID, site)
}

func (m *Manager) save(tenantID string, site *Site) error {
	docJSON, err := json.Marshal(site.Document)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	return m.store.SaveSite(tenantID, store.SiteRecord{
		SiteID:       site.ID,
		Name:         site.Name,
		Status:       string(site.Status),
		DocumentJSON: docJSON,
		LastSync:     site.LastSync,
	})
}

func fromRecord(rec *store.SiteRecord) (*Site, error) {
	var doc SiteDocument
	if err := json.Unmarshal(rec.DocumentJSON, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &Site{
		ID:       rec.SiteID,
		Name:     rec.Name,
		Status:   SiteStatus(rec.Status),
		LastSync: rec.LastSync,
		Document: &doc,
	}, nil
}
