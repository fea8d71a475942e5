// Package sitedoc models the agent-editable website: a template, an
// ordered set of pages, and typed widget sections within each page.
// It also houses the action parser, the batch interpreter that mutates
// documents, and the markup renderer.
package sitedoc

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TemplateID selects the site-wide visual template.
type TemplateID string

const (
	TemplateEnterpriseBase  TemplateID = "Enterprise Base"
	TemplateModernPortfolio TemplateID = "Modern Portfolio"
	TemplateSaasLanding     TemplateID = "SaaS Landing"
)

// ParseTemplate resolves a template name case-insensitively, accepting
// hyphens or spaces as separators.
func ParseTemplate(s string) (TemplateID, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", " "))
	switch norm {
	case "enterprise base":
		return TemplateEnterpriseBase, nil
	case "modern portfolio":
		return TemplateModernPortfolio, nil
	case "saas landing":
		return TemplateSaasLanding, nil
	}
	return "", fmt.Errorf("unknown template %q", s)
}

// WidgetType identifies a section's content block kind.
type WidgetType string

const (
	WidgetHeader  WidgetType = "Header"
	WidgetHero    WidgetType = "Hero"
	WidgetGrid    WidgetType = "Grid"
	WidgetPricing WidgetType = "Pricing"
	WidgetContact WidgetType = "Contact"
)

// Attributes is the per-widget attribute record. Each supported widget
// type has its own variant; unsupported types carry a raw map so the
// renderer can still emit a placeholder.
type Attributes interface {
	widgetType() WidgetType
}

// HeaderAttributes configures a navigation header.
type HeaderAttributes struct {
	Brand string `json:"brand,omitempty"`
}

// HeroAttributes configures a hero banner.
type HeroAttributes struct {
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
	Btn1Text string `json:"btn1Text,omitempty"`
	Btn1Link string `json:"btn1Link,omitempty"`
	Btn2Text string `json:"btn2Text,omitempty"`
}

// GridItem is one card in a feature grid.
type GridItem struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
}

// GridAttributes configures a feature card grid.
type GridAttributes struct {
	Heading string     `json:"heading,omitempty"`
	Items   []GridItem `json:"items,omitempty"`
}

// PricingPlan is one tier in a pricing section.
type PricingPlan struct {
	Name  string `json:"name,omitempty"`
	Price string `json:"price,omitempty"`
}

// PricingAttributes configures a pricing section.
type PricingAttributes struct {
	Plans []PricingPlan `json:"plans,omitempty"`
}

// ContactAttributes configures a contact call-to-action.
type ContactAttributes struct {
	Heading    string `json:"heading,omitempty"`
	ButtonText string `json:"buttonText,omitempty"`
}

// RawAttributes carries attributes for a widget type the renderer does
// not recognize. Kept so round-tripping an unknown section is lossless.
type RawAttributes map[string]interface{}

func (HeaderAttributes) widgetType() WidgetType  { return WidgetHeader }
func (HeroAttributes) widgetType() WidgetType    { return WidgetHero }
func (GridAttributes) widgetType() WidgetType    { return WidgetGrid }
func (PricingAttributes) widgetType() WidgetType { return WidgetPricing }
func (ContactAttributes) widgetType() WidgetType { return WidgetContact }
func (RawAttributes) widgetType() WidgetType     { return "" }

// DecodeAttributes converts a free-form attribute map into the typed
// variant for the widget type. Unknown keys are dropped; unknown widget
// types keep the raw map.
func DecodeAttributes(widgetType WidgetType, attrs map[string]interface{}) Attributes {
	raw, err := json.Marshal(attrs)
	if err != nil {
		raw = []byte("{}")
	}
	switch widgetType {
	case WidgetHeader:
		var a HeaderAttributes
		json.Unmarshal(raw, &a)
		return a
	case WidgetHero:
		var a HeroAttributes
		json.Unmarshal(raw, &a)
		return a
	case WidgetGrid:
		var a GridAttributes
		json.Unmarshal(raw, &a)
		return a
	case WidgetPricing:
		var a PricingAttributes
		json.Unmarshal(raw, &a)
		return a
	case WidgetContact:
		var a ContactAttributes
		json.Unmarshal(raw, &a)
		return a
	}
	if attrs == nil {
		return RawAttributes{}
	}
	return RawAttributes(attrs)
}

// Section is one typed content block within a page.
type Section struct {
	ID    string     `json:"id"`
	Type  WidgetType `json:"type"`
	Attrs Attributes `json:"-"`
}

// sectionJSON is the wire form of Section; attributes are serialized as
// a free-form map and re-typed on load.
type sectionJSON struct {
	ID         string                 `json:"id"`
	Type       WidgetType             `json:"type"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// MarshalJSON serializes the typed attribute record as a plain map.
func (s Section) MarshalJSON() ([]byte, error) {
	var attrMap map[string]interface{}
	if s.Attrs != nil {
		raw, err := json.Marshal(s.Attrs)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &attrMap); err != nil {
			return nil, err
		}
	}
	return json.Marshal(sectionJSON{ID: s.ID, Type: s.Type, Attributes: attrMap})
}

// UnmarshalJSON re-types the attribute map for the section's widget.
func (s *Section) UnmarshalJSON(data []byte) error {
	var wire sectionJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	s.ID = wire.ID
	s.Type = wire.Type
	s.Attrs = DecodeAttributes(wire.Type, wire.Attributes)
	return nil
}

// Page is one addressable page in the site.
type Page struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Sections []Section `json:"sections"`
}

// HomePath is the path of the protected home page.
const HomePath = "/"

// ErrHomePageProtected is returned for attempts to delete the home page.
var ErrHomePageProtected = errors.New("the home page cannot be deleted")

// SiteDocument is the complete editable site state. ActivePageID is the
// interpreter's current target page; it persists across agent turns so
// a follow-up batch keeps editing the page the previous batch created.
type SiteDocument struct {
	TemplateID   TemplateID `json:"templateId"`
	Pages        []Page     `json:"pages"`
	ActivePageID string     `json:"activePageId,omitempty"`
}

// NewDocument creates a document with the given template and an empty
// protected home page, which starts as the active page.
func NewDocument(template TemplateID) *SiteDocument {
	home := Page{
		ID:       uuid.NewString(),
		Name:     "Home",
		Path:     HomePath,
		Sections: []Section{},
	}
	return &SiteDocument{
		TemplateID:   template,
		Pages:        []Page{home},
		ActivePageID: home.ID,
	}
}

// PathForName derives a page path from its display name: lowercase,
// spaces replaced with hyphens.
func PathForName(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	return "/" + slug
}

// PageByID returns the page with the given ID, or nil.
func (d *SiteDocument) PageByID(id string) *Page {
	for i := range d.Pages {
		if d.Pages[i].ID == id {
			return &d.Pages[i]
		}
	}
	return nil
}

// PageByPath returns the page with the given path, or nil.
func (d *SiteDocument) PageByPath(path string) *Page {
	for i := range d.Pages {
		if d.Pages[i].Path == path {
			return &d.Pages[i]
		}
	}
	return nil
}

// HomePage returns the protected home page.
func (d *SiteDocument) HomePage() *Page {
	return d.PageByPath(HomePath)
}

// CreatePage appends an empty page named name. If a page with the
// derived path already exists, no page is created and the existing
// page's ID is returned, so repeated creation is idempotent.
func (d *SiteDocument) CreatePage(name string) (pageID string, created bool) {
	path := PathForName(name)
	if existing := d.PageByPath(path); existing != nil {
		return existing.ID, false
	}
	page := Page{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(name),
		Path:     path,
		Sections: []Section{},
	}
	d.Pages = append(d.Pages, page)
	return page.ID, true
}

// DeletePage removes the page with the given ID. Deleting the home
// page is a validation error and leaves the document unchanged.
func (d *SiteDocument) DeletePage(id string) error {
	for i := range d.Pages {
		if d.Pages[i].ID != id {
			continue
		}
		if d.Pages[i].Path == HomePath {
			return ErrHomePageProtected
		}
		d.Pages = append(d.Pages[:i], d.Pages[i+1:]...)
		if d.ActivePageID == id {
			if home := d.HomePage(); home != nil {
				d.ActivePageID = home.ID
			}
		}
		return nil
	}
	return fmt.Errorf("page %s not found", id)
}

// Clone returns a deep copy of the document.
func (d *SiteDocument) Clone() *SiteDocument {
	out := &SiteDocument{
		TemplateID:   d.TemplateID,
		ActivePageID: d.ActivePageID,
		Pages:        make([]Page, len(d.Pages)),
	}
	for i, p := range d.Pages {
		cp := p
		cp.Sections = make([]Section, len(p.Sections))
		copy(cp.Sections, p.Sections)
		out.Pages[i] = cp
	}
	return out
}
