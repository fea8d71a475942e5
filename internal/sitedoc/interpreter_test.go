package sitedoc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestApplyCreateThenPopulate(t *testing.T) {
	doc := NewDocument(TemplateEnterpriseBase)

	next := Apply(doc, []CommandAction{
		{Action: ActionCreatePage, PageName: "Services"},
		{Action: ActionAddWidget, WidgetType: WidgetHero, Attributes: map[string]interface{}{"title": "Welcome"}},
		{Action: ActionAddWidget, WidgetType: WidgetGrid},
	})

	if len(next.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(next.Pages))
	}
	services := next.PageByPath("/services")
	if services == nil {
		t.Fatal("no /services page")
	}
	if len(services.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(services.Sections))
	}
	if services.Sections[0].Type != WidgetHero {
		t.Errorf("first section type = %s, want Hero", services.Sections[0].Type)
	}
	hero, ok := services.Sections[0].Attrs.(HeroAttributes)
	if !ok || hero.Title != "Welcome" {
		t.Errorf("hero attrs = %+v", services.Sections[0].Attrs)
	}
	if next.ActivePageID != services.ID {
		t.Errorf("active page should be the created page")
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	doc := NewDocument(TemplateEnterpriseBase)
	snapshot := doc.Clone()

	_ = Apply(doc, []CommandAction{
		{Action: ActionCreatePage, PageName: "Services"},
		{Action: ActionSetTemplate, TemplateID: "SaaS Landing"},
		{Action: ActionAddWidget, WidgetType: WidgetHero, Attributes: map[string]interface{}{"title": "x"}},
	})

	if diff := cmp.Diff(snapshot, doc); diff != "" {
		t.Errorf("input document mutated (-before +after):\n%s", diff)
	}
}

func TestApplySetTemplate(t *testing.T) {
	doc := NewDocument(TemplateEnterpriseBase)

	next := Apply(doc, []CommandAction{
		{Action: ActionSetTemplate, TemplateID: "modern-portfolio"},
	})
	if next.TemplateID != TemplateModernPortfolio {
		t.Errorf("template = %s, want Modern Portfolio", next.TemplateID)
	}

	// Unknown template leaves the document alone.
	next = Apply(doc, []CommandAction{
		{Action: ActionSetTemplate, TemplateID: "Brutalist"},
	})
	if next.TemplateID != TemplateEnterpriseBase {
		t.Errorf("unknown template should be a no-op, got %s", next.TemplateID)
	}
}

func TestApplyResetPage(t *testing.T) {
	doc := NewDocument(TemplateEnterpriseBase)
	doc = Apply(doc, []CommandAction{
		{Action: ActionAddWidget, WidgetType: WidgetHero},
		{Action: ActionAddWidget, WidgetType: WidgetContact},
	})
	if len(doc.HomePage().Sections) != 2 {
		t.Fatalf("setup: home sections = %d", len(doc.HomePage().Sections))
	}

	next := Apply(doc, []CommandAction{{Action: ActionResetPage}})
	if len(next.HomePage().Sections) != 0 {
		t.Errorf("home sections after reset = %d, want 0", len(next.HomePage().Sections))
	}
}

func TestApplyIdempotentCreateAcrossBatches(t *testing.T) {
	doc := NewDocument(TemplateEnterpriseBase)

	doc = Apply(doc, []CommandAction{{Action: ActionCreatePage, PageName: "Services"}})
	doc = Apply(doc, []CommandAction{
		{Action: ActionCreatePage, PageName: "Services"},
		{Action: ActionAddWidget, WidgetType: WidgetPricing},
	})

	count := 0
	for _, p := range doc.Pages {
		if p.Path == "/services" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("pages at /services = %d, want 1", count)
	}
	if len(doc.PageByPath("/services").Sections) != 1 {
		t.Errorf("second batch should populate the existing page")
	}
}

func TestApplyTargetPersistsAcrossBatches(t *testing.T) {
	doc := NewDocument(TemplateEnterpriseBase)

	doc = Apply(doc, []CommandAction{{Action: ActionCreatePage, PageName: "About"}})
	doc = Apply(doc, []CommandAction{{Action: ActionAddWidget, WidgetType: WidgetContact}})

	about := doc.PageByPath("/about")
	if len(about.Sections) != 1 {
		t.Errorf("follow-up batch should target the previously created page, about sections = %d", len(about.Sections))
	}
	if len(doc.HomePage().Sections) != 0 {
		t.Errorf("home page should be untouched")
	}
}

func TestApplyStaleTargetFallsBackToHome(t *testing.T) {
	doc := NewDocument(TemplateEnterpriseBase)
	doc.ActivePageID = "deleted-page-id"

	next := Apply(doc, []CommandAction{{Action: ActionAddWidget, WidgetType: WidgetHero}})
	if len(next.HomePage().Sections) != 1 {
		t.Errorf("stale target should fall back to home")
	}
}

func TestApplyEmptyBatch(t *testing.T) {
	doc := NewDocument(TemplateEnterpriseBase)
	next := Apply(doc, nil)
	if len(next.Pages) != 1 || next.TemplateID != doc.TemplateID {
		t.Errorf("empty batch changed the document: %+v", next)
	}
}
