package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"brandos/internal/sitedoc"
)

var errTransport = errors.New("connection reset")

func provisionTestSite(t *testing.T, a *Assistant) *sitedoc.Site {
	t.Helper()
	site, err := a.sites.Provision("t1", "Acme Digital Twin", sitedoc.TemplateEnterpriseBase)
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	return site
}

func TestBuildSiteAppliesBatch(t *testing.T) {
	model := &fakeModel{
		completion: `Setting up your services page.
[{"action":"CREATE_PAGE","pageName":"Services"},{"action":"ADD_WIDGET","widgetType":"Hero","attributes":{"title":"Welcome"}},{"action":"ADD_WIDGET","widgetType":"Grid"}]`,
	}
	a, _ := newTestAssistant(t, model)
	site := provisionTestSite(t, a)

	result, err := a.BuildSite(context.Background(), "t1", site.ID, "build a services page")
	if err != nil {
		t.Fatalf("BuildSite failed: %v", err)
	}
	if result.ActionsApplied != 3 {
		t.Errorf("actions applied = %d, want 3", result.ActionsApplied)
	}
	if result.Reply != "Setting up your services page." {
		t.Errorf("reply = %q", result.Reply)
	}

	loaded, _ := a.sites.Load("t1", site.ID)
	if len(loaded.Document.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(loaded.Document.Pages))
	}
	services := loaded.Document.PageByPath("/services")
	if services == nil || len(services.Sections) != 2 {
		t.Fatalf("services page = %+v", services)
	}
	if !strings.Contains(result.Markup, "Welcome") {
		t.Error("markup should render the new hero")
	}
}

func TestBuildSiteParseFailureAppliesNothing(t *testing.T) {
	model := &fakeModel{completion: "Let me think about your brand positioning first."}
	a, st := newTestAssistant(t, model)
	site := provisionTestSite(t, a)

	result, err := a.BuildSite(context.Background(), "t1", site.ID, "any thoughts?")
	if err != nil {
		t.Fatalf("BuildSite failed: %v", err)
	}
	if result.ActionsApplied != 0 {
		t.Errorf("actions applied = %d, want 0", result.ActionsApplied)
	}
	if result.Reply != "Let me think about your brand positioning first." {
		t.Errorf("full conversational text must be preserved, got %q", result.Reply)
	}

	loaded, _ := a.sites.Load("t1", site.ID)
	if len(loaded.Document.Pages) != 1 || len(loaded.Document.HomePage().Sections) != 0 {
		t.Errorf("document changed despite parse failure: %+v", loaded.Document)
	}

	history, _ := st.History("t1")
	if len(history) != 2 {
		t.Errorf("conversational turn should still persist, got %d turns", len(history))
	}
}

func TestBuildSiteTargetPersistsAcrossTurns(t *testing.T) {
	model := &fakeModel{
		completion: `[{"action":"CREATE_PAGE","pageName":"About"}]`,
	}
	a, _ := newTestAssistant(t, model)
	site := provisionTestSite(t, a)

	if _, err := a.BuildSite(context.Background(), "t1", site.ID, "create an about page"); err != nil {
		t.Fatalf("first turn failed: %v", err)
	}

	model.completion = `[{"action":"ADD_WIDGET","widgetType":"Contact"}]`
	if _, err := a.BuildSite(context.Background(), "t1", site.ID, "add a contact block"); err != nil {
		t.Fatalf("second turn failed: %v", err)
	}

	loaded, _ := a.sites.Load("t1", site.ID)
	about := loaded.Document.PageByPath("/about")
	if about == nil || len(about.Sections) != 1 {
		t.Errorf("second turn should target the page created in the first: %+v", about)
	}
	if len(loaded.Document.HomePage().Sections) != 0 {
		t.Error("home page should be untouched")
	}
}

func TestBuildSiteTransportError(t *testing.T) {
	model := &fakeModel{completeErr: errTransport}
	a, st := newTestAssistant(t, model)
	site := provisionTestSite(t, a)

	result, err := a.BuildSite(context.Background(), "t1", site.ID, "build something")
	if err != nil {
		t.Fatalf("BuildSite should degrade, not error: %v", err)
	}
	if result.Reply != MsgServiceUnavailable || !result.Degraded {
		t.Errorf("result = %+v", result)
	}

	history, _ := st.History("t1")
	if len(history) != 0 {
		t.Errorf("failed turn leaked into history: %d turns", len(history))
	}
	loaded, _ := a.sites.Load("t1", site.ID)
	if len(loaded.Document.Pages) != 1 {
		t.Errorf("document changed on transport error")
	}
}

func TestBuildSiteUnknownSite(t *testing.T) {
	model := &fakeModel{completion: "ok"}
	a, _ := newTestAssistant(t, model)

	if _, err := a.BuildSite(context.Background(), "t1", "no-such-site", "hi"); err == nil {
		t.Fatal("expected error for unknown site")
	}
}
