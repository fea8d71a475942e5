package profile

import (
	"path/filepath"
	"testing"

	"brandos/internal/events"
	"brandos/internal/store"
	"brandos/internal/types"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.NewLocalStore(filepath.Join(t.TempDir(), "brandos.db"))
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewService(st, events.New())
}

func TestSaveCreatesProfile(t *testing.T) {
	svc := newTestService(t)

	merged, err := svc.Save("t1", &types.Profile{CompanyName: "Acme", Industry: "Robotics"})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if merged.CompanyName != "Acme" || merged.UpdatedAt == "" {
		t.Errorf("merged = %+v", merged)
	}

	loaded, err := svc.Get("t1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded == nil || loaded.Industry != "Robotics" {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestSavePartialMerge(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Save("t1", &types.Profile{
		CompanyName: "Acme",
		Industry:    "Robotics",
		Mission:     "Ship everywhere",
	})
	if err != nil {
		t.Fatalf("initial Save failed: %v", err)
	}

	// A later onboarding step submits only the fields it collects.
	merged, err := svc.Save("t1", &types.Profile{
		BrandVoice: "Bold",
		ValueProps: []string{"Fast", "Durable"},
	})
	if err != nil {
		t.Fatalf("patch Save failed: %v", err)
	}

	if merged.CompanyName != "Acme" || merged.Mission != "Ship everywhere" {
		t.Errorf("earlier fields lost: %+v", merged)
	}
	if merged.BrandVoice != "Bold" || len(merged.ValueProps) != 2 {
		t.Errorf("patch fields not applied: %+v", merged)
	}
}

func TestSaveReplacesSlices(t *testing.T) {
	svc := newTestService(t)

	_, _ = svc.Save("t1", &types.Profile{Offerings: []types.Offering{{Name: "Anvils"}}})
	merged, err := svc.Save("t1", &types.Profile{Offerings: []types.Offering{{Name: "Rockets"}, {Name: "Springs"}}})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(merged.Offerings) != 2 || merged.Offerings[0].Name != "Rockets" {
		t.Errorf("offerings should be replaced, not appended: %+v", merged.Offerings)
	}
}

func TestGetUnknownTenant(t *testing.T) {
	svc := newTestService(t)
	p, err := svc.Get("ghost")
	if err != nil || p != nil {
		t.Errorf("Get(ghost) = (%+v, %v), want (nil, nil)", p, err)
	}
}
