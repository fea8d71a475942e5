package assistant

import (
	"context"
	"errors"
	"testing"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		answer string
		want   Intent
	}{
		{"INTERNAL", IntentInternal},
		{"internal", IntentInternal},
		{" Market ", IntentMarket},
		{"GENERAL", IntentGeneral},
		{"MARKET.", IntentMarket},
		{`"INTERNAL"`, IntentInternal},
		{"I think this is INTERNAL because...", IntentGeneral},
		{"UNKNOWN_LABEL", IntentGeneral},
		{"", IntentGeneral},
	}
	for _, tt := range tests {
		if got := parseIntent(tt.answer); got != tt.want {
			t.Errorf("parseIntent(%q) = %s, want %s", tt.answer, got, tt.want)
		}
	}
}

func TestRouteFallsBackOnError(t *testing.T) {
	model := &fakeModel{routeErr: errors.New("timeout")}
	r := NewRouter(model)

	if got := r.Route(context.Background(), "anything"); got != IntentGeneral {
		t.Errorf("Route on failure = %s, want GENERAL", got)
	}
}

func TestRouteKnownLabels(t *testing.T) {
	for _, label := range []string{"INTERNAL", "MARKET", "GENERAL"} {
		model := &fakeModel{routeAnswer: label}
		r := NewRouter(model)
		if got := r.Route(context.Background(), "q"); string(got) != label {
			t.Errorf("Route with answer %q = %s", label, got)
		}
	}
}
