package services

import (
	"context"
	"testing"

	"github.com/tbourn/go-chat-relay/internal/domain"
)

func TestActivationRegistry_RoundTrip(t *testing.T) {
	reg := NewActivationRegistry(newSvcDB(t, true))
	ctx := context.Background()

	if got := reg.GetStatus(ctx, "62811"); got != domain.StatusInactive {
		t.Fatalf("unknown contact: got %q", got)
	}
	if !reg.SetStatus(ctx, "62811", domain.StatusActive, "Budi") {
		t.Fatalf("SetStatus active failed")
	}
	if got := reg.GetStatus(ctx, "62811"); got != domain.StatusActive {
		t.Fatalf("after activate: got %q", got)
	}
	if !reg.SetStatus(ctx, "62811", domain.StatusInactive, "Budi") {
		t.Fatalf("SetStatus inactive failed")
	}
	if got := reg.GetStatus(ctx, "62811"); got != domain.StatusInactive {
		t.Fatalf("after deactivate: got %q", got)
	}
}

func TestActivationRegistry_FailsOpenToInactive(t *testing.T) {
	reg := NewActivationRegistry(newSvcDB(t, false))
	ctx := context.Background()

	if got := reg.GetStatus(ctx, "62811"); got != domain.StatusInactive {
		t.Fatalf("lookup failure must read as inactive, got %q", got)
	}
	if reg.SetStatus(ctx, "62811", domain.StatusActive, "") {
		t.Fatalf("SetStatus should report failure without a table")
	}
}
