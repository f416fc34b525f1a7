package scheduler

import (
	"errors"
	"testing"

	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

func TestRegistryRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(1); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(1); !errors.Is(err, domain.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	if err := r.Register(2); err != nil {
		t.Fatalf("Register second account: %v", err)
	}
}

func TestRegistryLiveness(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(1)

	if r.IsLive(1) {
		t.Error("account without a worker must not be live")
	}
	if !r.IsRegistered(1) {
		t.Error("registered account must be reported")
	}

	w := &Worker{}
	r.Attach(1, w)
	if !r.IsLive(1) {
		t.Error("attached worker must make the account live")
	}
	if r.LiveCount() != 1 {
		t.Errorf("LiveCount = %d, want 1", r.LiveCount())
	}

	if !r.IsLive(1) || r.IsLive(2) {
		t.Error("liveness must be scoped to the attached account")
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(1)
	w := &Worker{}
	r.Attach(1, w)

	got, removed := r.Remove(1)
	if got != w || !removed {
		t.Error("Remove must return the attached worker")
	}
	if r.IsRegistered(1) {
		t.Error("removed account must not stay registered")
	}
	if got, removed := r.Remove(1); got != nil || removed {
		t.Error("removing an unknown account must report nothing removed")
	}
}

func TestRegistryIDs(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(3)
	_ = r.Register(7)

	ids := r.IDs()
	if len(ids) != 2 {
		t.Fatalf("IDs length = %d, want 2", len(ids))
	}
	seen := map[int64]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[3] || !seen[7] {
		t.Errorf("IDs = %v, want 3 and 7", ids)
	}
}
