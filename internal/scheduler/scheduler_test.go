package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/yourusername/telegram-comment-fleet/config"
	"github.com/yourusername/telegram-comment-fleet/internal/domain"
	"github.com/yourusername/telegram-comment-fleet/internal/infrastructure/metrics"
	apperrors "github.com/yourusername/telegram-comment-fleet/pkg/errors"
)

type schedulerFixture struct {
	sched    *Scheduler
	accounts *mockAccountRepo
	registry *Registry
	clients  []*mockClient

	connectErr error
}

func newSchedulerFixture(t *testing.T, accounts ...*domain.Account) *schedulerFixture {
	t.Helper()

	repo := newMockAccountRepo(accounts...)
	registry := NewRegistry()
	f := &schedulerFixture{accounts: repo, registry: registry}

	cfg := &config.WorkerConfig{
		MaxConcurrent:   5,
		ConnectTimeout:  time.Second,
		StopPoll:        10 * time.Millisecond,
		ShutdownTimeout: time.Second,
	}

	deps := WorkerDeps{
		Policy:    NewPolicy(testScheduleConfig()),
		Gate:      NewGate(cfg.MaxConcurrent),
		Comments:  &mockCommentLog{},
		Generator: &mockGenerator{reply: "ok"},
		Notifier:  &mockNotifier{},
		Events:    &mockEvents{},
		Metrics:   metrics.GetDefaultMetrics(),
		Config:    cfg,
		Logger:    zerolog.Nop(),
	}

	factory := func(int64, string) (domain.TelegramClient, error) {
		client := newMockClient()
		client.connectErr = f.connectErr
		f.clients = append(f.clients, client)
		return client, nil
	}

	f.sched = NewScheduler(repo, registry, factory, deps, cfg, metrics.GetDefaultMetrics(), zerolog.Nop())
	return f
}

func standardAccount(id int64) *domain.Account {
	return &domain.Account{
		ID:     id,
		UserID: 10,
		Phone:  "+4915222222222",
		Chance: 100,
		Mode:   domain.ModeStandard,
		Status: domain.StatusStopped,
	}
}

func TestSchedulerStartsStandardAccountWithWorker(t *testing.T) {
	f := newSchedulerFixture(t, standardAccount(1))

	if err := f.sched.StartAccount(context.Background(), 1); err != nil {
		t.Fatalf("StartAccount: %v", err)
	}

	if !f.sched.IsLive(1) {
		t.Error("standard account must hold a live worker")
	}
	if got := f.accounts.get(1).Status; got != domain.StatusRunning {
		t.Errorf("status = %q, want running", got)
	}
	if len(f.clients) != 1 || !f.clients[0].IsConnected() {
		t.Error("worker client must be connected")
	}
}

func TestSchedulerStartsWarmupAccountWithoutWorker(t *testing.T) {
	account := warmupAccount(1)
	account.Status = domain.StatusStopped
	f := newSchedulerFixture(t, account)

	if err := f.sched.StartAccount(context.Background(), 1); err != nil {
		t.Fatalf("StartAccount: %v", err)
	}

	if !f.sched.IsManaged(1) {
		t.Error("warmup account must be registered")
	}
	if f.sched.IsLive(1) {
		t.Error("warmup account must not hold a live connection")
	}
	if len(f.clients) != 0 {
		t.Errorf("clients created = %d, want 0", len(f.clients))
	}
}

func TestSchedulerRejectsDoubleStart(t *testing.T) {
	f := newSchedulerFixture(t, standardAccount(1))

	if err := f.sched.StartAccount(context.Background(), 1); err != nil {
		t.Fatalf("first StartAccount: %v", err)
	}
	if err := f.sched.StartAccount(context.Background(), 1); !errors.Is(err, domain.ErrAlreadyRunning) {
		t.Fatalf("second StartAccount = %v, want ErrAlreadyRunning", err)
	}
}

func TestSchedulerRollsBackOnConnectFailure(t *testing.T) {
	f := newSchedulerFixture(t, standardAccount(1))
	f.connectErr = apperrors.NewCredentialErrorf("session is not authorized")

	err := f.sched.StartAccount(context.Background(), 1)
	if !apperrors.IsCredential(err) {
		t.Fatalf("StartAccount = %v, want credential error", err)
	}

	if f.sched.IsManaged(1) {
		t.Error("failed start must not leave the account registered")
	}
	if got := f.accounts.get(1).Status; got != domain.StatusStopped {
		t.Errorf("status = %q, want stopped after rollback", got)
	}
}

func TestSchedulerStopAccount(t *testing.T) {
	f := newSchedulerFixture(t, standardAccount(1))
	_ = f.sched.StartAccount(context.Background(), 1)

	if err := f.sched.StopAccount(context.Background(), 1); err != nil {
		t.Fatalf("StopAccount: %v", err)
	}

	if f.sched.IsManaged(1) {
		t.Error("stopped account must not stay registered")
	}
	if got := f.accounts.get(1).Status; got != domain.StatusStopped {
		t.Errorf("status = %q, want stopped", got)
	}
	if f.clients[0].IsConnected() {
		t.Error("worker client must be disconnected")
	}
}

func TestSchedulerStopUnmanagedAccountLeavesGauge(t *testing.T) {
	f := newSchedulerFixture(t, standardAccount(1))

	before := testutil.ToFloat64(metrics.GetDefaultMetrics().RunningAccounts)
	if err := f.sched.StopAccount(context.Background(), 1); err != nil {
		t.Fatalf("StopAccount: %v", err)
	}
	after := testutil.ToFloat64(metrics.GetDefaultMetrics().RunningAccounts)

	if after != before {
		t.Errorf("running gauge moved from %v to %v on an unmanaged stop", before, after)
	}
	if got := f.accounts.get(1).Status; got != domain.StatusStopped {
		t.Errorf("status = %q, want stopped", got)
	}
}

func TestSchedulerStopsAccountWhenWorkerDies(t *testing.T) {
	f := newSchedulerFixture(t, standardAccount(1))
	if err := f.sched.StartAccount(context.Background(), 1); err != nil {
		t.Fatalf("StartAccount: %v", err)
	}

	// Simulate a dropped connection; the watch loop notices and exits.
	_ = f.clients[0].Disconnect(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if !f.sched.IsManaged(1) && f.accounts.get(1).Status == domain.StatusStopped {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if f.sched.IsManaged(1) {
		t.Error("dead worker must unregister its account")
	}
	if got := f.accounts.get(1).Status; got != domain.StatusStopped {
		t.Errorf("status = %q, want stopped after worker death", got)
	}
}

func TestSchedulerRestoreBringsBackRunningAccounts(t *testing.T) {
	running := standardAccount(1)
	running.Status = domain.StatusRunning
	stopped := standardAccount(2)
	warmup := warmupAccount(3)

	f := newSchedulerFixture(t, running, stopped, warmup)

	if err := f.sched.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if !f.sched.IsLive(1) {
		t.Error("running standard account must come back live")
	}
	if f.sched.IsManaged(2) {
		t.Error("stopped account must not be restored")
	}
	if !f.sched.IsManaged(3) || f.sched.IsLive(3) {
		t.Error("running warmup account must be registered without a worker")
	}
}

func TestSchedulerShutdownKeepsStoredStatus(t *testing.T) {
	f := newSchedulerFixture(t, standardAccount(1))
	_ = f.sched.StartAccount(context.Background(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	f.sched.Shutdown(ctx)

	if f.sched.IsManaged(1) {
		t.Error("shutdown must clear the registry")
	}
	// Status stays running so the next Restore resumes the account.
	if got := f.accounts.get(1).Status; got != domain.StatusRunning {
		t.Errorf("status = %q, want running after shutdown", got)
	}
}
