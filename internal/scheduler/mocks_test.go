package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

// mockAccountRepo is an in-memory domain.AccountRepository.
type mockAccountRepo struct {
	mu       sync.Mutex
	accounts map[int64]*domain.Account

	// now is swapped by fixtures that drive a fixed clock.
	now func() time.Time

	modeChanges  []domain.AccountMode
	dailyResets  int
	joinsCounted int
}

func newMockAccountRepo(accounts ...*domain.Account) *mockAccountRepo {
	m := &mockAccountRepo{
		accounts: make(map[int64]*domain.Account),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, a := range accounts {
		copied := *a
		m.accounts[a.ID] = &copied
	}
	return m
}

func (m *mockAccountRepo) get(id int64) *domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id]
}

func (m *mockAccountRepo) Get(_ context.Context, id int64) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockAccountRepo) GetByPhone(_ context.Context, userID int64, phone string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.UserID == userID && a.Phone == phone {
			copied := *a
			return &copied, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *mockAccountRepo) ListRunning(_ context.Context) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Account
	for _, a := range m.accounts {
		if a.Status == domain.StatusRunning {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAccountRepo) ListWarmupRunning(_ context.Context) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Account
	for _, a := range m.accounts {
		if a.Status == domain.StatusRunning && a.Mode == domain.ModeWarmup {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockAccountRepo) Ensure(_ context.Context, userID int64, phone, sessionPath string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.UserID == userID && a.Phone == phone {
			copied := *a
			return &copied, nil
		}
	}
	id := int64(len(m.accounts) + 1)
	a := &domain.Account{
		ID: id, UserID: userID, Phone: phone, SessionPath: sessionPath,
		Chance: 100, SleepMin: 10, SleepMax: 20,
		Mode: domain.ModeWarmup, Status: domain.StatusStopped,
	}
	m.accounts[id] = a
	copied := *a
	return &copied, nil
}

func (m *mockAccountRepo) UpsertSettings(_ context.Context, id int64, settings domain.AccountSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if settings.Chance != nil {
		a.Chance = *settings.Chance
	}
	if settings.SystemPrompt != nil {
		a.SystemPrompt = *settings.SystemPrompt
	}
	if settings.SleepMin != nil {
		a.SleepMin = *settings.SleepMin
	}
	if settings.SleepMax != nil {
		a.SleepMax = *settings.SleepMax
	}
	if settings.Channels != nil {
		a.Channels = settings.Channels
	}
	return nil
}

func (m *mockAccountRepo) SetMode(_ context.Context, id int64, mode domain.AccountMode, warmupDays int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Mode = mode
	m.modeChanges = append(m.modeChanges, mode)
	if mode == domain.ModeWarmup && warmupDays > 0 {
		end := time.Now().UTC().AddDate(0, 0, warmupDays)
		a.WarmupEndAt = &end
		a.WarmupJoinedToday = 0
		a.WarmupLastJoin = nil
		a.WarmupNextJoinAt = nil
	}
	if mode == domain.ModeStandard {
		a.WarmupNextJoinAt = nil
	}
	return nil
}

func (m *mockAccountRepo) SetStatus(_ context.Context, id int64, status domain.AccountStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Status = status
	return nil
}

func (m *mockAccountRepo) SetWarmupChannels(_ context.Context, id int64, channels []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.WarmupChannels = channels
	return nil
}

func (m *mockAccountRepo) IncrementDailyJoins(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	now := m.now()
	a.WarmupJoinedToday++
	a.WarmupLastJoin = &now
	a.WarmupLastJoinAt = &now
	m.joinsCounted++
	return nil
}

func (m *mockAccountRepo) ResetDailyState(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	now := m.now()
	a.WarmupJoinedToday = 0
	a.WarmupLastJoin = &now
	m.dailyResets++
	return nil
}

func (m *mockAccountRepo) ScheduleNextJoin(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.WarmupNextJoinAt = &at
	return nil
}

func (m *mockAccountRepo) Delete(_ context.Context, userID int64, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.accounts {
		if a.UserID == userID && a.Phone == phone {
			delete(m.accounts, id)
			return nil
		}
	}
	return domain.ErrAccountNotFound
}

// mockQueueRepo is an in-memory domain.WarmupQueueRepository.
type mockQueueRepo struct {
	mu      sync.Mutex
	entries map[int64][]domain.WarmupEntry

	replaceCalls int
}

func newMockQueueRepo() *mockQueueRepo {
	return &mockQueueRepo{entries: make(map[int64][]domain.WarmupEntry)}
}

func (m *mockQueueRepo) Replace(_ context.Context, accountID int64, channels []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls++
	entries := make([]domain.WarmupEntry, 0, len(channels))
	for i, ch := range channels {
		entries = append(entries, domain.WarmupEntry{
			AccountID: accountID,
			Channel:   ch,
			Position:  i + 1,
			Status:    domain.QueuePending,
		})
	}
	m.entries[accountID] = entries
	return nil
}

func (m *mockQueueRepo) NextPending(_ context.Context, accountID int64, limit int) ([]domain.WarmupEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.WarmupEntry
	for _, e := range m.entries[accountID] {
		if e.Status == domain.QueuePending {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockQueueRepo) MarkJoined(_ context.Context, accountID int64, channel string) error {
	return m.setStatus(accountID, channel, domain.QueueJoined, "")
}

func (m *mockQueueRepo) MarkError(_ context.Context, accountID int64, channel, reason string) error {
	return m.setStatus(accountID, channel, domain.QueueError, reason)
}

func (m *mockQueueRepo) setStatus(accountID int64, channel string, status domain.QueueStatus, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.entries[accountID]
	for i := range entries {
		if entries[i].Channel == channel {
			entries[i].Status = status
			entries[i].Error = reason
			entries[i].Attempts++
			return nil
		}
	}
	return domain.ErrEntryNotFound
}

func (m *mockQueueRepo) Stats(_ context.Context, accountID int64) (domain.QueueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats domain.QueueStats
	for _, e := range m.entries[accountID] {
		switch e.Status {
		case domain.QueuePending:
			stats.Pending++
		case domain.QueueJoined:
			stats.Joined++
		case domain.QueueError:
			stats.Error++
		}
	}
	return stats, nil
}

func (m *mockQueueRepo) statuses(accountID int64) map[string]domain.QueueStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]domain.QueueStatus)
	for _, e := range m.entries[accountID] {
		out[e.Channel] = e.Status
	}
	return out
}

// mockCommentLog records added entries.
type mockCommentLog struct {
	mu      sync.Mutex
	entries []domain.CommentLog
}

func (m *mockCommentLog) Add(_ context.Context, entry *domain.CommentLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockCommentLog) all() []domain.CommentLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CommentLog(nil), m.entries...)
}

// mockGenerator returns a fixed reply.
type mockGenerator struct {
	reply string
	calls int
}

func (m *mockGenerator) Generate(_ context.Context, _, _ string) string {
	m.calls++
	return m.reply
}

// mockNotifier collects notifications.
type mockNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockNotifier) Notify(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, text)
}

func (m *mockNotifier) all() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

// mockEvents counts published events.
type mockEvents struct {
	mu       sync.Mutex
	comments int
	joins    int
	modes    int
}

func (m *mockEvents) CommentPosted(context.Context, int64, string, int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments++
	return nil
}

func (m *mockEvents) ChannelJoined(context.Context, int64, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joins++
	return nil
}

func (m *mockEvents) ModeChanged(context.Context, int64, domain.AccountMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modes++
	return nil
}

func (m *mockEvents) Close() error { return nil }

// mockClient is a scriptable domain.TelegramClient.
type mockClient struct {
	mu        sync.Mutex
	connected bool

	connectErr error
	joinErr    map[string]error
	sendErr    error

	joined   []string
	left     []string
	linked   []int64
	sent     []string
	handler  domain.PostHandler
	sendID   int
	accountID string
}

func newMockClient() *mockClient {
	return &mockClient{joinErr: make(map[string]error), sendID: 1}
}

func (m *mockClient) Connect(context.Context) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()
	return nil
}

func (m *mockClient) Disconnect(context.Context) error {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
	return nil
}

func (m *mockClient) JoinChannel(_ context.Context, channel string) error {
	if err := m.joinErr[channel]; err != nil {
		return err
	}
	m.mu.Lock()
	m.joined = append(m.joined, channel)
	m.mu.Unlock()
	return nil
}

func (m *mockClient) LeaveChannel(_ context.Context, channel string) error {
	m.mu.Lock()
	m.left = append(m.left, channel)
	m.mu.Unlock()
	return nil
}

func (m *mockClient) JoinLinkedChat(_ context.Context, chatID int64) error {
	m.mu.Lock()
	m.linked = append(m.linked, chatID)
	m.mu.Unlock()
	return nil
}

func (m *mockClient) Subscribe(handler domain.PostHandler) {
	m.handler = handler
}

func (m *mockClient) SendReply(_ context.Context, chatID int64, _ int, text string) (*domain.SentMessage, error) {
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.mu.Lock()
	m.sent = append(m.sent, text)
	id := m.sendID
	m.sendID++
	m.mu.Unlock()
	return &domain.SentMessage{ID: id, ChatID: chatID}, nil
}

func (m *mockClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockClient) AccountID() string { return m.accountID }

func (m *mockClient) sentReplies() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}
