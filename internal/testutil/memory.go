// Package testutil provides in-memory repositories for use case and handler tests.
package testutil

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planit/backend/domain"
	"github.com/planit/backend/repository"
)

// ErrUnavailable simulates a datastore outage.
var ErrUnavailable = errors.New("testutil: store unavailable")

// Tasks is an in-memory TaskRepository. Set Fail to make every call error.
type Tasks struct {
	mu    sync.Mutex
	items map[string]domain.Task
	order []string
	Fail  bool
}

func NewTasks(tasks ...domain.Task) *Tasks {
	t := &Tasks{items: make(map[string]domain.Task)}
	for _, task := range tasks {
		t.put(task)
	}
	return t
}

func (t *Tasks) put(task domain.Task) {
	if _, ok := t.items[task.ID]; !ok {
		t.order = append(t.order, task.ID)
	}
	t.items[task.ID] = task
}

// All returns every stored task in insertion order.
func (t *Tasks) All() []domain.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]domain.Task, 0, len(t.order))
	for _, id := range t.order {
		if task, ok := t.items[id]; ok {
			out = append(out, task)
		}
	}
	return out
}

func (t *Tasks) GetByID(_ context.Context, id string) (*domain.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Fail {
		return nil, ErrUnavailable
	}
	task, ok := t.items[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (t *Tasks) List(_ context.Context, f repository.TaskFilter) ([]domain.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Fail {
		return nil, ErrUnavailable
	}
	out := make([]domain.Task, 0)
	for _, id := range t.order {
		task, ok := t.items[id]
		if !ok {
			continue
		}
		if f.UserID != "" && task.UserID != f.UserID ||
			f.Status != "" && !strings.EqualFold(task.Status, f.Status) ||
			f.Priority != "" && !strings.EqualFold(task.Priority, f.Priority) ||
			f.Search != "" && !strings.Contains(strings.ToLower(task.Title), strings.ToLower(f.Search)) ||
			f.DueBefore != nil && (task.DueDate == nil || task.DueDate.After(*f.DueBefore)) {
			continue
		}
		out = append(out, task)
	}
	if f.Offset > 0 {
		out = out[min(f.Offset, len(out)):]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (t *Tasks) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Fail {
		return nil, ErrUnavailable
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now()
	task.CreatedAt, task.UpdatedAt = now, now
	t.put(*task)
	return task, nil
}

func (t *Tasks) Update(_ context.Context, task *domain.Task) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Fail {
		return ErrUnavailable
	}
	if _, ok := t.items[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	task.UpdatedAt = time.Now()
	t.items[task.ID] = *task
	return nil
}

func (t *Tasks) Delete(_ context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Fail {
		return ErrUnavailable
	}
	if _, ok := t.items[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(t.items, id)
	return nil
}

func (t *Tasks) ListOverdue(_ context.Context, now time.Time, limit int) ([]domain.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Fail {
		return nil, ErrUnavailable
	}
	out := make([]domain.Task, 0)
	for _, id := range t.order {
		task, ok := t.items[id]
		if !ok || !task.IsOverdue(now) || task.Metadata[domain.MetaDeadlinePenalized] != "" {
			continue
		}
		out = append(out, task)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (t *Tasks) ActivityByDay(_ context.Context, userID string, since time.Time) (domain.ActivityMap, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Fail {
		return nil, ErrUnavailable
	}
	activity := make(domain.ActivityMap)
	for _, task := range t.items {
		if task.UserID != userID || !task.IsCompleted() || task.CompletedAt == nil || task.CompletedAt.Before(since) {
			continue
		}
		activity[task.CompletedAt.UTC().Format(domain.DateLayout)]++
	}
	return activity, nil
}

func (t *Tasks) CountByStatus(_ context.Context, userID string) (map[string]int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Fail {
		return nil, ErrUnavailable
	}
	counts := map[string]int{domain.StatusPending: 0, domain.StatusInProgress: 0, domain.StatusCompleted: 0}
	for _, task := range t.items {
		if task.UserID == userID {
			counts[task.Status]++
		}
	}
	return counts, nil
}

// Users is an in-memory UserRepository. IncrementPoints does not floor the
// balance, so callers see negative results the way a plain increment would.
type Users struct {
	mu         sync.Mutex
	items      map[string]domain.User
	ClampCalls int
	Fail       bool
	// FailUpsert fails profile writes only.
	FailUpsert bool
}

func NewUsers(users ...domain.User) *Users {
	u := &Users{items: make(map[string]domain.User)}
	for _, user := range users {
		u.items[user.ID] = user
	}
	return u
}

func (u *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Fail {
		return nil, ErrUnavailable
	}
	user, ok := u.items[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Fail {
		return nil, ErrUnavailable
	}
	for _, user := range u.items {
		if strings.EqualFold(user.Email, strings.TrimSpace(email)) {
			return &user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (u *Users) Create(_ context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Fail {
		return ErrUnavailable
	}
	for _, existing := range u.items {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.ErrEmailTaken
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt, user.UpdatedAt = time.Now(), time.Now()
	u.items[user.ID] = *user
	return nil
}

func (u *Users) Upsert(_ context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Fail || u.FailUpsert {
		return ErrUnavailable
	}
	if existing, ok := u.items[user.ID]; ok {
		user.Points = existing.Points
		user.PasswordHash = existing.PasswordHash
		user.LastDailyCheckinAt = existing.LastDailyCheckinAt
	}
	user.UpdatedAt = time.Now()
	u.items[user.ID] = *user
	return nil
}

func (u *Users) IncrementPoints(_ context.Context, userID string, amount int, checkinAt *time.Time) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Fail {
		return 0, ErrUnavailable
	}
	user, ok := u.items[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	user.Points += amount
	if checkinAt != nil {
		stamp := *checkinAt
		user.LastDailyCheckinAt = &stamp
	}
	u.items[userID] = user
	return user.Points, nil
}

func (u *Users) ClampPoints(_ context.Context, userID string) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ClampCalls++
	user, ok := u.items[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	user.Points = max(user.Points, 0)
	u.items[userID] = user
	return user.Points, nil
}

// Activities is an in-memory points ledger.
type Activities struct {
	mu    sync.Mutex
	items []domain.PointActivity
	Fail  bool
}

func NewActivities() *Activities {
	return &Activities{}
}

func (a *Activities) Append(_ context.Context, activity *domain.PointActivity) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Fail {
		return ErrUnavailable
	}
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	activity.CreatedAt = time.Now()
	a.items = append(a.items, *activity)
	return nil
}

func (a *Activities) ListByUser(_ context.Context, userID string, limit int) ([]domain.PointActivity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Fail {
		return nil, ErrUnavailable
	}
	out := make([]domain.PointActivity, 0)
	for _, act := range slices.Backward(a.items) {
		if act.UserID == userID {
			out = append(out, act)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// All returns the ledger in append order.
func (a *Activities) All() []domain.PointActivity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.items)
}

// Guard is an in-memory CheckinGuard.
type Guard struct {
	mu   sync.Mutex
	held map[string]bool
	Fail bool
}

func NewGuard() *Guard {
	return &Guard{held: make(map[string]bool)}
}

func (g *Guard) Acquire(_ context.Context, userID, day string, _ time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Fail {
		return false, ErrUnavailable
	}
	key := userID + ":" + day
	if g.held[key] {
		return false, nil
	}
	g.held[key] = true
	return true, nil
}

func (g *Guard) Release(_ context.Context, userID, day string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, userID+":"+day)
	return nil
}

// Conversations is an in-memory ConversationRepository.
type Conversations struct {
	mu      sync.Mutex
	pending map[string]domain.PendingSelection
	lists   map[string][]domain.TaskSummary
}

func NewConversations() *Conversations {
	return &Conversations{
		pending: make(map[string]domain.PendingSelection),
		lists:   make(map[string][]domain.TaskSummary),
	}
}

func (c *Conversations) SavePending(_ context.Context, userID string, p *domain.PendingSelection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[userID] = *p
	return nil
}

func (c *Conversations) GetPending(_ context.Context, userID string) (*domain.PendingSelection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[userID]
	if !ok {
		return nil, domain.ErrNoPendingSelection
	}
	return &p, nil
}

func (c *Conversations) ClearPending(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, userID)
	return nil
}

func (c *Conversations) SaveLastList(_ context.Context, userID string, tasks []domain.TaskSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[userID] = slices.Clone(tasks)
	return nil
}

func (c *Conversations) GetLastList(_ context.Context, userID string) ([]domain.TaskSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lists[userID], nil
}

// Sessions is an in-memory SessionRepository.
type Sessions struct {
	mu    sync.Mutex
	items map[string]domain.Session
}

func NewSessions() *Sessions {
	return &Sessions{items: make(map[string]domain.Session)}
}

func (s *Sessions) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.items[id]
	if !ok || session.IsExpired(time.Now()) {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (s *Sessions) Save(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.ID == "" || session.UserID == "" {
		return domain.ErrInvalidPayload
	}
	s.items[session.ID] = *session
	return nil
}

func (s *Sessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *Sessions) Extend(_ context.Context, id string, ttlSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.items[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.ExpiresAt = time.Now().Add(time.Duration(ttlSeconds) * time.Second)
	s.items[id] = session
	return nil
}

// Buffer records buffered writes instead of persisting them.
type Buffer struct {
	mu         sync.Mutex
	Tasks      []string
	Profiles   []string
	Activities []domain.PointActivity
}

func (b *Buffer) BufferProfile(_ context.Context, operation string, user *domain.User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Profiles = append(b.Profiles, operation+":"+user.ID)
	return nil
}

func (b *Buffer) BufferTask(_ context.Context, operation string, task *domain.Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Tasks = append(b.Tasks, operation+":"+task.ID)
	return nil
}

func (b *Buffer) BufferPointActivity(_ context.Context, activity *domain.PointActivity) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Activities = append(b.Activities, *activity)
	return nil
}

var (
	_ repository.TaskRepository          = (*Tasks)(nil)
	_ repository.UserRepository          = (*Users)(nil)
	_ repository.PointActivityRepository = (*Activities)(nil)
	_ repository.CheckinGuard            = (*Guard)(nil)
	_ repository.SessionRepository       = (*Sessions)(nil)
	_ repository.ConversationRepository  = (*Conversations)(nil)
)
