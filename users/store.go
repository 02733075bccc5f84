package users

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/jpalmerr/usersboard/internal/dispatcher"
	"github.com/jpalmerr/usersboard/internal/emitter"
)

const (
	// ChangeEvent is the only signal a [UsersStore] emits.
	ChangeEvent = "change"

	// DefaultPageCount is reported by [UsersStore.PageCount] until a page
	// size is configured. Despite the name it is a page size, not a number
	// of pages.
	DefaultPageCount = 50
)

// ListenerID identifies a change listener added with
// [UsersStore.AddChangeListener].
type ListenerID = emitter.ListenerID

// Registrar is the part of a dispatcher the store needs at construction.
type Registrar interface {
	Register(cb func(Action)) dispatcher.Token
}

// State is a consistent copy of everything a [UsersStore] holds.
type State struct {
	Users     []User  `json:"users" yaml:"users"`
	Page      int     `json:"page" yaml:"page"`
	PageCount int     `json:"page_count" yaml:"page_count"`
	Filter    *Filter `json:"filter" yaml:"filter"`
	Count     int     `json:"count" yaml:"count"`
}

// StoreOption configures a [UsersStore] during construction.
type StoreOption func(*storeConfig) error

type storeConfig struct {
	pageCount int
	logger    *slog.Logger
}

// WithPageCount stores an explicit page size. Without it [UsersStore.PageCount]
// reports [DefaultPageCount].
//
// Returns an error if n is zero or negative.
func WithPageCount(n int) StoreOption {
	return func(cfg *storeConfig) error {
		if n <= 0 {
			return errors.New("page count must be positive")
		}
		cfg.pageCount = n
		return nil
	}
}

// WithStoreLogger sets the logger used for action tracing.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(cfg *storeConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// UsersStore owns one page of user records, the page cursor, the filter and
// the total count.
//
// The store registers its callback with the dispatcher when it is created and
// keeps the token for the rest of its life. Getters are safe to call from any
// goroutine; mutation happens only inside the dispatcher callback.
type UsersStore struct {
	mu        sync.RWMutex
	users     []User
	page      int
	pageCount int
	filter    *Filter
	count     int

	events *emitter.Emitter
	token  dispatcher.Token
	logger *slog.Logger
}

// NewStore creates a [UsersStore], registers it with d, and routes its
// change signals through scheduler.
func NewStore(d Registrar, scheduler emitter.Scheduler, opts ...StoreOption) (*UsersStore, error) {
	if d == nil {
		return nil, errors.New("dispatcher is required")
	}
	if scheduler == nil {
		return nil, errors.New("scheduler is required")
	}

	cfg := &storeConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	s := &UsersStore{
		pageCount: cfg.pageCount,
		events:    emitter.New(scheduler, cfg.logger),
		logger:    cfg.logger,
	}
	s.token = d.Register(s.handle)
	return s, nil
}

// Token returns the dispatcher registration token.
func (s *UsersStore) Token() dispatcher.Token {
	return s.token
}

// Users returns a copy of the current page of users. Never nil.
func (s *UsersStore) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUsers(s.users)
}

// Page returns the current page index, 0 if never set.
func (s *UsersStore) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page
}

// PageCount returns the page size, [DefaultPageCount] if never set.
func (s *UsersStore) PageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pageCountLocked()
}

// Filter returns a copy of the current filter, or nil when unfiltered.
func (s *UsersStore) Filter() *Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyFilter(s.filter)
}

// Count returns the total number of records for the current query, 0 if
// never set.
func (s *UsersStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Snapshot returns all five values read together under one lock.
func (s *UsersStore) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Users:     copyUsers(s.users),
		Page:      s.page,
		PageCount: s.pageCountLocked(),
		Filter:    copyFilter(s.filter),
		Count:     s.count,
	}
}

func (s *UsersStore) pageCountLocked() int {
	if s.pageCount == 0 {
		return DefaultPageCount
	}
	return s.pageCount
}

// AddChangeListener registers fn for every future change signal. fn is not
// called immediately.
func (s *UsersStore) AddChangeListener(fn func()) ListenerID {
	return s.events.On(ChangeEvent, fn)
}

// RemoveChangeListener unregisters a listener. Unknown ids are a no-op.
func (s *UsersStore) RemoveChangeListener(id ListenerID) {
	s.events.Off(ChangeEvent, id)
}

// EmitChange posts a change signal to the scheduler. Listeners run when the
// scheduler gets to it, never inside this call.
func (s *UsersStore) EmitChange() {
	s.events.EmitDefer(ChangeEvent)
}

// handle is the dispatcher callback.
func (s *UsersStore) handle(action Action) {
	ua, ok := action.(UserAction)
	if !ok {
		return
	}

	switch a := ua.(type) {
	case TraverseAction:
		s.traverse(a.Page)
	case FilterAction:
		s.setFilter(a.Filter)
	case SyncAction:
		s.sync(a.Users, a.Count)
	}
}

// traverse does not emit: a sync for the new page follows.
func (s *UsersStore) traverse(page int) {
	s.mu.Lock()
	s.page = page
	s.mu.Unlock()

	s.logger.Debug("users traverse", "page", page)
}

func (s *UsersStore) setFilter(filter *Filter) {
	s.mu.Lock()
	s.filter = copyFilter(filter)
	s.mu.Unlock()

	s.logger.Debug("users filter", "filtered", filter != nil)
	s.EmitChange()
}

func (s *UsersStore) sync(users []User, count int) {
	s.mu.Lock()
	s.count = count
	s.users = users
	s.mu.Unlock()

	s.logger.Debug("users sync", "users", len(users), "count", count)
	s.EmitChange()
}
