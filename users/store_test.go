package users

import (
	"io"
	"log/slog"
	"testing"

	"github.com/jpalmerr/usersboard/internal/dispatcher"
	"github.com/jpalmerr/usersboard/internal/loop"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	d     *dispatcher.Dispatcher[Action]
	l     *loop.Loop
	store *UsersStore
}

func newHarness(t *testing.T, opts ...StoreOption) *harness {
	t.Helper()

	d := dispatcher.New[Action](testLogger())
	l := loop.New(testLogger())
	opts = append(opts, WithStoreLogger(testLogger()))
	s, err := NewStore(d, l, opts...)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return &harness{d: d, l: l, store: s}
}

func (h *harness) dispatch(t *testing.T, a Action) {
	t.Helper()
	if err := h.d.Dispatch(a); err != nil {
		t.Fatalf("Dispatch(%v) error = %v", a.ActionType(), err)
	}
}

func TestNewStore_Defaults(t *testing.T) {
	h := newHarness(t)
	s := h.store

	if s.Page() != 0 {
		t.Errorf("Page() = %d, want 0", s.Page())
	}
	if s.PageCount() != 50 {
		t.Errorf("PageCount() = %d, want 50", s.PageCount())
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d, want 0", s.Count())
	}
	if u := s.Users(); u == nil || len(u) != 0 {
		t.Errorf("Users() = %v, want empty non-nil slice", u)
	}
	if s.Filter() != nil {
		t.Errorf("Filter() = %v, want nil", s.Filter())
	}
	if s.Token() == "" {
		t.Error("Token() is empty, store did not register")
	}
}

func TestNewStore_WithPageCount(t *testing.T) {
	h := newHarness(t, WithPageCount(25))

	if got := h.store.PageCount(); got != 25 {
		t.Errorf("PageCount() = %d, want 25", got)
	}
}

func TestNewStore_InvalidOptions(t *testing.T) {
	d := dispatcher.New[Action](testLogger())
	l := loop.New(testLogger())

	tests := []struct {
		name string
		reg  Registrar
		sch  interface{ Post(func()) }
		opts []StoreOption
	}{
		{"nil dispatcher", nil, l, nil},
		{"nil scheduler", d, nil, nil},
		{"zero page count", d, l, []StoreOption{WithPageCount(0)}},
		{"negative page count", d, l, []StoreOption{WithPageCount(-5)}},
		{"nil logger", d, l, []StoreOption{WithStoreLogger(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewStore(tt.reg, tt.sch, tt.opts...); err == nil {
				t.Error("NewStore() expected error, got nil")
			}
		})
	}
}

func TestUsersStore_TraverseDoesNotEmit(t *testing.T) {
	h := newHarness(t)

	calls := 0
	h.store.AddChangeListener(func() { calls++ })

	h.dispatch(t, TraverseAction{Page: 3})
	h.l.Drain()

	if got := h.store.Page(); got != 3 {
		t.Errorf("Page() = %d, want 3", got)
	}
	if calls != 0 {
		t.Errorf("listener calls = %d, want 0", calls)
	}
}

func TestUsersStore_FilterEmitsOncePerListener(t *testing.T) {
	h := newHarness(t)

	first, second := 0, 0
	h.store.AddChangeListener(func() { first++ })
	h.store.AddChangeListener(func() { second++ })

	h.dispatch(t, FilterAction{Filter: &Filter{Username: "active"}})

	if first != 0 || second != 0 {
		t.Fatal("listeners ran before the dispatch settled")
	}

	h.l.Drain()

	if f := h.store.Filter(); f == nil || f.Username != "active" {
		t.Errorf("Filter() = %+v, want username active", f)
	}
	if first != 1 || second != 1 {
		t.Errorf("listener calls = (%d, %d), want (1, 1)", first, second)
	}
}

func TestUsersStore_FilterNilClears(t *testing.T) {
	h := newHarness(t)

	h.dispatch(t, FilterAction{Filter: &Filter{Role: "admin"}})
	h.dispatch(t, FilterAction{Filter: nil})

	if f := h.store.Filter(); f != nil {
		t.Errorf("Filter() = %+v, want nil", f)
	}
}

func TestUsersStore_Sync(t *testing.T) {
	h := newHarness(t)

	calls := 0
	h.store.AddChangeListener(func() { calls++ })

	u1 := User{ID: "1", Username: "alice"}
	u2 := User{ID: "2", Username: "bob"}
	h.dispatch(t, SyncAction{Users: []User{u1, u2}, Count: 2})
	h.l.Drain()

	got := h.store.Users()
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("Users() = %+v, want [u1 u2]", got)
	}
	if h.store.Count() != 2 {
		t.Errorf("Count() = %d, want 2", h.store.Count())
	}
	if calls != 1 {
		t.Errorf("listener calls = %d, want 1", calls)
	}
}

func TestUsersStore_SyncTrustsCountIndependently(t *testing.T) {
	h := newHarness(t)

	h.dispatch(t, SyncAction{Users: []User{{ID: "1"}}, Count: 120})

	if got := h.store.Count(); got != 120 {
		t.Errorf("Count() = %d, want 120", got)
	}
	if got := len(h.store.Users()); got != 1 {
		t.Errorf("len(Users()) = %d, want 1", got)
	}
}

func TestUsersStore_RemovedListenerNotNotified(t *testing.T) {
	h := newHarness(t)

	removed, kept := 0, 0
	id := h.store.AddChangeListener(func() { removed++ })
	h.store.AddChangeListener(func() { kept++ })

	h.store.RemoveChangeListener(id)
	h.store.RemoveChangeListener(ListenerID("never-added"))

	h.dispatch(t, SyncAction{Users: nil, Count: 0})
	h.l.Drain()

	if removed != 0 {
		t.Errorf("removed listener calls = %d, want 0", removed)
	}
	if kept != 1 {
		t.Errorf("kept listener calls = %d, want 1", kept)
	}
}

// otherAction belongs to some other store.
type otherAction struct{}

func (otherAction) ActionType() ActionType { return "session.expire" }

func TestUsersStore_UnknownActionsIgnored(t *testing.T) {
	h := newHarness(t)

	h.dispatch(t, SyncAction{Users: []User{{ID: "1"}}, Count: 1})
	h.dispatch(t, TraverseAction{Page: 2})
	h.l.Drain()
	before := h.store.Snapshot()

	calls := 0
	h.store.AddChangeListener(func() { calls++ })

	h.dispatch(t, UnknownAction{Type: "user.delete"})
	h.dispatch(t, otherAction{})

	if n := h.l.Pending(); n != 0 {
		t.Errorf("Pending() = %d after unknown actions, want 0", n)
	}
	h.l.Drain()

	after := h.store.Snapshot()
	if after.Page != before.Page || after.Count != before.Count || len(after.Users) != len(before.Users) {
		t.Errorf("Snapshot() changed: before %+v, after %+v", before, after)
	}
	if calls != 0 {
		t.Errorf("listener calls = %d, want 0", calls)
	}
}

func TestUsersStore_NotificationAfterDispatchReturns(t *testing.T) {
	h := newHarness(t)

	var events []string
	h.store.AddChangeListener(func() { events = append(events, "notified") })

	// dispatch as a loop task, the way the app runs it
	h.l.Post(func() {
		_ = h.d.Dispatch(FilterAction{Filter: &Filter{Type: "local"}})
		events = append(events, "dispatch returned")
	})
	h.l.Drain()

	if len(events) != 2 || events[0] != "dispatch returned" || events[1] != "notified" {
		t.Errorf("events = %v, want [dispatch returned notified]", events)
	}
}

func TestUsersStore_ListenerSeesAllStoresSettled(t *testing.T) {
	d := dispatcher.New[Action](testLogger())
	l := loop.New(testLogger())

	a, err := NewStore(d, l, WithStoreLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	b, err := NewStore(d, l, WithStoreLogger(testLogger()))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	var seen int
	a.AddChangeListener(func() { seen = b.Count() })

	if err := d.Dispatch(SyncAction{Count: 7}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	l.Drain()

	if seen != 7 {
		t.Errorf("listener on first store saw second store count %d, want 7", seen)
	}
}

func TestUsersStore_GettersReturnCopies(t *testing.T) {
	h := newHarness(t)

	h.dispatch(t, SyncAction{Users: []User{{ID: "1", Username: "alice"}}, Count: 1})
	h.dispatch(t, FilterAction{Filter: &Filter{Username: "al"}})

	users := h.store.Users()
	users[0].Username = "mallory"
	f := h.store.Filter()
	f.Username = "changed"

	if got := h.store.Users()[0].Username; got != "alice" {
		t.Errorf("Users()[0].Username = %q, want alice", got)
	}
	if got := h.store.Filter().Username; got != "al" {
		t.Errorf("Filter().Username = %q, want al", got)
	}
}

func TestUsersStore_Snapshot(t *testing.T) {
	h := newHarness(t, WithPageCount(10))

	h.dispatch(t, TraverseAction{Page: 4})
	h.dispatch(t, FilterAction{Filter: &Filter{Role: "admin"}})
	h.dispatch(t, SyncAction{Users: []User{{ID: "9"}}, Count: 41})

	st := h.store.Snapshot()
	if st.Page != 4 || st.PageCount != 10 || st.Count != 41 {
		t.Errorf("Snapshot() = %+v", st)
	}
	if st.Filter == nil || st.Filter.Role != "admin" {
		t.Errorf("Snapshot().Filter = %+v, want role admin", st.Filter)
	}
	if len(st.Users) != 1 || st.Users[0].ID != "9" {
		t.Errorf("Snapshot().Users = %+v", st.Users)
	}
}
