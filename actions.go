package usersboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/jpalmerr/usersboard/internal/syncer"
	"github.com/jpalmerr/usersboard/users"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNoUpstream is returned by the fetching action creators when the App
// was built without [WithUpstream].
var ErrNoUpstream = errors.New("no upstream configured")

// Traverse moves to page and then syncs that page from the upstream.
// The traverse itself emits no change; the sync that follows does.
func (a *App) Traverse(ctx context.Context, page int) error {
	if err := a.Dispatch(ctx, users.TraverseAction{Page: page}); err != nil {
		return err
	}
	return a.Sync(ctx)
}

// SetFilter replaces the filter and then syncs from the upstream.
// A nil filter clears it.
func (a *App) SetFilter(ctx context.Context, filter *users.Filter) error {
	if err := a.Dispatch(ctx, users.FilterAction{Filter: filter}); err != nil {
		return err
	}
	return a.Sync(ctx)
}

// Sync fetches the page the store currently points at and dispatches the
// result as a [users.SyncAction].
//
// The result is dropped when the store has moved to another page, page
// count or filter while the fetch was in flight: a refresh racing a
// [App.Traverse] must not leave the new page holding the old page's users.
// The check runs on the loop right before the dispatch. The caller that
// moved the store issues its own sync.
func (a *App) Sync(ctx context.Context) error {
	if a.client == nil {
		return ErrNoUpstream
	}

	st := a.store.Snapshot()
	ctx, span := a.tracer.Start(ctx, "usersboard.sync", trace.WithAttributes(
		attribute.Int("usersboard.page", st.Page),
		attribute.Int("usersboard.page_count", st.PageCount),
	))
	defer span.End()

	q := syncer.Query{
		Page:      st.Page,
		PageCount: st.PageCount,
		Filter:    st.Filter,
	}
	result, err := a.client.FetchUsers(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return fmt.Errorf("failed to sync users: %w", err)
	}
	span.SetAttributes(attribute.Int("usersboard.count", result.Count))

	a.logger.Debug("users fetched", "page", st.Page, "users", len(result.Users), "count", result.Count)

	applied, err := a.dispatchIf(ctx, users.SyncAction{Users: result.Users, Count: result.Count}, func() bool {
		return sameQuery(a.store.Snapshot(), q)
	})
	if err != nil {
		return err
	}
	if !applied {
		span.SetAttributes(attribute.Bool("usersboard.stale", true))
		a.logger.Debug("stale sync dropped", "page", q.Page)
	}
	return nil
}

// sameQuery reports whether st still describes q.
func sameQuery(st users.State, q syncer.Query) bool {
	if st.Page != q.Page || st.PageCount != q.PageCount {
		return false
	}
	if st.Filter == nil || q.Filter == nil {
		return st.Filter == q.Filter
	}
	return *st.Filter == *q.Filter
}
