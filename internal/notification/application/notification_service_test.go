package application

import (
	"context"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/visabackoffice/internal/notification/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

type fakeNotificationRepo struct {
	notifications map[uint]*domain.Notification
	nextID        uint
	base          time.Time
	countCalls    int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{
		notifications: make(map[uint]*domain.Notification),
		base:          time.Now(),
	}
}

func (r *fakeNotificationRepo) Save(_ context.Context, n *domain.Notification) error {
	r.nextID++
	n.ID = r.nextID
	n.CreatedAt = r.base.Add(time.Duration(r.nextID) * time.Millisecond)
	r.notifications[n.ID] = n
	return nil
}

func (r *fakeNotificationRepo) Get(_ context.Context, id uint) (*domain.Notification, error) {
	return r.notifications[id], nil
}

func (r *fakeNotificationRepo) GetMany(_ context.Context, ids []uint) ([]*domain.Notification, error) {
	var out []*domain.Notification
	for _, id := range ids {
		if n, ok := r.notifications[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) Update(_ context.Context, n *domain.Notification) error {
	r.notifications[n.ID] = n
	return nil
}

func (r *fakeNotificationRepo) ListAfter(_ context.Context, recipient string, status domain.Status, after *domain.Cursor, limit int) ([]*domain.Notification, error) {
	var out []*domain.Notification
	for _, n := range r.notifications {
		if n.Recipient != recipient {
			continue
		}
		if status != "" && n.Status != status {
			continue
		}
		if after != nil {
			older := n.CreatedAt.Before(after.CreatedAt) ||
				(n.CreatedAt.Equal(after.CreatedAt) && n.ID < after.ID)
			if !older {
				continue
			}
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) Count(_ context.Context, recipient string, status domain.Status) (int64, error) {
	var total int64
	for _, n := range r.notifications {
		if n.Recipient == recipient && (status == "" || n.Status == status) {
			total++
		}
	}
	return total, nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, recipient string) (int64, error) {
	r.countCalls++
	return r.Count(ctx, recipient, domain.StatusUnread)
}

func (r *fakeNotificationRepo) MarkManyRead(_ context.Context, ids []uint) error {
	for _, id := range ids {
		if n, ok := r.notifications[id]; ok {
			n.MarkRead()
		}
	}
	return nil
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, recipient string) error {
	for _, n := range r.notifications {
		if n.Recipient == recipient {
			n.MarkRead()
		}
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteMany(_ context.Context, ids []uint) error {
	for _, id := range ids {
		delete(r.notifications, id)
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteAll(_ context.Context, recipient string) error {
	for id, n := range r.notifications {
		if n.Recipient == recipient {
			delete(r.notifications, id)
		}
	}
	return nil
}

func (r *fakeNotificationRepo) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeCounter struct {
	counts      map[string]int64
	invalidated int
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: make(map[string]int64)}
}

func (c *fakeCounter) Get(_ context.Context, recipient string) (int64, bool, error) {
	count, ok := c.counts[recipient]
	return count, ok, nil
}

func (c *fakeCounter) Set(_ context.Context, recipient string, count int64) error {
	c.counts[recipient] = count
	return nil
}

func (c *fakeCounter) Invalidate(_ context.Context, recipient string) error {
	delete(c.counts, recipient)
	c.invalidated++
	return nil
}

type notifFixture struct {
	svc     *NotificationService
	repo    *fakeNotificationRepo
	counter *fakeCounter
}

func newNotifFixture() *notifFixture {
	f := &notifFixture{repo: newFakeNotificationRepo(), counter: newFakeCounter()}
	f.svc = NewNotificationService(f.repo, f.counter, slog.New(slog.DiscardHandler))
	return f
}

func (f *notifFixture) seed(t *testing.T, recipient string, count int) []*domain.Notification {
	t.Helper()
	out := make([]*domain.Notification, 0, count)
	for i := 0; i < count; i++ {
		n, err := f.svc.Send(context.Background(), recipient, domain.TypeSystem, "title", "message", "", 0)
		require.NoError(t, err)
		out = append(out, n)
	}
	return out
}

func TestSendRequiresRecipientAndTitle(t *testing.T) {
	f := newNotifFixture()
	_, err := f.svc.Send(context.Background(), "", domain.TypeSystem, "title", "", "", 0)
	assert.Equal(t, errs.CodeInvalidArgument, errs.CodeOf(err))

	_, err = f.svc.Send(context.Background(), "u-1", domain.TypeSystem, "", "", "", 0)
	assert.Equal(t, errs.CodeInvalidArgument, errs.CodeOf(err))
}

func TestSendDefaultsToSystemType(t *testing.T) {
	f := newNotifFixture()
	n, err := f.svc.Send(context.Background(), "u-1", "", "title", "", "", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.TypeSystem, n.Type)
	assert.Equal(t, domain.StatusUnread, n.Status)
	assert.NotEmpty(t, n.NotificationID)
}

func TestPaginatedWalksAllPagesWithoutGaps(t *testing.T) {
	f := newNotifFixture()
	f.seed(t, "u-1", 5)
	f.seed(t, "u-2", 3)

	seen := make(map[uint]bool)
	cursor := ""
	pages := 0
	for {
		page, err := f.svc.Paginated(context.Background(), "u-1", "", cursor, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.TotalCount)
		for _, n := range page.Notifications {
			assert.False(t, seen[n.ID], "notification %d returned twice", n.ID)
			seen[n.ID] = true
		}
		pages++
		if !page.HasNextPage {
			break
		}
		require.NotEmpty(t, page.NextCursor)
		cursor = page.NextCursor
	}
	assert.Equal(t, 3, pages)
	assert.Len(t, seen, 5)
}

func TestPaginatedNewestFirst(t *testing.T) {
	f := newNotifFixture()
	ns := f.seed(t, "u-1", 3)

	page, err := f.svc.Paginated(context.Background(), "u-1", "", "", 10)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 3)
	assert.Equal(t, ns[2].ID, page.Notifications[0].ID)
	assert.False(t, page.HasNextPage)
	assert.Empty(t, page.NextCursor)
}

func TestPaginatedMalformedCursor(t *testing.T) {
	f := newNotifFixture()
	_, err := f.svc.Paginated(context.Background(), "u-1", "", "garbage!!", 10)
	require.Error(t, err)
	assert.Equal(t, errs.CodeInvalidArgument, errs.CodeOf(err))
}

func TestPaginatedStatusFilter(t *testing.T) {
	f := newNotifFixture()
	ns := f.seed(t, "u-1", 3)
	_, err := f.svc.MarkRead(context.Background(), ns[0].ID)
	require.NoError(t, err)

	page, err := f.svc.Paginated(context.Background(), "u-1", domain.StatusUnread, "", 10)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 2)
	assert.Equal(t, int64(2), page.TotalCount)
}

func TestUnreadCountReadThrough(t *testing.T) {
	f := newNotifFixture()
	f.seed(t, "u-1", 3)

	count, err := f.svc.UnreadCount(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, 1, f.repo.countCalls)

	// 第二次命中缓存，不再回源
	count, err = f.svc.UnreadCount(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, 1, f.repo.countCalls)
}

func TestMarkReadInvalidatesCounter(t *testing.T) {
	f := newNotifFixture()
	ns := f.seed(t, "u-1", 2)
	_, err := f.svc.UnreadCount(context.Background(), "u-1")
	require.NoError(t, err)

	n, err := f.svc.MarkRead(context.Background(), ns[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, n.Status)

	count, err := f.svc.UnreadCount(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMarkReadIdempotent(t *testing.T) {
	f := newNotifFixture()
	ns := f.seed(t, "u-1", 1)
	_, err := f.svc.MarkRead(context.Background(), ns[0].ID)
	require.NoError(t, err)

	invalidatedBefore := f.counter.invalidated
	_, err = f.svc.MarkRead(context.Background(), ns[0].ID)
	require.NoError(t, err)
	assert.Equal(t, invalidatedBefore, f.counter.invalidated)
}

func TestMarkReadNotFound(t *testing.T) {
	f := newNotifFixture()
	_, err := f.svc.MarkRead(context.Background(), 404)
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
}

func TestBulkMissingIDFailsWholesale(t *testing.T) {
	f := newNotifFixture()
	ns := f.seed(t, "u-1", 2)

	err := f.svc.Bulk(context.Background(), []uint{ns[0].ID, 999}, domain.BulkMarkAllRead)
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))

	got, err := f.repo.Get(context.Background(), ns[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnread, got.Status)
}

func TestBulkUnknownAction(t *testing.T) {
	f := newNotifFixture()
	ns := f.seed(t, "u-1", 1)

	err := f.svc.Bulk(context.Background(), []uint{ns[0].ID}, domain.BulkAction("ARCHIVE"))
	require.Error(t, err)
	assert.Equal(t, errs.CodeInvalidArgument, errs.CodeOf(err))
}

func TestBulkMarkReadAndDelete(t *testing.T) {
	f := newNotifFixture()
	ns := f.seed(t, "u-1", 3)

	err := f.svc.Bulk(context.Background(), []uint{ns[0].ID, ns[1].ID}, domain.BulkMarkAllRead)
	require.NoError(t, err)
	count, err := f.svc.UnreadCount(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	err = f.svc.Bulk(context.Background(), []uint{ns[2].ID}, domain.BulkDeleteAll)
	require.NoError(t, err)
	got, err := f.repo.Get(context.Background(), ns[2].ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteAllForRecipient(t *testing.T) {
	f := newNotifFixture()
	f.seed(t, "u-1", 2)
	f.seed(t, "u-2", 1)

	require.NoError(t, f.svc.DeleteAll(context.Background(), "u-1"))

	page, err := f.svc.Paginated(context.Background(), "u-1", "", "", 10)
	require.NoError(t, err)
	assert.Empty(t, page.Notifications)

	page, err = f.svc.Paginated(context.Background(), "u-2", "", "", 10)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 1)
}
