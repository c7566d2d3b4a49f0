package notificationstore_test

import (
	"testing"
	"time"

	notificationstore "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/notifications"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/testutil"
)

func newNote(recipient, title string, at time.Time) models.Notification {
	return models.Notification{
		Recipient: recipient,
		Sender:    models.SystemSender,
		Type:      models.NotifySystem,
		Title:     title,
		CreatedAt: at,
	}
}

func TestStore_ScopedByRecipient(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := notificationstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	mine, err := store.Create(ctx, newNote("a@test.com", "old", now.Add(-time.Minute)))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Create(ctx, newNote("a@test.com", "new", now)); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	theirs, err := store.Create(ctx, newNote("b@test.com", "theirs", now))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := store.ListForRecipient(ctx, "a@test.com", 0)
	if err != nil {
		t.Fatalf("ListForRecipient failed: %v", err)
	}
	if len(list) != 2 || list[0].Title != "new" {
		t.Fatalf("unexpected list %+v", list)
	}

	if ok, _ := store.MarkRead(ctx, "a@test.com", theirs.ID); ok {
		t.Error("must not mark another user's notification")
	}
	if ok, _ := store.Delete(ctx, "a@test.com", theirs.ID); ok {
		t.Error("must not delete another user's notification")
	}
	if ok, err := store.MarkRead(ctx, "a@test.com", mine.ID); err != nil || !ok {
		t.Fatalf("MarkRead: ok=%v err=%v", ok, err)
	}

	unread, err := store.CountUnread(ctx, "a@test.com")
	if err != nil || unread != 1 {
		t.Fatalf("CountUnread: n=%d err=%v", unread, err)
	}
	if n, err := store.MarkAllRead(ctx, "a@test.com"); err != nil || n != 1 {
		t.Fatalf("MarkAllRead: n=%d err=%v", n, err)
	}
	if n, err := store.DeleteAll(ctx, "a@test.com"); err != nil || n != 2 {
		t.Fatalf("DeleteAll: n=%d err=%v", n, err)
	}

	left, err := store.ListForRecipient(ctx, "b@test.com", 0)
	if err != nil || len(left) != 1 {
		t.Fatalf("other recipient affected: %d %v", len(left), err)
	}
}
