package chatstore_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	chatstore "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/chats"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func msg(role models.MessageRole, content string) models.Message {
	return models.Message{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

func TestStore_AppendConcurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := chatstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c, err := store.Create(ctx, models.Chat{UserID: "a@test.com", Title: "t"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.AppendMessages(ctx, c.ID, msg(models.MessageUser, fmt.Sprintf("m%d", i))); err != nil {
				t.Errorf("AppendMessages failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := store.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Messages) != 10 {
		t.Errorf("expected 10 messages, got %d", len(got.Messages))
	}
	if got.UpdatedAt.Before(c.UpdatedAt.Truncate(time.Millisecond)) {
		t.Error("updated_at should not move backwards")
	}

	if err := store.AppendMessages(ctx, primitive.NewObjectID(), msg(models.MessageUser, "x")); err != mongo.ErrNoDocuments {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_ReplaceMessages(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := chatstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateChat(ctx, "a@test.com", nil, "t",
		msg(models.MessageUser, "u1"), msg(models.MessageAI, "a1"), msg(models.MessageUser, "u2"))

	if err := store.ReplaceMessages(ctx, c.ID, c.Messages[:1]); err != nil {
		t.Fatalf("ReplaceMessages failed: %v", err)
	}
	got, err := store.GetByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "u1" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}

	if err := store.ReplaceMessages(ctx, c.ID, nil); err != nil {
		t.Fatalf("ReplaceMessages(nil) failed: %v", err)
	}
	got, _ = store.GetByID(ctx, c.ID)
	if got.Messages == nil || len(got.Messages) != 0 {
		t.Errorf("expected empty message list, got %v", got.Messages)
	}
}

func TestStore_ListIsolation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := chatstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	gid := primitive.NewObjectID()
	other := primitive.NewObjectID()
	fixtures.CreateChat(ctx, "a@test.com", nil, "personal-old")
	time.Sleep(5 * time.Millisecond)
	fixtures.CreateChat(ctx, "a@test.com", nil, "personal-new")
	fixtures.CreateChat(ctx, "b@test.com", nil, "someone-else")
	fixtures.CreateChat(ctx, "a@test.com", &gid, "group")
	fixtures.CreateChat(ctx, "a@test.com", &other, "other-group")

	personal, err := store.ListPersonal(ctx, "a@test.com")
	if err != nil {
		t.Fatalf("ListPersonal failed: %v", err)
	}
	if len(personal) != 2 || personal[0].Title != "personal-new" || personal[1].Title != "personal-old" {
		t.Errorf("unexpected personal list %+v", personal)
	}
	for _, s := range personal {
		if s.GroupID != nil {
			t.Errorf("group chat leaked into personal list: %s", s.Title)
		}
	}

	group, err := store.ListByGroup(ctx, gid)
	if err != nil {
		t.Fatalf("ListByGroup failed: %v", err)
	}
	if len(group) != 1 || group[0].Title != "group" {
		t.Errorf("unexpected group list %+v", group)
	}
}

func TestStore_DeleteByGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := chatstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	gid := primitive.NewObjectID()
	fixtures.CreateChat(ctx, "a@test.com", &gid, "g1")
	fixtures.CreateChat(ctx, "b@test.com", &gid, "g2")
	keep := fixtures.CreateChat(ctx, "a@test.com", nil, "mine")

	n, err := store.DeleteByGroup(ctx, gid)
	if err != nil || n != 2 {
		t.Fatalf("DeleteByGroup: n=%d err=%v", n, err)
	}
	if _, err := store.GetByID(ctx, keep.ID); err != nil {
		t.Errorf("personal chat should survive: %v", err)
	}
	if n, _ := store.Delete(ctx, keep.ID); n != 1 {
		t.Errorf("Delete: got %d", n)
	}
}
