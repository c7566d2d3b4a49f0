package contactstore_test

import (
	"testing"

	contactstore "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/contacts"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestStore_Create_DefaultsStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := contactstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c, err := store.Create(ctx, models.Contact{Name: "Ada", Email: "ada@example.com", Message: "hi"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.Status != contactstore.StatusNew || c.CreatedAt.IsZero() {
		t.Errorf("unexpected contact %+v", c)
	}

	n, err := db.Collection("contacts").CountDocuments(ctx, bson.M{"_id": c.ID})
	if err != nil || n != 1 {
		t.Fatalf("stored count: n=%d err=%v", n, err)
	}
}
