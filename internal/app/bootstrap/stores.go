// internal/app/bootstrap/stores.go
package bootstrap

import (
	"context"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/features/contact"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/features/users"
	chatsvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/chats"
	groupsvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/groups"
	invitesvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/invites"
	notifysvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/notifications"
	chatstore "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/chats"
	contactstore "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/contacts"
	groupstore "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/groups"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/memstore"
	notificationstore "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/notifications"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/oauthstate"
	userstore "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/store/users"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
)

// groupBackend covers both the registry and the invite lifecycle.
type groupBackend interface {
	groupsvc.Store
	invitesvc.GroupStore
}

type chatBackend interface {
	chatsvc.Store
	groupsvc.ChatCascade
}

// userBackend is everything the features ask of the user directory.
type userBackend interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	Upsert(ctx context.Context, email, name, image string) (models.User, error)
	invitesvc.Directory
	notifysvc.Directory
	users.Searcher
}

type stateBackend interface {
	Save(ctx context.Context, state string, rd oauthstate.Redirect, expiresAt time.Time) error
	Consume(ctx context.Context, state string) (oauthstate.Redirect, bool, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

// backend is the set of stores one process runs against.
type backend struct {
	Groups        groupBackend
	Chats         chatBackend
	Notifications notifysvc.Store
	Users         userBackend
	Contacts      contact.Store
	States        stateBackend
	Fetcher       auth.UserFetcher
}

// newBackend selects MongoDB stores, or in-memory ones when deps carry no
// database.
func newBackend(deps DBDeps) backend {
	if deps.Memory() {
		m := memstore.New()
		return backend{
			Groups:        m.Groups,
			Chats:         m.Chats,
			Notifications: m.Notifications,
			Users:         m.Users,
			Contacts:      m.Contacts,
			States:        m.OAuthStates,
			Fetcher:       m.Users,
		}
	}
	db := deps.MongoDatabase
	return backend{
		Groups:        groupstore.New(db),
		Chats:         chatstore.New(db),
		Notifications: notificationstore.New(db),
		Users:         userstore.New(db),
		Contacts:      contactstore.New(db),
		States:        oauthstate.New(db),
		Fetcher:       userstore.NewFetcher(db),
	}
}
