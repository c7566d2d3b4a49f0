package memstore

// Stores bundles one instance of every in-memory store.
type Stores struct {
	Groups        *Groups
	Chats         *Chats
	Notifications *Notifications
	Users         *Users
	Contacts      *Contacts
	OAuthStates   *OAuthStates
}

// New returns empty stores.
func New() *Stores {
	return &Stores{
		Groups:        NewGroups(),
		Chats:         NewChats(),
		Notifications: NewNotifications(),
		Users:         NewUsers(),
		Contacts:      NewContacts(),
		OAuthStates:   NewOAuthStates(),
	}
}
