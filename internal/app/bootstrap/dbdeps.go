// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app. Both fields are
// nil when the memory backend is selected.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
}

// Memory reports whether the app runs without MongoDB.
func (d DBDeps) Memory() bool { return d.MongoDatabase == nil }
