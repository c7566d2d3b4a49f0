package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoURIEnv overrides the container and points tests at an existing server.
const MongoURIEnv = "SYNAPSE_TEST_MONGO_URI"

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
)

// sharedClient connects once per test binary. The container, if started,
// lives until the process exits.
func sharedClient() (*mongo.Client, error) {
	clientOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		uri := os.Getenv(MongoURIEnv)
		if uri == "" {
			uri, clientErr = recoverStart(func() (string, error) { return startMongoContainer(ctx) })
			if clientErr != nil {
				return
			}
		}

		client, clientErr = mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if clientErr != nil {
			return
		}
		clientErr = client.Ping(ctx, nil)
	})
	return client, clientErr
}

// recoverStart runs start and turns a panic into an error. testcontainers
// panics instead of returning an error when no Docker host can be found.
func recoverStart(start func() (string, error)) (uri string, err error) {
	defer func() {
		if r := recover(); r != nil {
			uri, err = "", fmt.Errorf("start mongo container: %v", r)
		}
	}()
	return start()
}

func startMongoContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(90 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start mongo container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		return "", fmt.Errorf("container port: %w", err)
	}
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port()), nil
}

// SetupTestDB returns a fresh database for this test and drops it on cleanup.
// The test is skipped when no MongoDB is reachable, including when Docker is
// absent and SYNAPSE_TEST_MONGO_URI is unset.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	if os.Getenv(MongoURIEnv) == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
	}
	c, err := sharedClient()
	if err != nil {
		t.Skipf("mongo unavailable: %v", err)
	}

	name := "synapse_test_" + strings.ToLower(primitive.NewObjectID().Hex())
	db := c.Database(name)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
	})
	return db
}

// TestContext returns a context bounded for a single test step.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
