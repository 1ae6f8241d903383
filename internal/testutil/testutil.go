package testutil

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dom/notely/internal/api"
	"github.com/dom/notely/internal/config"
	"github.com/dom/notely/internal/limiter"
	"github.com/dom/notely/internal/migrate"
	"github.com/dom/notely/internal/repository"
	repoPostgres "github.com/dom/notely/internal/repository/postgres"
	"github.com/dom/notely/internal/service"
	"github.com/dom/notely/internal/storage"
)

// TestDB manages a testcontainers PostgreSQL instance
type TestDB struct {
	Container testcontainers.Container
	DB        *gorm.DB
	DSN       string
}

// NewTestDB starts a PostgreSQL container and applies the embedded migrations
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	container, err := tcPostgres.Run(ctx,
		"postgres:15-alpine",
		tcPostgres.WithDatabase("test_notely"),
		tcPostgres.WithUsername("test"),
		tcPostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	testDB := &TestDB{Container: container}
	t.Cleanup(func() {
		testDB.Cleanup()
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	testDB.DSN = dsn

	if err := migrate.Up(ctx, dsn); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	db, err := repoPostgres.NewConnection(dsn, logger.Silent)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	testDB.DB = db

	return testDB
}

// Cleanup terminates the container
func (tdb *TestDB) Cleanup() {
	if tdb.Container != nil {
		tdb.Container.Terminate(context.Background())
	}
}

// Truncate clears all tables for test isolation
func (tdb *TestDB) Truncate(t *testing.T) {
	t.Helper()

	for _, table := range []string{"note_events", "notes", "auth_limiter", "users"} {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
}

// Pool opens a pgx pool on the test database, closed with the test
func (tdb *TestDB) Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), tdb.DSN)
	if err != nil {
		t.Fatalf("failed to open pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// TestConfig returns a configuration suitable for testing
func TestConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Port = "0"
	cfg.Environment = "test"
	cfg.JWTSecret = "test-jwt-secret-key-for-testing-only"
	cfg.JWTExpirationHours = 1
	cfg.BcryptCost = 4
	cfg.LoginLimiter.MaxFailures = 3
	cfg.Avatar = config.AvatarConfig{
		Endpoint:   "http://localhost:9000",
		Region:     "us-east-1",
		Bucket:     "test-avatars",
		AccessKey:  "test-access",
		SecretKey:  "test-secret",
		PresignTTL: 5 * time.Minute,
	}
	return cfg
}

// TestServer holds all components for integration testing
type TestServer struct {
	Server   *httptest.Server
	DB       *TestDB
	Repos    *repository.Repositories
	Services *service.Services
	Config   *config.Config
}

// NewTestServer creates a complete test server with all dependencies.
// Avatar presigning is local to the SDK, so no object store is started.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	testDB := NewTestDB(t)
	cfg := TestConfig()
	log := zap.NewNop()

	repos := repoPostgres.NewRepositories(testDB.DB)
	pool := testDB.Pool(t)
	lim := limiter.NewPG(pool, cfg.LoginLimiter.Window, cfg.LoginLimiter.MaxFailures, cfg.LoginLimiter.BlockFor)

	avatars, err := storage.NewS3AvatarStore(context.Background(), cfg.Avatar)
	if err != nil {
		t.Fatalf("failed to create avatar store: %v", err)
	}

	services := service.NewServices(repos, cfg, lim, avatars, log)
	router := api.NewRouter(services, cfg, log)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:   server,
		DB:       testDB,
		Repos:    repos,
		Services: services,
		Config:   cfg,
	}
}

// BaseURL returns the test server's base URL
func (ts *TestServer) BaseURL() string {
	return ts.Server.URL
}

// APIURL returns the full API URL for a given path
func (ts *TestServer) APIURL(path string) string {
	return fmt.Sprintf("%s/api%s", ts.Server.URL, path)
}
