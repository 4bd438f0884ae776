package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marketingreboot/reboot-api/internal/database"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgUser     = "reboot"
	pgPassword = "reboot"
	pgDatabase = "reboot_test"
)

// resetTables lists every application table, children first.
var resetTables = []string{"follows", "saved_posts", "posts", "profiles", "auth_users"}

// One postgres container serves the whole test binary; the testcontainers
// reaper removes it when the process exits.
var shared struct {
	once sync.Once
	dsn  string
	err  error
}

type TestDB struct {
	DB *database.DB
}

// SetupTestDB connects to the shared container through the production
// constructor, applies migrations and starts from empty tables.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	dsn, err := postgresDSN(ctx)
	require.NoError(t, err, "start postgres container")

	db, err := database.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))

	tdb := &TestDB{DB: db}
	tdb.Reset(t)
	return tdb
}

// Reset empties every application table.
func (tdb *TestDB) Reset(t *testing.T) {
	t.Helper()
	_, err := tdb.DB.Pool.Exec(context.Background(),
		"TRUNCATE TABLE "+strings.Join(resetTables, ", ")+" CASCADE")
	require.NoError(t, err)
}

func postgresDSN(ctx context.Context) (string, error) {
	shared.once.Do(func() {
		container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "postgres:16-alpine",
				ExposedPorts: []string{"5432/tcp"},
				Env: map[string]string{
					"POSTGRES_USER":     pgUser,
					"POSTGRES_PASSWORD": pgPassword,
					"POSTGRES_DB":       pgDatabase,
				},
				WaitingFor: wait.ForAll(
					wait.ForLog("database system is ready to accept connections").
						WithOccurrence(2).
						WithStartupTimeout(90*time.Second),
					wait.ForListeningPort("5432/tcp").WithStartupTimeout(90*time.Second),
				),
			},
			Started: true,
		})
		if err != nil {
			shared.err = err
			return
		}

		endpoint, err := container.PortEndpoint(ctx, "5432/tcp", "")
		if err != nil {
			shared.err = err
			return
		}
		shared.dsn = fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", pgUser, pgPassword, endpoint, pgDatabase)
	})
	return shared.dsn, shared.err
}
