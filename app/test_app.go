// file: app/test_app.go

package app

import (
	"database/sql"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// TestApp bundles a fully wired router with the raw connections so
// integration tests can seed and inspect state directly.
type TestApp struct {
	DB     *sql.DB
	Redis  *redis.Client
	Router http.Handler
}

// NewTestApp wires all layers against the given connections. Configuration
// and the logger must already be initialized by the caller's TestMain.
func NewTestApp(db *sql.DB, redisClient *redis.Client) *TestApp {
	return &TestApp{
		DB:     db,
		Redis:  redisClient,
		Router: buildRouter(db, redisClient),
	}
}
