package httpapi

import (
	"context"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/notifyhub/notifyhub/internal/config"
	"github.com/notifyhub/notifyhub/internal/idempotency"
	"github.com/notifyhub/notifyhub/internal/ingest"
	"github.com/notifyhub/notifyhub/internal/models"
	"github.com/notifyhub/notifyhub/internal/ratelimit"
	"github.com/notifyhub/notifyhub/internal/store"
	"github.com/notifyhub/notifyhub/internal/templaterepo"
	"github.com/notifyhub/notifyhub/internal/user"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/alicebob/miniredis/v2"
)

func init() { gin.SetMode(gin.TestMode) }

// noopGate never claims a duplicate; it is a stand-in for the Redis-backed
// idempotency gate in HTTP-layer tests that don't exercise deduplication.
type noopGate struct{}

func (noopGate) Claim(ctx context.Context, eventID string) (idempotency.Outcome, error) {
	return idempotency.Claimed, nil
}

// alwaysAdmit never rate-limits; HTTP-layer tests exercise the limiter
// decision in internal/ratelimit directly.
type alwaysAdmit struct{}

func (alwaysAdmit) Admit(ctx context.Context, userID uuid.UUID, channel models.Channel) (ratelimit.Decision, error) {
	return ratelimit.Decision{Admitted: true}, nil
}

// noopPublisher records nothing and always succeeds; the queue layer has
// its own coverage.
type noopPublisher struct{}

func (noopPublisher) Publish(ctx context.Context, channel models.Channel, notificationID uuid.UUID) error {
	return nil
}

func (noopPublisher) Close() error { return nil }

type testStack struct {
	db        *gorm.DB
	store     store.Store
	users     user.Repo
	templates templaterepo.Repo
	ingest    *ingest.Service
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, store.AutoMigrate(db))

	s := store.NewGormStore(db)
	u := user.NewGormRepo(db)
	tmpl := templaterepo.NewGormRepo(db)

	svc := ingest.New(s, u, tmpl, noopGate{}, alwaysAdmit{}, noopPublisher{}, zap.NewNop())

	return &testStack{db: db, store: s, users: u, templates: tmpl, ingest: svc}
}

func testRouter(t *testing.T, stack *testStack) *gin.Engine {
	t.Helper()
	cfg := &config.Config{Environment: "test"}

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	h := Handlers{
		Notifications: NewNotificationsHandler(stack.ingest, stack.store, stack.templates),
		Templates:     NewTemplatesHandler(stack.templates),
		Users:         NewUsersHandler(stack.users),
		Health:        NewHealthHandler(stack.db, redisClient, []string{"localhost:9092"}),
	}
	return NewRouter(cfg, zap.NewNop(), h)
}
