package store

import (
	"context"
	"testing"
	"time"

	"github.com/notifyhub/notifyhub/internal/errs"
	"github.com/notifyhub/notifyhub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{NamingStrategy: namingStrategy{}})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return NewGormStore(db)
}

func TestInsertAndFindByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := &models.Notification{Channel: models.ChannelEmail, Content: "hi"}
	require.NoError(t, s.Insert(ctx, n))
	assert.NotEqual(t, "", n.ID.String())

	found, err := s.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.Content, found.Content)
	assert.Equal(t, models.StatusPending, found.Status)
}

func TestFindByID_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.FindByID(context.Background(), (&models.Notification{}).ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdate_SucceedsOnMatchingVersionAndBumpsIt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := &models.Notification{Channel: models.ChannelEmail, Content: "hi"}
	require.NoError(t, s.Insert(ctx, n))

	n.MarkProcessing()
	require.NoError(t, s.Update(ctx, n))
	assert.Equal(t, 1, n.Version)

	reloaded, err := s.FindByID(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, reloaded.Status)
	assert.Equal(t, 1, reloaded.Version)
}

func TestUpdate_VersionConflictWhenStale(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n := &models.Notification{Channel: models.ChannelEmail, Content: "hi"}
	require.NoError(t, s.Insert(ctx, n))

	// Simulate a second writer moving the row on first.
	first, err := s.FindByID(ctx, n.ID)
	require.NoError(t, err)
	first.MarkProcessing()
	require.NoError(t, s.Update(ctx, first))

	// n is still at the stale, pre-update version.
	n.MarkFailedPermanent("boom")
	err = s.Update(ctx, n)
	assert.ErrorIs(t, err, errs.ErrVersionConflict)
}

func TestFindReadyForRetry_OnlyMatchesDueAndPending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	due := &models.Notification{Channel: models.ChannelEmail, Content: "due"}
	require.NoError(t, s.Insert(ctx, due))
	past := now.Add(-time.Minute)
	due.NextRetryAt = &past
	require.NoError(t, s.Update(ctx, due))

	notYet := &models.Notification{Channel: models.ChannelEmail, Content: "not-yet"}
	require.NoError(t, s.Insert(ctx, notYet))
	future := now.Add(time.Hour)
	notYet.NextRetryAt = &future
	require.NoError(t, s.Update(ctx, notYet))

	ready, err := s.FindReadyForRetry(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, due.ID, ready[0].ID)
}

func TestFindReadyForRetry_MatchesPendingRowsWithNoNextRetryAtSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// A row left PENDING with next_retry_at unset, as happens when
	// ingestion's publish to the queue fails: it never gets a
	// next_retry_at because it was never scheduled as a retry, only
	// lost in transit.
	lostPublish := &models.Notification{Channel: models.ChannelEmail, Content: "lost"}
	require.NoError(t, s.Insert(ctx, lostPublish))

	ready, err := s.FindReadyForRetry(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, lostPublish.ID, ready[0].ID)
}

func TestFindReadyForRetry_IgnoresNonPendingRowsWithNoNextRetryAtSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	processing := &models.Notification{Channel: models.ChannelEmail, Content: "in-flight", Status: models.StatusProcessing}
	require.NoError(t, s.Insert(ctx, processing))

	ready, err := s.FindReadyForRetry(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, ready)
}

func TestFindStuckProcessing_OnlyMatchesOlderThanThreshold(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stuck := &models.Notification{Channel: models.ChannelEmail, Content: "stuck"}
	require.NoError(t, s.Insert(ctx, stuck))
	stuck.MarkProcessing()
	require.NoError(t, s.Update(ctx, stuck))

	fresh := &models.Notification{Channel: models.ChannelEmail, Content: "fresh"}
	require.NoError(t, s.Insert(ctx, fresh))
	fresh.MarkProcessing()
	require.NoError(t, s.Update(ctx, fresh))

	cutoff := time.Now().UTC().Add(time.Minute)
	found, err := s.FindStuckProcessing(ctx, cutoff, 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	// A threshold earlier than both rows' last update matches neither.
	found, err = s.FindStuckProcessing(ctx, time.Now().UTC().Add(-time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestListForUser_FiltersByStatusAndPaginates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := (&models.Notification{}).UserID // zero-value uuid, shared across all rows below

	for i := 0; i < 3; i++ {
		n := &models.Notification{UserID: userID, Channel: models.ChannelEmail, Content: "x"}
		require.NoError(t, s.Insert(ctx, n))
	}
	sent := &models.Notification{UserID: userID, Channel: models.ChannelSMS, Content: "y"}
	require.NoError(t, s.Insert(ctx, sent))
	sent.MarkSent(time.Now().UTC())
	require.NoError(t, s.Update(ctx, sent))

	all, err := s.ListForUser(ctx, userID, nil, 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	sentStatus := models.StatusSent
	onlySent, err := s.ListForUser(ctx, userID, &sentStatus, 0, 10)
	require.NoError(t, err)
	require.Len(t, onlySent, 1)
	assert.Equal(t, sent.ID, onlySent[0].ID)
}
