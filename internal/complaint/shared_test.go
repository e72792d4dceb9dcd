package complaint_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"sulabh/backend/internal/complaint"
	"sulabh/backend/internal/logger"
	"sulabh/backend/internal/models"
	"sulabh/backend/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sharedBacking opens one sqlite database that several stores write to, the
// way the server and the admin CLI share postgres.
func sharedBacking(t *testing.T) *storage.Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true, Logger: gormlogger.Discard})
	require.NoError(t, err)
	backing := storage.NewStorageService(db, logger.Discard())
	require.NoError(t, backing.AutoMigrate())
	return backing
}

// tickingClock advances by a second on every call.
func tickingClock() func() time.Time {
	now := frozen
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestStore_WritersSharingStorageKeepEachOthersChanges(t *testing.T) {
	// Arrange
	ctx := context.Background()
	backing := sharedBacking(t)
	server := complaint.NewStore(backing, complaint.WithClock(tickingClock()), complaint.WithLogger(logger.Discard()))
	id, err := server.Submit(ctx, "user-1", sanitationRequest())
	require.NoError(t, err)

	cli := complaint.NewStore(backing, complaint.WithClock(tickingClock()), complaint.WithLogger(logger.Discard()),
		complaint.WithMissingPolicy(complaint.RejectMissing))
	require.NoError(t, cli.Load(ctx))

	// Act
	require.NoError(t, cli.Update(ctx, id, complaint.Patch{
		AssignedTo:         ptr("Ward officer"),
		AssignedDepartment: ptr("PWD"),
	}))
	require.NoError(t, server.Update(ctx, id, complaint.Patch{Status: ptr(models.StatusInProgress)}))

	// Assert
	persisted, err := backing.GetComplaint(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ward officer", persisted.AssignedTo)
	assert.Equal(t, "PWD", persisted.AssignedDepartment)
	assert.Equal(t, models.StatusInProgress, persisted.Status)

	got := server.Get(id)
	assert.Equal(t, "Ward officer", got.AssignedTo)
	assert.Equal(t, models.StatusInProgress, got.Status)
}

func TestStore_TimelineEntriesFromBothWritersSurvive(t *testing.T) {
	ctx := context.Background()
	backing := sharedBacking(t)
	server := complaint.NewStore(backing, complaint.WithClock(tickingClock()), complaint.WithLogger(logger.Discard()))
	id, err := server.Submit(ctx, "user-1", sanitationRequest())
	require.NoError(t, err)
	other := complaint.NewStore(backing, complaint.WithClock(tickingClock()), complaint.WithLogger(logger.Discard()))
	require.NoError(t, other.Load(ctx))

	_, err = other.AddStatusUpdate(ctx, id, complaint.StatusUpdate{Status: models.StatusInProgress, Message: "Crew assigned"})
	require.NoError(t, err)
	_, err = server.AddStatusUpdate(ctx, id, complaint.StatusUpdate{Status: models.StatusResolved, Message: "Bins emptied"})
	require.NoError(t, err)

	persisted, err := backing.GetComplaint(ctx, id)
	require.NoError(t, err)
	require.Len(t, persisted.Updates, 3)
	assert.Equal(t, "Crew assigned", persisted.Updates[1].Message)
	assert.Equal(t, "Bins emptied", persisted.Updates[2].Message)
	assert.Equal(t, models.StatusResolved, persisted.Status)
}

func TestStore_ObserveRefreshesCachedCopy(t *testing.T) {
	// Arrange
	ctx := context.Background()
	backing := sharedBacking(t)
	server := complaint.NewStore(backing, complaint.WithClock(tickingClock()), complaint.WithLogger(logger.Discard()))
	id, err := server.Submit(ctx, "user-1", sanitationRequest())
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	cli := complaint.NewStore(backing, complaint.WithClock(tickingClock()), complaint.WithLogger(logger.Discard()),
		complaint.WithNotifier(notifier))
	require.NoError(t, cli.Load(ctx))
	require.NoError(t, cli.Update(ctx, id, complaint.Patch{AssignedTo: ptr("Ward officer")}))
	newID, err := cli.Submit(ctx, "user-2", sanitationRequest())
	require.NoError(t, err)
	require.Empty(t, server.Get(id).AssignedTo)

	// Act
	for _, event := range notifier.Events() {
		server.Observe(ctx, event)
	}

	// Assert
	assert.Equal(t, "Ward officer", server.Get(id).AssignedTo)
	require.NotNil(t, server.Get(newID), "complaints submitted elsewhere are picked up")
	assert.Equal(t, 2, server.Len())
}

func TestStore_ObserveIgnoresStaleEvents(t *testing.T) {
	ctx := context.Background()
	store := newStore(storage.NewMemory())
	id, err := store.Submit(ctx, "user-1", sanitationRequest())
	require.NoError(t, err)
	before := store.Get(id)

	store.Observe(ctx, models.ComplaintEvent{Type: models.EventUpdated, ComplaintID: id, UpdatedAt: before.UpdatedAt.Add(-time.Minute)})
	store.Observe(ctx, models.ComplaintEvent{Type: models.EventUpdated, ComplaintID: "CMPUNKNOWN", UpdatedAt: frozen})

	assert.Equal(t, before, store.Get(id))
	assert.Equal(t, 1, store.Len())
}
