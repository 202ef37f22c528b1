//go:build integration

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/pkg/testutil/containers"
)

func TestPostgresStoreOutbox(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()

	store := NewPostgresStore(pg.DB)
	require.NoError(t, store.Migrate(ctx))
	// Migrate is idempotent.
	require.NoError(t, store.Migrate(ctx))

	first := Event{
		ID:        uuid.NewString(),
		Type:      TypePageCreated,
		Timestamp: time.Now().UTC(),
		Actor:     "addr-alice",
		PageID:    "page-1",
	}
	second := Event{
		ID:        uuid.NewString(),
		Type:      TypeNameReserved,
		Timestamp: time.Now().UTC().Add(time.Millisecond),
		Actor:     "addr-alice",
		PageID:    "page-1",
		Name:      "alpha",
		Amount:    5000,
	}
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	rows, err := store.unpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first.ID, rows[0].ID, "insertion order is preserved")
	assert.Equal(t, string(TypePageCreated), rows[0].EventType)

	var decoded Event
	require.NoError(t, json.Unmarshal(rows[1].Payload, &decoded))
	assert.Equal(t, second.Type, decoded.Type)
	assert.Equal(t, second.Name, decoded.Name)
	assert.Equal(t, second.Amount, decoded.Amount)

	require.NoError(t, store.markPublished(ctx, first.ID))
	rows, err = store.unpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.ID, rows[0].ID)
}

func TestPostgresStoreBatchLimit(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()

	store := NewPostgresStore(pg.DB)
	require.NoError(t, store.Migrate(ctx))

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, Event{
			ID:        uuid.NewString(),
			Type:      TypeDonationReceived,
			Timestamp: time.Now().UTC().Add(time.Duration(i) * time.Millisecond),
		}))
	}

	rows, err := store.unpublished(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
