package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-reservation/internal/database/dbtest"
	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/repository"
)

func TestSupportRepo_PendingInbox(t *testing.T) {
	ctx := context.Background()
	support := repository.NewSupportRepo(dbtest.OpenTest(t))

	var ids []int64
	for i, uid := range []int64{5, 6, 5} {
		m := &model.SupportMessage{UserID: uid, Text: "help", CreatedAt: t0.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, support.Save(ctx, m))
		assert.Equal(t, model.SupportPending, m.Status)
		ids = append(ids, m.ID)
	}
	assert.NotEqual(t, ids[0], ids[1])

	n, err := support.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	page, err := support.ListPending(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[0], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)
	page, err = support.ListPending(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[2], page[0].ID)

	history, err := support.ListByUser(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ids[2], history[0].ID, "newest first")
}

func TestSupportRepo_MarkHandled(t *testing.T) {
	ctx := context.Background()
	support := repository.NewSupportRepo(dbtest.OpenTest(t))

	m := &model.SupportMessage{UserID: 5, Text: "which gate?", CreatedAt: t0}
	require.NoError(t, support.Save(ctx, m))

	at := t0.Add(time.Hour)
	require.NoError(t, support.MarkHandled(ctx, m.ID, 900, "gate B", at))
	assert.ErrorIs(t, support.MarkHandled(ctx, m.ID, 901, "gate C", at), repository.ErrConflict)
	assert.ErrorIs(t, support.MarkHandled(ctx, 999, 900, "", at), repository.ErrSupportMessageNotFound)

	got, err := support.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SupportHandled, got.Status)
	assert.Equal(t, "gate B", got.Reply)
	require.NotNil(t, got.HandledBy)
	assert.Equal(t, int64(900), *got.HandledBy)
	require.NotNil(t, got.HandledAt)
	assert.Equal(t, at, *got.HandledAt)

	n, err := support.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = support.Get(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrSupportMessageNotFound)
}
