package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupStore opens an in-memory library with a controllable clock.
func setupStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	s, err := OpenStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}

func bellCircuit() *Circuit {
	c := NewCircuit(3)
	c.SetTitle("bell")
	c.SetDescription("two entangled qubits")
	c.AddGate(0, 0, GateH)
	c.AddGate(0, 1, Control)
	c.AddGate(1, 1, GateX)
	return c
}

func TestStoreSaveAndLoad(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, "", bellCircuit())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bell", got.Title)
	assert.Equal(t, "two entangled qubits", got.Description)
	assert.Equal(t, bellCircuit().Grid, got.Grid)
}

func TestStoreUpdate(t *testing.T) {
	s, now := setupStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, "", bellCircuit())
	require.NoError(t, err)

	*now = now.Add(time.Hour)
	c := bellCircuit()
	c.SetTitle("bell v2")
	c.AddGate(2, 0, GateT)
	same, err := s.Save(ctx, id, c)
	require.NoError(t, err)
	assert.Equal(t, id, same)

	sc, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bell v2", sc.Title)
	assert.True(t, sc.UpdatedAt.After(sc.CreatedAt))

	loaded, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, GateT, loaded.Grid[2][0])
}

func TestStoreUpdateUnknownID(t *testing.T) {
	s, _ := setupStore(t)
	_, err := s.Save(context.Background(), "missing", bellCircuit())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreListOrder(t *testing.T) {
	s, now := setupStore(t)
	ctx := context.Background()

	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	first, err := s.Save(ctx, "", bellCircuit())
	require.NoError(t, err)
	*now = now.Add(time.Minute)
	second, err := s.Save(ctx, "", NewCircuit(4))
	require.NoError(t, err)

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, first, list[1].ID)

	// Touching the older entry moves it to the front.
	*now = now.Add(time.Minute)
	_, err = s.Save(ctx, first, bellCircuit())
	require.NoError(t, err)
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, list[0].ID)
}

func TestStoreDelete(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, "", bellCircuit())
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))

	_, err = s.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, id), ErrNotFound)
}

func TestStoreOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "circuits.db")
	ctx := context.Background()

	s, err := OpenStore(ctx, path)
	require.NoError(t, err)
	id, err := s.Save(ctx, "", bellCircuit())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bell", got.Title)
}

func TestStoreCorruptTimestamp(t *testing.T) {
	s, _ := setupStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, "", bellCircuit())
	require.NoError(t, err)
	_, err = s.db.ExecContext(ctx, `UPDATE circuits SET updated_at = 'yesterday' WHERE id = ?`, id)
	require.NoError(t, err)

	_, err = s.Get(ctx, id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "updated_at")
}
