package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taiwoajasa245/gita-reader-api/pkg/config"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "gita_bookmarks")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, kv.Set(ctx, "gita_bookmarks", []byte(`[{"id":"2-47"}]`)))
	got, err := kv.Get(ctx, "gita_bookmarks")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"2-47"}]`, string(got))

	require.NoError(t, kv.Set(ctx, "gita_bookmarks", []byte(`[]`)))
	got, err = kv.Get(ctx, "gita_bookmarks")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, kv.Delete(ctx, "gita_bookmarks"))
	_, err = kv.Get(ctx, "gita_bookmarks")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemory(t *testing.T) {
	exerciseKV(t, NewMemory())
}

func TestMemory_CopiesValues(t *testing.T) {
	kv := NewMemory()
	value := []byte("abc")
	require.NoError(t, kv.Set(context.Background(), "k", value))
	value[0] = 'x'

	got, err := kv.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reader.json")
	kv, err := NewFile(path)
	require.NoError(t, err)

	exerciseKV(t, kv)
}

func TestFile_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reader.json")
	ctx := context.Background()

	first, err := NewFile(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "gita_last_position", []byte(`{"chapterId":2}`)))

	second, err := NewFile(path)
	require.NoError(t, err)
	got, err := second.Get(ctx, "gita_last_position")
	require.NoError(t, err)
	assert.JSONEq(t, `{"chapterId":2}`, string(got))
}

func TestFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reader.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	kv, err := NewFile(path)
	require.NoError(t, err)

	_, err = kv.Get(context.Background(), "gita_reading_history")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestBadger(t *testing.T) {
	kv, err := NewBadger(t.TempDir())
	require.NoError(t, err)
	defer kv.Close()

	exerciseKV(t, kv)
}

func TestBadger_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	kv, err := NewBadger(dir)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "gita_reading_stats", []byte(`{"readingStreak":3}`)))
	require.NoError(t, kv.Close())

	kv, err = NewBadger(dir)
	require.NoError(t, err)
	defer kv.Close()

	got, err := kv.Get(ctx, "gita_reading_stats")
	require.NoError(t, err)
	assert.JSONEq(t, `{"readingStreak":3}`, string(got))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		driver  string
		want    any
		wantErr bool
	}{
		{driver: DriverMemory, want: &Memory{}},
		{driver: DriverFile, want: &File{}},
		{driver: DriverBadger, want: &Badger{}},
		{driver: "sqlite", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg := &config.Config{Reader: config.ReaderConfig{HistoryDriver: tt.driver, HistoryPath: dir}}

			kv, err := Open(context.Background(), cfg, "default")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer kv.Close()
			assert.IsType(t, tt.want, kv)
		})
	}
}
