package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    map[string]Bookmark
		wantErr bool
	}{
		{
			name: "empty input",
			data: "",
			want: map[string]Bookmark{},
		},
		{
			name: "bare state",
			data: `{"bookmarks":{"orders":{"replication_key":"date_modified","replication_key_value":"2022-01-01T00:00:00"}}}`,
			want: map[string]Bookmark{
				"orders": {ReplicationKey: "date_modified", ReplicationKeyValue: "2022-01-01T00:00:00"},
			},
		},
		{
			name: "state message envelope",
			data: `{"type":"STATE","value":{"bookmarks":{"coupons":{"replication_key":"date_modified","replication_key_value":"2021-06-01T12:00:00"}}}}`,
			want: map[string]Bookmark{
				"coupons": {ReplicationKey: "date_modified", ReplicationKeyValue: "2021-06-01T12:00:00"},
			},
		},
		{
			name: "no bookmarks",
			data: `{}`,
			want: map[string]Bookmark{},
		},
		{
			name:    "invalid json",
			data:    `{"bookmarks":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Decode([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Bookmarks)
		})
	}
}

func TestFileStore_MissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))

	s, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.Bookmarks)
}

func TestFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewFileStore(path)
	ctx := context.Background()

	s := New()
	s.SetBookmark("orders", "date_modified", "2023-02-03T04:05:06")
	require.NoError(t, store.Save(ctx, s))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.Bookmarks, loaded.Bookmarks)

	// Overwrite keeps a single file and no temp leftovers.
	s.SetBookmark("orders", "date_modified", "2023-03-03T00:00:00")
	require.NoError(t, store.Save(ctx, s))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	b, ok := loaded.Bookmark("orders")
	require.True(t, ok)
	assert.Equal(t, "2023-03-03T00:00:00", b.ReplicationKeyValue)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	initial := New()
	initial.SetBookmark("products", "date_modified", "2020-01-01T00:00:00")

	store := NewMemoryStore(initial)
	ctx := context.Background()

	// Mutating the seed does not leak into the store.
	initial.SetBookmark("products", "date_modified", "2099-01-01T00:00:00")

	s, err := store.Load(ctx)
	require.NoError(t, err)
	b, _ := s.Bookmark("products")
	assert.Equal(t, "2020-01-01T00:00:00", b.ReplicationKeyValue)

	s.SetBookmark("orders", "date_modified", "2021-01-01T00:00:00")
	require.NoError(t, store.Save(ctx, s))

	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, again.Bookmarks, 2)
}

func TestNewMemoryStore_Nil(t *testing.T) {
	s, err := NewMemoryStore(nil).Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, s.Bookmarks)
}
