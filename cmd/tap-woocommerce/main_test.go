package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/tap-woocommerce/internal/testutil"
	"github.com/Sternrassler/tap-woocommerce/pkg/config"
	"github.com/Sternrassler/tap-woocommerce/pkg/state"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const couponsCatalog = `{"streams": [
  {"tap_stream_id": "coupons", "stream": "coupons", "schema": {}, "key_properties": ["id"],
   "metadata": [{"breadcrumb": [], "metadata": {"selected": true}}]},
  {"tap_stream_id": "orders", "stream": "orders", "schema": {}, "key_properties": ["id"],
   "metadata": [{"breadcrumb": [], "metadata": {"selected": false}}]}
]}`

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(io.Discard)
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "tap-woocommerce v"+version)
}

func TestRun_Discover(t *testing.T) {
	var out bytes.Buffer
	cfgPath := writeFile(t, "config.json", `{}`)

	err := run(context.Background(), runOptions{ConfigFile: cfgPath, Discover: true}, &out)
	require.NoError(t, err)

	for _, name := range []string{"orders", "products", "coupons", "customers", "subscriptions",
		"store_settings", "product_variants", "order_notes", "order_refunds"} {
		assert.Contains(t, out.String(), `"tap_stream_id": "`+name+`"`)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	cfgPath := writeFile(t, "config.json", `{"site_url": "https://shop.example.com"}`)

	err := run(context.Background(), runOptions{ConfigFile: cfgPath}, io.Discard)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingSetting)
}

func TestRun_SyncWritesStateFile(t *testing.T) {
	mock := testutil.NewMockWooCommerce()
	defer mock.Close()
	mock.RequireCredentials("ck_test", "cs_test")

	base := time.Date(2023, 4, 1, 8, 0, 0, 0, time.UTC)
	mock.SetCollection("/coupons", testutil.Records(2, base))

	cfgPath := writeFile(t, "config.json", `{
  "site_url": "`+mock.URL()+`",
  "consumer_key": "ck_test",
  "consumer_secret": "cs_test",
  "start_date": "2020-01-01T00:00:00Z"
}`)
	catalogPath := writeFile(t, "catalog.json", couponsCatalog)
	statePath := filepath.Join(t.TempDir(), "state.json")

	var out bytes.Buffer
	err := run(context.Background(), runOptions{
		ConfigFile:  cfgPath,
		CatalogFile: catalogPath,
		StateFile:   statePath,
	}, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4, "SCHEMA, 2 RECORD, STATE")
	assert.Contains(t, lines[0], `"type":"SCHEMA"`)
	assert.Contains(t, lines[1], `"type":"RECORD"`)
	assert.Contains(t, lines[3], `"type":"STATE"`)
	assert.Len(t, mock.RequestsFor("/orders"), 0)

	saved, err := state.NewFileStore(statePath).Load(context.Background())
	require.NoError(t, err)
	b, ok := saved.Bookmark("coupons")
	require.True(t, ok)
	got, err := state.ParseTimestamp(b.ReplicationKeyValue)
	require.NoError(t, err)
	assert.True(t, got.Equal(base.Add(time.Minute)))

	// Second run resumes from the bookmark.
	out.Reset()
	err = run(context.Background(), runOptions{
		ConfigFile:  cfgPath,
		CatalogFile: catalogPath,
		StateFile:   statePath,
	}, &out)
	require.NoError(t, err)

	reqs := mock.RequestsFor("/coupons")
	require.Len(t, reqs, 2)
	assert.Equal(t, "2023-04-01T08:01:00", reqs[1].Query.Get("modified_after"))
}

// brokenPipe fails every write, like a closed stdout.
type brokenPipe struct{}

func (brokenPipe) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestRun_FlushErrorIsReturned(t *testing.T) {
	mock := testutil.NewMockWooCommerce()
	defer mock.Close()

	// Page 1 is emitted, page 2 fails, so no STATE flushes the records.
	mock.SetSequence("/coupons",
		testutil.MockResponse{
			Body:    `[{"id": 1, "date_modified": "2023-04-01T08:00:00"}]`,
			Headers: map[string]string{"X-WP-TotalPages": "2"},
		},
		testutil.MockResponse{StatusCode: http.StatusInternalServerError},
	)

	cfgPath := writeFile(t, "config.json", `{
  "site_url": "`+mock.URL()+`",
  "consumer_key": "ck_test",
  "consumer_secret": "cs_test"
}`)
	catalogPath := writeFile(t, "catalog.json", couponsCatalog)

	err := run(context.Background(), runOptions{ConfigFile: cfgPath, CatalogFile: catalogPath}, brokenPipe{})
	require.Error(t, err)
	assert.ErrorContains(t, err, "flush output")
	assert.ErrorContains(t, err, "broken pipe")

	// The same run against a working stdout still delivers page 1.
	mock.Reset()
	mock.SetSequence("/coupons",
		testutil.MockResponse{
			Body:    `[{"id": 1, "date_modified": "2023-04-01T08:00:00"}]`,
			Headers: map[string]string{"X-WP-TotalPages": "2"},
		},
		testutil.MockResponse{StatusCode: http.StatusInternalServerError},
	)
	var out bytes.Buffer
	err = run(context.Background(), runOptions{ConfigFile: cfgPath, CatalogFile: catalogPath}, &out)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "flush output")
	assert.Contains(t, out.String(), `"type":"RECORD"`)
}

func TestRedisPrefix(t *testing.T) {
	assert.Equal(t, "tap-woocommerce:shop.example.com", redisPrefix("https://shop.example.com/"))
	assert.Equal(t, "tap-woocommerce:shop", redisPrefix("shop"))
}
