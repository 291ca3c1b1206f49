package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/netziya/shell-server/internal/config"
	"github.com/netziya/shell-server/internal/core"
	"github.com/netziya/shell-server/internal/store/fsstore"
	"github.com/netziya/shell-server/internal/store/sqlite"
)

// startTestServer spins up the full router on an fs blob store backed
// by a temp dir and an in-memory file index. maxUpload <= 0 means the
// default cap. Returns the test server and the upload directory.
func startTestServer(t *testing.T, maxUpload int64) (*httptest.Server, string) {
	t.Helper()

	dir := t.TempDir()
	blobs, err := fsstore.New(dir, maxUpload)
	if err != nil {
		t.Fatalf("create blob store: %v", err)
	}

	index, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("create file index: %v", err)
	}
	t.Cleanup(func() { index.Close() })

	logger := zerolog.Nop()
	server := NewServer(core.NewHub(), blobs, index, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, dir
}
