package cmsdb_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/calvinalkan/sitecms/internal/cmsdb"
	"github.com/calvinalkan/sitecms/internal/testutil"
)

type testDB struct {
	*cmsdb.DB

	dir   string
	clock *testutil.Clock
}

// openTestDB opens a DB on a fresh temp dir with a fake clock and no
// required pages, unless cfg says otherwise.
func openTestDB(t *testing.T, cfg cmsdb.Config) *testDB {
	t.Helper()

	if cfg.Dir == "" {
		cfg.Dir = filepath.Join(t.TempDir(), "data")
	}

	clock := testutil.NewClock()
	if cfg.Now == nil {
		cfg.Now = clock.Now
	}

	if cfg.RequiredPages == nil {
		cfg.RequiredPages = []string{}
	}

	db, err := cmsdb.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return &testDB{DB: db, dir: cfg.Dir, clock: clock}
}

func (tdb *testDB) path(c cmsdb.Collection) string {
	return filepath.Join(tdb.dir, c.FileName())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()

	err := os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	err = os.WriteFile(path, []byte(content), 0o644)
	if err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}

	return string(data)
}

// readJSON decodes a collection file straight from disk.
func readJSON[T any](t *testing.T, path string) T {
	t.Helper()

	var v T

	err := json.Unmarshal([]byte(readFile(t, path)), &v)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}

	return v
}

func requireErrorIs(t *testing.T, err, want error) {
	t.Helper()

	if !errors.Is(err, want) {
		t.Fatalf("err=%v, want errors.Is(err, %v)", err, want)
	}
}
