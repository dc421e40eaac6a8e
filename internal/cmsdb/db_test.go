package cmsdb_test

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/calvinalkan/sitecms/internal/cmsdb"
	"github.com/calvinalkan/sitecms/internal/fs"
)

func Test_Open_Returns_Error_When_Dir_Is_Empty(t *testing.T) {
	t.Parallel()

	_, err := cmsdb.Open(cmsdb.Config{})
	if err == nil {
		t.Fatal("Open with empty Dir: want error")
	}
}

func Test_DB_Creates_Data_Dir_And_Default_File_When_First_Read(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, cmsdb.Config{})

	jobs, err := db.GetJobs(t.Context())
	if err != nil {
		t.Fatalf("GetJobs: %v", err)
	}

	if len(jobs) != 0 {
		t.Fatalf("GetJobs=%d jobs, want 0", len(jobs))
	}

	if got := readFile(t, db.path(cmsdb.Jobs)); got != "[]\n" {
		t.Fatalf("jobs.json=%q, want %q", got, "[]\n")
	}
}

func Test_DB_Returns_ErrClosed_When_Used_After_Close(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, cmsdb.Config{})

	err := db.Close()
	if err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, err = db.GetMedia(t.Context())
	requireErrorIs(t, err, cmsdb.ErrClosed)

	_, err = db.CreateJob(t.Context(), cmsdb.Job{Title: "x"})
	requireErrorIs(t, err, cmsdb.ErrClosed)
}

func Test_DB_Serves_Cached_Snapshot_When_Within_TTL(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, cmsdb.Config{CacheTTL: 2 * time.Second})

	_, err := db.GetJobs(t.Context())
	if err != nil {
		t.Fatalf("GetJobs: %v", err)
	}

	// Another process writes the file.
	writeFile(t, db.path(cmsdb.Jobs), `[{"id":"ext","title":"External"}]`)

	jobs, err := db.GetJobs(t.Context())
	if err != nil {
		t.Fatalf("GetJobs: %v", err)
	}

	if len(jobs) != 0 {
		t.Fatalf("within TTL: got %d jobs, want cached 0", len(jobs))
	}

	db.clock.Advance(2 * time.Second)

	jobs, err = db.GetJobs(t.Context())
	if err != nil {
		t.Fatalf("GetJobs: %v", err)
	}

	if len(jobs) != 1 || jobs[0].ID != "ext" {
		t.Fatalf("after TTL: got %+v, want the external job", jobs)
	}
}

func Test_DB_Reads_From_Disk_When_Invalidated(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, cmsdb.Config{CacheTTL: time.Hour})

	_, err := db.GetMedia(t.Context())
	if err != nil {
		t.Fatalf("GetMedia: %v", err)
	}

	writeFile(t, db.path(cmsdb.Media), `[{"id":"m1","url":"/a.png"}]`)
	db.Invalidate(cmsdb.Media)

	media, err := db.GetMedia(t.Context())
	if err != nil {
		t.Fatalf("GetMedia: %v", err)
	}

	if len(media) != 1 {
		t.Fatalf("after Invalidate: got %d items, want 1", len(media))
	}
}

func Test_DB_Observes_Own_Write_When_Cache_Is_Fresh(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, cmsdb.Config{CacheTTL: time.Hour})

	_, err := db.GetJobs(t.Context())
	if err != nil {
		t.Fatalf("GetJobs: %v", err)
	}

	created, err := db.CreateJob(t.Context(), cmsdb.Job{Title: "Engineer"})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	got, err := db.GetJobByID(t.Context(), created.ID)
	if err != nil {
		t.Fatalf("GetJobByID after create: %v", err)
	}

	if got.Title != "Engineer" {
		t.Fatalf("title=%q, want %q", got.Title, "Engineer")
	}
}

func Test_DB_Mutations_Reread_Disk_When_Cache_Is_Stale(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, cmsdb.Config{CacheTTL: time.Hour})

	_, err := db.GetJobs(t.Context())
	if err != nil {
		t.Fatalf("GetJobs: %v", err)
	}

	writeFile(t, db.path(cmsdb.Jobs), `[{"id":"ext","title":"External"}]`)

	_, err = db.CreateJob(t.Context(), cmsdb.Job{Title: "Local"})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	onDisk := readJSON[[]cmsdb.Job](t, db.path(cmsdb.Jobs))
	if len(onDisk) != 2 {
		t.Fatalf("jobs on disk=%d, want 2 (external job kept)", len(onDisk))
	}
}

func Test_DB_Keeps_Every_Update_When_Writers_Race(t *testing.T) {
	t.Parallel()

	db := openTestDB(t, cmsdb.Config{})

	const writers = 20

	var wg sync.WaitGroup

	errs := make(chan error, writers)

	for i := range writers {
		wg.Go(func() {
			_, err := db.CreateSubmission(t.Context(), "contact", map[string]any{"n": i})
			errs <- err
		})
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("CreateSubmission: %v", err)
		}
	}

	db.InvalidateAll()

	subs, err := db.GetSubmissions(t.Context(), "")
	if err != nil {
		t.Fatalf("GetSubmissions: %v", err)
	}

	if len(subs) != writers {
		t.Fatalf("submissions=%d, want %d (lost update)", len(subs), writers)
	}
}

func Test_DB_Keeps_Every_Increment_When_Two_Handles_Share_A_Dir(t *testing.T) {
	t.Parallel()

	first := openTestDB(t, cmsdb.Config{CacheTTL: -1})
	second := openTestDB(t, cmsdb.Config{Dir: first.dir, CacheTTL: -1})

	job, err := first.CreateJob(t.Context(), cmsdb.Job{Title: "Designer"})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}

	const perHandle = 10

	var wg sync.WaitGroup

	errs := make(chan error, 2*perHandle)

	for _, db := range []*testDB{first, second} {
		for range perHandle {
			wg.Go(func() {
				_, err := db.IncrementApplicants(t.Context(), job.ID)
				errs <- err
			})
		}
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("IncrementApplicants: %v", err)
		}
	}

	got, err := first.GetJobByID(t.Context(), job.ID)
	if err != nil {
		t.Fatalf("GetJobByID: %v", err)
	}

	if got.Applicants != 2*perHandle {
		t.Fatalf("applicants=%d, want %d", got.Applicants, 2*perHandle)
	}
}

func Test_DB_Propagates_ErrIO_When_Filesystem_Fails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		op   fs.Op
		call func(db *testDB) error
	}{
		{
			name: "read pages",
			op:   fs.OpReadFile,
			call: func(db *testDB) error { _, err := db.GetPages(t.Context()); return err },
		},
		{
			name: "read settings",
			op:   fs.OpReadFile,
			call: func(db *testDB) error { _, err := db.GetSettings(t.Context()); return err },
		},
		{
			name: "write job",
			op:   fs.OpWrite,
			call: func(db *testDB) error { _, err := db.CreateJob(t.Context(), cmsdb.Job{Title: "x"}); return err },
		},
		{
			name: "lock users",
			op:   fs.OpOpenFile,
			call: func(db *testDB) error {
				_, err := db.CreateUser(t.Context(), cmsdb.NewUser{Email: "a@b.c", Password: "pw"})
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fsys := fs.NewFaulty(fs.NewReal())
			fsys.Fail(tt.op, "*", syscall.EIO)

			db := openTestDB(t, cmsdb.Config{FS: fsys, RequiredPages: []string{"/"}})

			err := tt.call(db)
			requireErrorIs(t, err, cmsdb.ErrIO)

			if !errors.Is(err, syscall.EIO) {
				t.Fatalf("err=%v, want EIO in chain", err)
			}

			var cErr *cmsdb.Error
			if !errors.As(err, &cErr) || cErr.Op == "" || cErr.Collection == "" {
				t.Fatalf("err=%v, want *cmsdb.Error with op and collection", err)
			}
		})
	}
}

func Test_Error_Formats_Context_When_Fields_Set(t *testing.T) {
	t.Parallel()

	err := &cmsdb.Error{Op: "update_page", Collection: cmsdb.Pages, ID: "p1", Err: cmsdb.ErrNotFound}

	want := "not found (op=update_page collection=pages id=p1)"
	if err.Error() != want {
		t.Fatalf("Error()=%q, want %q", err.Error(), want)
	}

	wrapped := fmt.Errorf("handler: %w", err)
	requireErrorIs(t, wrapped, cmsdb.ErrNotFound)
}

func Test_ErrInvalidToken_Is_ErrNotFound(t *testing.T) {
	t.Parallel()

	requireErrorIs(t, cmsdb.ErrInvalidToken, cmsdb.ErrNotFound)
	requireErrorIs(t, cmsdb.ErrCorrupt, cmsdb.ErrIO)
	requireErrorIs(t, cmsdb.ErrLockTimeout, cmsdb.ErrIO)
}

func Test_GetPages_Returns_ErrIO_And_Leaves_File_When_Reconcile_Save_Fails(t *testing.T) {
	t.Parallel()

	fsys := fs.NewFaulty(fs.NewReal())
	db := openTestDB(t, cmsdb.Config{FS: fsys, RequiredPages: []string{"/", "/about"}, CacheTTL: -1})
	writeFile(t, db.path(cmsdb.Pages), "[]\n")

	fsys.Fail(fs.OpWrite, "pages.json", syscall.EIO)

	pages, err := db.GetPages(t.Context())
	requireErrorIs(t, err, cmsdb.ErrIO)

	if pages != nil {
		t.Fatalf("pages=%v, want nil on failed save", pages)
	}

	if got := readFile(t, db.path(cmsdb.Pages)); got != "[]\n" {
		t.Fatalf("pages.json=%q, want untouched", got)
	}

	fsys.Clear()

	pages, err = db.GetPages(t.Context())
	if err != nil {
		t.Fatalf("GetPages after clear: %v", err)
	}

	if len(pages) != 2 {
		t.Fatalf("pages=%d, want 2", len(pages))
	}
}

func Test_GetSettings_Returns_ErrIO_When_Migration_Save_Fails(t *testing.T) {
	t.Parallel()

	fsys := fs.NewFaulty(fs.NewReal())
	db := openTestDB(t, cmsdb.Config{FS: fsys, CacheTTL: -1})
	writeFile(t, db.path(cmsdb.Settings), legacySettings)

	fsys.Fail(fs.OpWrite, "settings.json", syscall.EIO)

	_, err := db.GetSettings(t.Context())
	requireErrorIs(t, err, cmsdb.ErrIO)

	if got := readFile(t, db.path(cmsdb.Settings)); got != legacySettings {
		t.Fatalf("settings.json changed after failed migration:\n%s", got)
	}

	fsys.Clear()

	s, err := db.GetSettings(t.Context())
	if err != nil {
		t.Fatalf("GetSettings after clear: %v", err)
	}

	if len(s.Forms) != 1 || s.Forms[0].ID != cmsdb.LegacyFormID {
		t.Fatalf("forms=%+v, want the migrated legacy form", s.Forms)
	}
}
