package cmsdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calvinalkan/sitecms/internal/fs"
)

const (
	// DefaultLockTimeout bounds how long a write waits for the collection lock.
	DefaultLockTimeout = 5 * time.Second

	// DefaultResetTokenTTL is the lifetime of a password-reset token.
	DefaultResetTokenTTL = time.Hour

	// DefaultContactPage is the slug a migrated legacy contact form is placed on.
	DefaultContactPage = "/contact"

	lockWaitLogThreshold = 100 * time.Millisecond
)

// Config configures [Open]. Only Dir is required.
type Config struct {
	// Dir is the data directory holding the collection files. Created on
	// first write if missing.
	Dir string

	// FS is the filesystem to use. Defaults to [fs.NewReal].
	FS fs.FS

	// CacheTTL is how long a snapshot is served from memory. Zero means
	// [DefaultCacheTTL]; negative disables the cache.
	CacheTTL time.Duration

	// LockTimeout bounds the wait for a collection lock. Zero means
	// [DefaultLockTimeout].
	LockTimeout time.Duration

	// RequiredPages are slugs that always exist. Nil means
	// [DefaultRequiredPages]; an empty non-nil slice means none.
	RequiredPages []string

	// DiscoverRoutes returns the slugs the renderer serves. Called on every
	// page read. Nil means no discovered routes.
	DiscoverRoutes func(ctx context.Context) ([]string, error)

	// ContactPage is the placement of the migrated legacy form. Empty means
	// [DefaultContactPage].
	ContactPage string

	// ResetTokenTTL is the lifetime of reset tokens. Zero means
	// [DefaultResetTokenTTL].
	ResetTokenTTL time.Duration

	// Now returns the current time. Defaults to [time.Now].
	Now func() time.Time

	// Logger receives diagnostics. Defaults to a discarding logger.
	Logger *slog.Logger
}

// DB is the collection store.
//
// Safe for concurrent use. Writers to the same collection are serialized by
// a per-collection mutex and a cross-process flock; reads never block on
// writers except while a missing file is being initialized.
type DB struct {
	cfg     Config
	store   *storage
	cache   *cache
	now     func() time.Time
	log     *slog.Logger
	closed  atomic.Bool
	writeMu map[Collection]*sync.Mutex
}

// Open returns a DB for cfg.Dir. It does not touch the filesystem; each
// collection file is read, or created with its default, on first use.
func Open(cfg Config) (*DB, error) {
	if cfg.Dir == "" {
		return nil, errors.New("Config.Dir is required")
	}

	if cfg.FS == nil {
		cfg.FS = fs.NewReal()
	}

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}

	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}

	if cfg.LockTimeout < 0 {
		return nil, fmt.Errorf("Config.LockTimeout must be positive, got %s", cfg.LockTimeout)
	}

	if cfg.RequiredPages == nil {
		cfg.RequiredPages = DefaultRequiredPages
	}

	if cfg.ContactPage == "" {
		cfg.ContactPage = DefaultContactPage
	}

	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = DefaultResetTokenTTL
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	cfg.Dir = filepath.Clean(cfg.Dir)

	db := &DB{
		cfg:     cfg,
		now:     cfg.Now,
		log:     cfg.Logger,
		cache:   newCache(cfg.CacheTTL, cfg.Now),
		writeMu: make(map[Collection]*sync.Mutex, len(AllCollections)),
	}

	db.store = &storage{
		dir:         cfg.Dir,
		fs:          cfg.FS,
		locker:      fs.NewLocker(cfg.FS),
		lockTimeout: cfg.LockTimeout,
		seed:        db.seed,
	}

	for _, c := range AllCollections {
		db.writeMu[c] = &sync.Mutex{}
	}

	return db, nil
}

// Dir returns the data directory.
func (db *DB) Dir() string {
	return db.cfg.Dir
}

// Close marks the DB closed. Later calls return [ErrClosed]. Close holds no
// resources between operations, so it never fails; calling it twice is
// allowed.
func (db *DB) Close() error {
	db.closed.Store(true)

	return nil
}

// Invalidate drops the cached snapshot of c. The next read goes to disk.
func (db *DB) Invalidate(c Collection) {
	db.cache.invalidate(c)
}

// InvalidateAll drops every cached snapshot.
func (db *DB) InvalidateAll() {
	for _, c := range AllCollections {
		db.cache.invalidate(c)
	}
}

func (db *DB) checkOpen(ctx context.Context) error {
	if db.closed.Load() {
		return ErrClosed
	}

	if ctx == nil {
		return errors.New("context is nil")
	}

	return ctx.Err()
}

// read returns the current bytes of c, from cache when fresh.
func (db *DB) read(ctx context.Context, c Collection) ([]byte, error) {
	err := db.checkOpen(ctx)
	if err != nil {
		return nil, err
	}

	data, ok := db.cache.get(c)
	if ok {
		return data, nil
	}

	gen := db.cache.begin(c)

	data, found, err := db.store.read(c)
	if err != nil {
		return nil, err
	}

	if !found {
		// Initialize under the lock so two readers cannot both seed.
		return db.write(ctx, c, func([]byte) ([]byte, error) { return nil, nil })
	}

	db.cache.fill(c, gen, data)

	return data, nil
}

// write runs one load-modify-save cycle on c. fn receives the bytes on disk
// and returns the replacement, or nil to leave the file unchanged. It returns
// the bytes that are on disk afterwards.
func (db *DB) write(ctx context.Context, c Collection, fn func(cur []byte) ([]byte, error)) ([]byte, error) {
	err := db.checkOpen(ctx)
	if err != nil {
		return nil, err
	}

	mu := db.writeMu[c]
	mu.Lock()
	defer mu.Unlock()

	start := time.Now()

	lk, err := db.store.lock(c)
	if err != nil {
		return nil, err
	}

	defer func() {
		closeErr := lk.Close()
		if closeErr != nil {
			db.log.Warn("release collection lock", "collection", c, "err", closeErr)
		}
	}()

	if waited := time.Since(start); waited > lockWaitLogThreshold {
		db.log.Debug("waited for collection lock", "collection", c, "waited", waited)
	}

	cur, err := db.store.loadLocked(c)
	if err != nil {
		return nil, err
	}

	next, err := fn(cur)
	if err != nil {
		db.cache.put(c, cur)

		return nil, err
	}

	if next == nil {
		db.cache.put(c, cur)

		return cur, nil
	}

	err = db.store.save(c, next)
	if err != nil {
		db.cache.invalidate(c)

		return nil, err
	}

	db.cache.put(c, next)

	return next, nil
}

// seed returns the default content of a missing collection file.
func (db *DB) seed(c Collection) ([]byte, error) {
	if c == Settings {
		return encode(DefaultSettings())
	}

	return []byte("[]\n"), nil
}
