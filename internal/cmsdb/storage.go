package cmsdb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/calvinalkan/sitecms/internal/fs"
)

// Collection names one persisted collection. The file name is "<name>.json".
type Collection string

// Collections.
const (
	Pages    Collection = "pages"
	Media    Collection = "media"
	Users    Collection = "users"
	Forms    Collection = "forms" // form submissions; form definitions live in settings
	Jobs     Collection = "jobs"
	Settings Collection = "settings"
)

// AllCollections lists every collection in file-layout order.
var AllCollections = []Collection{Pages, Media, Users, Forms, Jobs, Settings}

// FileName returns the collection's file name inside the data directory.
func (c Collection) FileName() string {
	return string(c) + ".json"
}

const (
	dataDirPerm  = 0o750
	dataFilePerm = 0o644
	locksDirName = ".locks"
)

// storage reads and writes whole collection files. It has no locking of its
// own; callers hold the collection lock for every write.
type storage struct {
	dir         string
	fs          fs.FS
	locker      *fs.Locker
	lockTimeout time.Duration
	seed        func(Collection) ([]byte, error)
}

func (s *storage) path(c Collection) string {
	return filepath.Join(s.dir, c.FileName())
}

// read returns the file content. found is false if the file does not exist.
func (s *storage) read(c Collection) ([]byte, bool, error) {
	data, err := s.fs.ReadFile(s.path(c))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("%w: read %s: %w", ErrIO, c.FileName(), err)
	}

	if !json.Valid(data) || len(bytes.TrimSpace(data)) == 0 {
		return nil, false, fmt.Errorf("%w: %s", ErrCorrupt, c.FileName())
	}

	return data, true, nil
}

// loadLocked returns the file content, writing the collection default first
// if the file does not exist. Caller must hold the collection lock.
func (s *storage) loadLocked(c Collection) ([]byte, error) {
	data, found, err := s.read(c)
	if err != nil || found {
		return data, err
	}

	data, err = s.seed(c)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", c, err)
	}

	err = s.save(c, data)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// save replaces the collection file. The data directory is created on first
// use.
func (s *storage) save(c Collection, data []byte) error {
	err := s.fs.MkdirAll(s.dir, dataDirPerm)
	if err != nil {
		return fmt.Errorf("%w: create data dir: %w", ErrIO, err)
	}

	err = s.fs.WriteFileAtomic(s.path(c), data, dataFilePerm)
	if err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, c.FileName(), err)
	}

	return nil
}

// lock acquires the cross-process lock for c.
func (s *storage) lock(c Collection) (*fs.Lock, error) {
	path := filepath.Join(s.dir, locksDirName, c.FileName()+".lock")

	lk, err := s.locker.LockWithTimeout(path, s.lockTimeout)
	if err != nil {
		if errors.Is(err, fs.ErrWouldBlock) {
			return nil, fmt.Errorf("%w: %s: %w", ErrLockTimeout, c, err)
		}

		return nil, fmt.Errorf("%w: lock %s: %w", ErrIO, c, err)
	}

	return lk, nil
}

// encode renders v the way every collection file is written: two-space
// indented JSON with a trailing newline.
func encode(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	return append(data, '\n'), nil
}

// decodeList decodes a collection array. A JSON null decodes to an empty
// slice.
func decodeList[E any](c Collection, data []byte) ([]E, error) {
	var out []E

	err := json.Unmarshal(data, &out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, c.FileName(), err)
	}

	if out == nil {
		out = []E{}
	}

	return out, nil
}
