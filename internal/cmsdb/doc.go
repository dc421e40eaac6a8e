// Package cmsdb is the embedded document store behind the site's admin area.
//
// Every collection is one JSON file in a single data directory:
//
//	pages.json     []Page
//	media.json     []MediaItem
//	users.json     []User
//	forms.json     []FormSubmission
//	jobs.json      []Job
//	settings.json  SiteSettings (object, not an array)
//
// Reads go through a short-TTL in-memory snapshot per collection. Writes
// replace the whole file with a temp file + rename and refresh the snapshot,
// so a process always observes its own writes.
//
// Two reads are self-healing:
//   - [DB.GetPages] synthesizes a published, empty page for every required or
//     discovered slug that has no stored page, and saves once.
//   - [DB.GetSettings] folds the deprecated formBuilder shape into forms[]
//     the first time it sees it, and saves once.
//
// # Concurrency
//
// Safe for concurrent use. Every load-modify-save holds a per-collection
// [sync.Mutex] and an exclusive flock on <dir>/.locks/<file>.lock, and
// re-reads the file from disk under that lock. Concurrent updates against the
// same collection are therefore serialized instead of overwriting each other.
// Snapshots are process-local: another process's writes become visible after
// at most one TTL.
//
// # Errors
//
// Public methods return *[Error] values that wrap one of the sentinels
// ([ErrNotFound], [ErrValidation], [ErrConflict], [ErrIO], ...). Use
// [errors.Is] to branch on them.
package cmsdb
