package cmsdb

import (
	"context"
	"fmt"
	"time"
)

// MediaType classifies an uploaded file.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaDocument MediaType = "document"
)

// MediaItem describes an uploaded file. The binary lives elsewhere, at URL.
// Pages reference media by URL only; deleting an item does not touch them.
type MediaItem struct {
	ID         string     `json:"id"`
	Filename   string     `json:"filename"`
	URL        string     `json:"url"`
	Type       MediaType  `json:"type"`
	Size       int64      `json:"size"`
	UploadedAt time.Time  `json:"uploadedAt"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
	Alt        string     `json:"alt,omitempty"`
	Caption    string     `json:"caption,omitempty"`
}

func (m *MediaItem) recordID() string { return m.ID }

func (m *MediaItem) stamp(id string, now time.Time) {
	m.ID = id
	m.UploadedAt = now
}

func (m *MediaItem) touch(now time.Time) { m.UpdatedAt = &now }

func (db *DB) GetMedia(ctx context.Context) ([]MediaItem, error) {
	items, err := list[MediaItem](ctx, db, Media)

	return items, withContext(err, "get_media", Media, "")
}

func (db *DB) GetMediaByID(ctx context.Context, id string) (MediaItem, error) {
	m, err := getByID[MediaItem](ctx, db, Media, id)

	return m, withContext(err, "get_media_item", Media, id)
}

// CreateMedia records an uploaded file. uploadedAt is set to now.
func (db *DB) CreateMedia(ctx context.Context, m MediaItem) (MediaItem, error) {
	if m.URL == "" {
		return MediaItem{}, withContext(fmt.Errorf("%w: url is required", ErrValidation), "create_media", Media, "")
	}

	out, err := insert(ctx, db, Media, m, nil)

	return out, withContext(err, "create_media", Media, out.ID)
}

// UpdateMedia merges patch into the item. uploadedAt never changes.
func (db *DB) UpdateMedia(ctx context.Context, id string, patch Patch) (MediaItem, error) {
	out, err := modify[MediaItem](ctx, db, Media, id, func(m *MediaItem) error {
		merged, err := mergePatch(*m, patch, "id", "uploadedAt")
		if err != nil {
			return err
		}

		*m = merged

		return nil
	}, nil)

	return out, withContext(err, "update_media", Media, id)
}

func (db *DB) DeleteMedia(ctx context.Context, id string) error {
	return withContext(remove[MediaItem](ctx, db, Media, id), "delete_media", Media, id)
}
