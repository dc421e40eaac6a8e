package cmsdb

import (
	"context"
	"fmt"
	"time"
)

// PageStatus is the publication state of a page.
type PageStatus string

const (
	StatusDraft     PageStatus = "draft"
	StatusPublished PageStatus = "published"
	StatusArchived  PageStatus = "archived"
)

// Page is a routable page. Slug is the public route and starts with "/".
type Page struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Status      PageStatus     `json:"status"`
	Blocks      []ContentBlock `json:"blocks"`
	SEO         SEO            `json:"seo"`
	CreatedBy   string         `json:"createdBy"`
	UpdatedBy   string         `json:"updatedBy"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// SEO is the page's search metadata.
type SEO struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	OGImage     string   `json:"ogImage,omitempty"`
}

func (p *Page) recordID() string { return p.ID }

func (p *Page) stamp(id string, now time.Time) {
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now

	if p.Status == "" {
		p.Status = StatusDraft
	}

	p.normalize()
}

func (p *Page) touch(now time.Time) {
	p.UpdatedAt = now
	p.normalize()
}

func (p *Page) normalize() {
	if p.Blocks == nil {
		p.Blocks = []ContentBlock{}
	}

	if p.SEO.Keywords == nil {
		p.SEO.Keywords = []string{}
	}
}

// GetPages returns all pages, synthesizing any required or discovered page
// that is missing. A synthesis is saved before GetPages returns.
func (db *DB) GetPages(ctx context.Context) ([]Page, error) {
	pages, err := db.reconcilePages(ctx)

	return pages, withContext(err, "get_pages", Pages, "")
}

// GetPageByID returns the page with id or [ErrNotFound].
func (db *DB) GetPageByID(ctx context.Context, id string) (Page, error) {
	pages, err := db.reconcilePages(ctx)
	if err != nil {
		return Page{}, withContext(err, "get_page", Pages, id)
	}

	i := indexOf[Page](pages, id)
	if i < 0 {
		return Page{}, withContext(ErrNotFound, "get_page", Pages, id)
	}

	return pages[i], nil
}

// GetPageBySlug returns the page whose slug equals slug exactly.
func (db *DB) GetPageBySlug(ctx context.Context, slug string) (Page, error) {
	pages, err := db.reconcilePages(ctx)
	if err != nil {
		return Page{}, withContext(err, "get_page_by_slug", Pages, slug)
	}

	for _, p := range pages {
		if p.Slug == slug {
			return p, nil
		}
	}

	return Page{}, withContext(ErrNotFound, "get_page_by_slug", Pages, slug)
}

// CreatePage stores p with a new id and timestamps. The slug must be
// non-empty and unused.
func (db *DB) CreatePage(ctx context.Context, p Page) (Page, error) {
	if p.Slug == "" {
		return Page{}, withContext(fmt.Errorf("%w: slug is required", ErrValidation), "create_page", Pages, "")
	}

	out, err := insert(ctx, db, Pages, p, func(all []Page, rec *Page) error {
		return checkSlugUnique(all, -1, rec.Slug)
	})

	return out, withContext(err, "create_page", Pages, out.ID)
}

// UpdatePage merges patch into the page with id.
func (db *DB) UpdatePage(ctx context.Context, id string, patch Patch) (Page, error) {
	out, err := update[Page](ctx, db, Pages, id, patch, func(all []Page, i int) error {
		if all[i].Slug == "" {
			return fmt.Errorf("%w: slug is required", ErrValidation)
		}

		return checkSlugUnique(all, i, all[i].Slug)
	})

	return out, withContext(err, "update_page", Pages, id)
}

// DeletePage removes the page with id. A required or discovered page comes
// back, empty, on the next read.
func (db *DB) DeletePage(ctx context.Context, id string) error {
	return withContext(remove[Page](ctx, db, Pages, id), "delete_page", Pages, id)
}

func checkSlugUnique(all []Page, self int, slug string) error {
	for i := range all {
		if i != self && all[i].Slug == slug {
			return fmt.Errorf("%w: slug %q is used by page %s", ErrConflict, slug, all[i].ID)
		}
	}

	return nil
}
