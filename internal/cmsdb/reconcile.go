package cmsdb

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DefaultRequiredPages are the canonical routes every site has.
var DefaultRequiredPages = []string{
	"/",
	"/about",
	"/services",
	"/contact",
	"/careers",
	"/privacy-policy",
	"/terms",
}

// SystemAuthor is the createdBy/updatedBy of synthesized pages.
const SystemAuthor = "system"

// reconcilePages reads the pages and adds a page for every wanted slug that
// has none. Stored pages are never removed, even if their route is gone.
func (db *DB) reconcilePages(ctx context.Context) ([]Page, error) {
	wanted, err := db.wantedSlugs(ctx)
	if err != nil {
		return nil, err
	}

	pages, err := list[Page](ctx, db, Pages)
	if err != nil {
		return nil, err
	}

	if len(missingSlugs(pages, wanted)) == 0 {
		return pages, nil
	}

	// Recompute under the lock: another writer may have added some already.
	err = mutate(ctx, db, Pages, func(all []Page) ([]Page, bool, error) {
		missing := missingSlugs(all, wanted)
		if len(missing) == 0 {
			pages = all

			return nil, false, nil
		}

		now := db.now()

		for _, slug := range missing {
			p, err := synthesizePage(slug, now)
			if err != nil {
				return nil, false, err
			}

			all = append(all, p)
		}

		db.log.Info("synthesized missing pages", "count", len(missing), "slugs", missing)

		pages = all

		return all, true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile pages: %w", err)
	}

	return pages, nil
}

// wantedSlugs is RequiredPages followed by discovered routes, in order.
func (db *DB) wantedSlugs(ctx context.Context) ([]string, error) {
	wanted := append([]string(nil), db.cfg.RequiredPages...)

	if db.cfg.DiscoverRoutes == nil {
		return wanted, nil
	}

	discovered, err := db.cfg.DiscoverRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover routes: %w", err)
	}

	return append(wanted, discovered...), nil
}

// missingSlugs returns the wanted slugs no page has, once each, in wanted
// order. Matching is by exact string.
func missingSlugs(pages []Page, wanted []string) []string {
	have := make(map[string]bool, len(pages))
	for _, p := range pages {
		have[p.Slug] = true
	}

	var missing []string

	for _, slug := range wanted {
		if slug == "" || have[slug] {
			continue
		}

		have[slug] = true
		missing = append(missing, slug)
	}

	return missing
}

func synthesizePage(slug string, now time.Time) (Page, error) {
	id, err := newID()
	if err != nil {
		return Page{}, err
	}

	p := Page{
		ID:        id,
		Title:     TitleFromSlug(slug),
		Slug:      slug,
		Status:    StatusPublished,
		Blocks:    []ContentBlock{},
		SEO:       SEO{Title: TitleFromSlug(slug), Keywords: []string{}},
		CreatedBy: SystemAuthor,
		UpdatedBy: SystemAuthor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return p, nil
}

// TitleFromSlug turns "/privacy-policy" into "Privacy Policy" and
// "/services/web-design" into "Web Design". The root is "Home".
func TitleFromSlug(slug string) string {
	trimmed := strings.Trim(slug, "/")
	if trimmed == "" {
		return "Home"
	}

	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[i+1:]
	}

	words := strings.FieldsFunc(trimmed, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}

	if len(words) == 0 {
		return "Untitled"
	}

	return strings.Join(words, " ")
}
