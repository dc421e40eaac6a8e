// Package routes discovers the public page slugs of a Next.js style app
// directory, for use as [cmsdb.Config.DiscoverRoutes].
package routes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/calvinalkan/sitecms/internal/fs"
)

// pageFiles mark a directory as a routable page.
var pageFiles = []string{"page.tsx", "page.ts", "page.jsx", "page.js", "page.mdx"}

// skippedSegments are subtrees that never hold public pages.
var skippedSegments = []string{"admin", "api"}

// Discover walks dir and returns the slug of every directory that holds a
// page file, sorted. Route groups "(name)" add no segment. Dynamic "[id]"
// segments, private "_name" folders and the admin and api subtrees are
// skipped. A missing dir yields no slugs.
func Discover(fsys fs.FS, dir string) ([]string, error) {
	found := map[string]bool{}

	err := walk(fsys, dir, "/", found)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(found))
	for slug := range found {
		out = append(out, slug)
	}

	slices.Sort(out)

	return out, nil
}

func walk(fsys fs.FS, dir, slug string, found map[string]bool) error {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("read routes dir %s: %w", dir, err)
	}

	for _, e := range entries {
		name := e.Name()

		if !e.IsDir() {
			if slices.Contains(pageFiles, name) {
				found[slug] = true
			}

			continue
		}

		next, ok := childSlug(slug, name)
		if !ok {
			continue
		}

		err := walk(fsys, filepath.Join(dir, name), next, found)
		if err != nil {
			return err
		}
	}

	return nil
}

// childSlug returns the slug below parent for directory name, or false if
// the subtree is not public.
func childSlug(parent, name string) (string, bool) {
	switch {
	case strings.HasPrefix(name, "(") && strings.HasSuffix(name, ")"):
		return parent, true
	case strings.HasPrefix(name, "[") || strings.HasPrefix(name, "_") || strings.HasPrefix(name, "."):
		return "", false
	case parent == "/" && slices.Contains(skippedSegments, name):
		return "", false
	default:
		return path.Join(parent, name), true
	}
}

// Source returns a discovery function rooted at dir. The tree is walked on
// every call, so pages added while the server runs are picked up.
func Source(fsys fs.FS, dir string) func(context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		return Discover(fsys, dir)
	}
}
