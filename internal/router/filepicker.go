// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// skipDirs names directories the file picker never descends into -- not
// useful @mention targets and often enormous.
var skipDirs = map[string]bool{
	".git": true, "node_modules": true, ".touchgrass": true,
	"vendor": true, "dist": true, "build": true, ".next": true,
}

const maxPickerFiles = 2000

// ListRepoFiles walks root and returns every regular file path relative to
// root, skipping skipDirs and dotfiles. Used to build the /files picker's
// candidate set.
func ListRepoFiles(root string) []string {
	var out []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr
		}
		if path == root {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if skipDirs[name] || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil //nolint:nilerr
		}
		out = append(out, filepath.ToSlash(rel))
		if len(out) >= maxPickerFiles {
			return filepath.SkipAll
		}
		return nil
	})
	return out
}

// RankFiles orders files by relevance to query (§8 Scenario 5). An empty
// query yields a deterministic shallow-first, shorter-first, lexicographic
// order. A non-empty query ranks exact basename matches first, then
// basename-prefix/substring matches, then path-substring matches, each
// tier broken by shallower-then-shorter-then-lexicographic order.
func RankFiles(files []string, query string) []string {
	out := append([]string(nil), files...)
	if query == "" {
		sort.SliceStable(out, func(i, j int) bool { return lessPath(out[i], out[j]) })
		return out
	}

	q := strings.ToLower(query)
	tier := func(path string) int {
		base := strings.ToLower(filepath.Base(path))
		lower := strings.ToLower(path)
		switch {
		case base == q || strings.TrimSuffix(base, filepath.Ext(base)) == q:
			return 0
		case strings.HasPrefix(base, q):
			return 1
		case strings.Contains(base, q):
			return 2
		case strings.Contains(lower, q):
			return 3
		default:
			return 4
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := tier(out[i]), tier(out[j])
		if ti != tj {
			return ti < tj
		}
		return lessPath(out[i], out[j])
	})

	// Drop files that matched nothing at all (tier 4) rather than return
	// the whole tree back as a "ranking" of an unrelated query.
	kept := out[:0]
	for _, f := range out {
		if tier(f) < 4 {
			kept = append(kept, f)
		}
	}
	return kept
}

// lessPath orders by path depth, then length, then lexicographically --
// the deterministic order an empty-query picker falls back to.
func lessPath(a, b string) bool {
	da, db := strings.Count(a, "/"), strings.Count(b, "/")
	if da != db {
		return da < db
	}
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
