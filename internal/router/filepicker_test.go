// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Scenario 5 (§8): file-picker ranking.
func TestRankFilesQueryPrefersBasenameMatch(t *testing.T) {
	files := []string{"src/deep/path/auth-provider.ts", "auth.ts", "src/auth/index.ts", "README.md"}
	ranked := RankFiles(files, "auth")
	assert.Equal(t, "auth.ts", ranked[0])
	assert.Contains(t, ranked, "src/auth/index.ts")
}

func TestRankFilesEmptyQueryIsShallowFirstThenShorterThenLexicographic(t *testing.T) {
	files := []string{"b/one.go", "a.go", "aa.go", "a/two.go"}
	ranked := RankFiles(files, "")
	assert.Equal(t, []string{"a.go", "aa.go", "a/two.go", "b/one.go"}, ranked)
}

func TestRankFilesDropsNonMatches(t *testing.T) {
	files := []string{"auth.ts", "unrelated.go"}
	ranked := RankFiles(files, "auth")
	assert.Equal(t, []string{"auth.ts"}, ranked)
}
