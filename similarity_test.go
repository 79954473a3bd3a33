package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAliases(t *testing.T) {
	t.Parallel()

	t.Run("Single Word", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"draven"}, aliases("Draven"))
	})

	t.Run("Compound Name Splits Into Tokens", func(t *testing.T) {
		t.Parallel()
		got := aliases("Xin Zhao")
		assert.Contains(t, got, "xin zhao")
		assert.Contains(t, got, "xin")
		assert.Contains(t, got, "zhao")
	})

	t.Run("Short Tokens Are Skipped", func(t *testing.T) {
		t.Parallel()
		got := aliases("Le Baron")
		assert.Contains(t, got, "baron")
		assert.NotContains(t, got, "le")
	})

	t.Run("Parenthetical Variants", func(t *testing.T) {
		t.Parallel()
		got := aliases("Nunu (et Willump)")
		assert.Contains(t, got, "nunu (et willump)")
		assert.Contains(t, got, "nunu")
		assert.Contains(t, got, "et willump")
	})
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	t.Run("Identical Strings Score One", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 1.0, similarity("draven", "draven"))
	})

	t.Run("Both Empty Score One", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 1.0, similarity("", ""))
	})

	t.Run("Disjoint Strings Score Zero", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 0.0, similarity("abc", "xyz"))
	})

	t.Run("Symmetric", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, similarity("draven", "dravn"), similarity("dravn", "draven"))
	})

	t.Run("One Typo In Six Runes", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 5.0/6.0, similarity("draven", "dravan"), 1e-9)
		assert.GreaterOrEqual(t, similarity("draven", "dravn"), guessSimilarityMin)
	})
}

func TestBestSimilarity(t *testing.T) {
	t.Parallel()

	got := bestSimilarity(aliases("Xin Zhao"), "zhao")
	assert.Equal(t, 1.0, got)
}

func TestClueTooSimilar(t *testing.T) {
	t.Parallel()

	t.Run("Exact Word Rejected", func(t *testing.T) {
		t.Parallel()
		assert.True(t, clueTooSimilar("Draven", "Draven"))
	})

	t.Run("Substring Of Word Rejected", func(t *testing.T) {
		t.Parallel()
		assert.True(t, clueTooSimilar("Draven", "rave"))
	})

	t.Run("Word Inside Clue Rejected", func(t *testing.T) {
		t.Parallel()
		assert.True(t, clueTooSimilar("Draven", "draven2"))
	})

	t.Run("Alias Token Rejected", func(t *testing.T) {
		t.Parallel()
		assert.True(t, clueTooSimilar("Xin Zhao", "zhao"))
	})

	t.Run("Near Miss Rejected By Score", func(t *testing.T) {
		t.Parallel()
		// "dreven" is no substring but scores well above the cutoff.
		assert.True(t, clueTooSimilar("Draven", "dreven"))
	})

	t.Run("Unrelated Clue Accepted", func(t *testing.T) {
		t.Parallel()
		assert.False(t, clueTooSimilar("Draven", "hache"))
	})
}
