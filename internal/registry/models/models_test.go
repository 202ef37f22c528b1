package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivePageID(t *testing.T) {
	id := DerivePageID("registry-a", "addr-creator", "addr-target", 0)
	require.Len(t, string(id), 64)

	t.Run("deterministic", func(t *testing.T) {
		again := DerivePageID("registry-a", "addr-creator", "addr-target", 0)
		assert.Equal(t, id, again)
	})

	t.Run("every input contributes", func(t *testing.T) {
		assert.NotEqual(t, id, DerivePageID("registry-b", "addr-creator", "addr-target", 0))
		assert.NotEqual(t, id, DerivePageID("registry-a", "addr-other", "addr-target", 0))
		assert.NotEqual(t, id, DerivePageID("registry-a", "addr-creator", "addr-other", 0))
		assert.NotEqual(t, id, DerivePageID("registry-a", "addr-creator", "addr-target", 1))
	})

	t.Run("length prefixing prevents field bleed", func(t *testing.T) {
		// Without per-field framing these two would hash identically.
		a := DerivePageID("ab", "c", "addr-target", 0)
		b := DerivePageID("a", "bc", "addr-target", 0)
		assert.NotEqual(t, a, b)
	})
}

func TestPageExists(t *testing.T) {
	assert.False(t, Page{}.Exists())
	assert.True(t, Page{Owner: "addr-alice"}.Exists())
}

func TestValidName(t *testing.T) {
	valid := []string{"a", "A", "0", "some-name", "under_score", "Mixed-2_x"}
	for _, name := range valid {
		assert.True(t, ValidName(name), "name=%q", name)
	}
	invalid := []string{"", "has space", "dot.dot", "slash/", "ütf8", "bang!"}
	for _, name := range invalid {
		assert.False(t, ValidName(name), "name=%q", name)
	}
}

func TestValidTerm(t *testing.T) {
	assert.True(t, ValidTerm(1))
	assert.True(t, ValidTerm(12))
	for _, months := range []int{0, -1, 2, 6, 13} {
		assert.False(t, ValidTerm(months), "months=%d", months)
	}
}

func TestTermDuration(t *testing.T) {
	assert.Equal(t, 30*24*time.Hour, TermDuration(1))
	assert.Equal(t, 360*24*time.Hour, TermDuration(12))
}
