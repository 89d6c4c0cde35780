package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/formulary/pkg/types"
)

var doc = types.Document{Categories: []types.DocumentCategory{
	{Name: "Analgesics", Groups: []types.DocumentGroup{
		{Title: "NSAIDs", Items: []string{"Ibuprofen", "Naproxen"}},
		{Title: "Non-opioid", Items: []string{"Paracetamol"}},
	}},
	{Name: "Antibiotics", Groups: []types.DocumentGroup{
		{Title: "Penicillins", Items: []string{"Amoxicillin", "Penicillin V"}},
	}},
}}

func TestItems(t *testing.T) {
	t.Run("exact substring carries location", func(t *testing.T) {
		hits := Items(doc, "ibup", 0)
		require.Len(t, hits, 1)
		assert.Equal(t, "Analgesics", hits[0].Category)
		assert.Equal(t, "NSAIDs", hits[0].Group)
		assert.Equal(t, "Ibuprofen", hits[0].Item)
	})

	t.Run("subsequence match", func(t *testing.T) {
		hits := Items(doc, "amxcln", 0)
		require.Len(t, hits, 1)
		assert.Equal(t, "Amoxicillin", hits[0].Item)
	})

	t.Run("limit", func(t *testing.T) {
		all := Items(doc, "n", 0)
		require.Greater(t, len(all), 2)
		assert.Len(t, Items(doc, "n", 2), 2)
	})

	t.Run("blank pattern", func(t *testing.T) {
		assert.Empty(t, Items(doc, "  ", 0))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, Items(doc, "zzz", 0))
	})
}
