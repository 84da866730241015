package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cspurity/cspurity/internal/purity"
)

func TestNewTable_DedupesFirstMatchWins(t *testing.T) {
	// The builtin list intentionally carries Console.Read twice; the
	// constructor must keep only the first occurrence.
	table := NewTable()

	count := 0
	for _, name := range table.order {
		if name == "Console.Read" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestNewTable_ExtrasCannotOverrideBuiltins(t *testing.T) {
	table := NewTable(Entry{Name: "Console.WriteLine", Level: purity.Pure})

	lvl, ok := table.Lookup("Console.WriteLine")
	require.True(t, ok)
	assert.Equal(t, purity.Impure, lvl, "first match wins: the builtin entry stays")
}

func TestNewTable_ExtrasFillGaps(t *testing.T) {
	table := NewTable(Entry{Name: "Logger.Emit", Level: purity.Impure})

	lvl, ok := table.Lookup("Logger.Emit")
	require.True(t, ok)
	assert.Equal(t, purity.Impure, lvl)
}

func TestLookup_Miss(t *testing.T) {
	table := NewTable()

	_, ok := table.Lookup("Nothing.Here")
	assert.False(t, ok)
}

func TestLookupIdentity_TriesCandidatesInOrder(t *testing.T) {
	table := NewTable()

	// A resolved method's full display form never matches (entries carry
	// no return type); the class-dot-name fallback does.
	lvl, ok := table.LookupIdentity("void Console.WriteLine", "Console.WriteLine")
	require.True(t, ok)
	assert.Equal(t, purity.Impure, lvl)

	// The bare-name fallback catches entries like Dispose that are meant
	// to match any class's method of that name.
	lvl, ok = table.LookupIdentity("void Resource.Dispose", "Resource.Dispose", "Dispose")
	require.True(t, ok)
	assert.Equal(t, purity.Impure, lvl)
}

func TestLookupIdentity_SkipsEmptyCandidates(t *testing.T) {
	table := NewTable()

	_, ok := table.LookupIdentity("", "")
	assert.False(t, ok)
}

func TestSuggest_NearMiss(t *testing.T) {
	table := NewTable()

	got, ok := table.Suggest("Console.WrieLine")
	require.True(t, ok)
	assert.Equal(t, "Console.WriteLine", got)
}

func TestSuggest_NothingClose(t *testing.T) {
	table := NewTable()

	_, ok := table.Suggest("zzzzzzzzzzzzzzzzzzzzzzz")
	assert.False(t, ok)

	_, ok = table.Suggest("")
	assert.False(t, ok)
}
