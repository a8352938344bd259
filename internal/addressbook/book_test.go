package addressbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRootSections(t *testing.T) {
	b, err := Parse([]byte(`{
		"members": {"terra1AbC": {"handle": "@alice", "name": "Alice"}},
		"validators": {"terravaloper1xyz": {"name": "Val One", "type": "validator"}},
		"tokens": {"uluna": {"symbol": "LUNA", "name": "Terra Luna"}}
	}`))
	require.NoError(t, err)

	e, ok := b.Lookup("TERRA1abc")
	require.True(t, ok)
	assert.Equal(t, "@alice", e.Label())

	e, ok = b.Lookup("terravaloper1xyz")
	require.True(t, ok)
	assert.Equal(t, "Val One", e.Label())

	tok, ok := b.TokenBySymbol("LUNA")
	require.True(t, ok)
	assert.Equal(t, "Terra Luna", tok.Name)

	_, ok = b.TokenBySymbol("UST")
	assert.False(t, ok)
	assert.Equal(t, 1, b.Counts()["members"])
}

func TestParseNestedKnownAddresses(t *testing.T) {
	b, err := Parse([]byte(`{
		"members": {"terra1m": {"name": "Member"}},
		"known_addresses": {
			"daos": {"terra1d": {"name": "The DAO", "type": "dao"}},
			"contracts": {"terra1c": {"name": "Market", "type": "contract"}}
		}
	}`))
	require.NoError(t, err)

	for addr, label := range map[string]string{"terra1m": "Member", "terra1d": "The DAO", "terra1c": "Market"} {
		e, ok := b.Lookup(addr)
		require.True(t, ok, addr)
		assert.Equal(t, label, e.Label())
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read address book")

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("["), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "parse address book")

	var nilBook *Book
	_, ok := nilBook.Lookup("terra1")
	assert.False(t, ok)
}
