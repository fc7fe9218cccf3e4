package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTableGridStringsAndNumbers(t *testing.T) {
	grid, ok := ParseTableGrid(`[["Name","Score"],["Alice",7],["Bob",3.5]]`)
	require.True(t, ok)
	require.Len(t, grid, 3)
	assert.Equal(t, []string{"Name", "Score"}, grid[0])
	assert.Equal(t, []string{"Alice", "7"}, grid[1])
	assert.Equal(t, []string{"Bob", "3.5"}, grid[2])
}

func TestParseTableGridValueObjects(t *testing.T) {
	grid, ok := ParseTableGrid(`[[{"value":"Topic"},{"value":12}],["Intro",{"value":"ok"}]]`)
	require.True(t, ok)
	assert.Equal(t, []string{"Topic", "12"}, grid[0])
	assert.Equal(t, []string{"Intro", "ok"}, grid[1])
}

func TestParseTableGridPadsRaggedRows(t *testing.T) {
	grid, ok := ParseTableGrid(`[["a","b","c"],["d"]]`)
	require.True(t, ok)
	assert.Equal(t, []string{"d", "", ""}, grid[1])
}

func TestParseTableGridRejectsMalformed(t *testing.T) {
	for _, payload := range []string{
		"",
		"not json",
		`{"rows":[]}`,
		`[]`,
		`[[]]`,
		`["flat","not","nested"]`,
	} {
		grid, ok := ParseTableGrid(payload)
		assert.False(t, ok, "payload %q must be rejected", payload)
		assert.Nil(t, grid)
	}
}

func TestParseTableGridUnknownCellTypeBecomesEmpty(t *testing.T) {
	grid, ok := ParseTableGrid(`[["x",{"other":1}],["y",null]]`)
	require.True(t, ok)
	assert.Equal(t, []string{"x", ""}, grid[0])
	assert.Equal(t, []string{"y", ""}, grid[1])
}
