package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsRowsRawData(t *testing.T) {
	markup := InlineButtonsRows(
		[]InlineBtn{{Text: "2024", Data: "year_2024"}, {Text: "2025", Data: "year_2025"}},
		nil,
		[]InlineBtn{{Text: "Enter manually", Data: "manual_year"}},
	)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "year_2024", markup.InlineKeyboard[0][0].Data)
	assert.Empty(t, markup.InlineKeyboard[0][0].Unique)
	assert.Equal(t, "Enter manually", markup.InlineKeyboard[1][0].Text)
}

func TestInlineButtonsRowsUnique(t *testing.T) {
	markup := InlineButtonsRows([]InlineBtn{{Text: "Go", Unique: "go", Data: "1"}})
	require.Len(t, markup.InlineKeyboard, 1)
	assert.Equal(t, "go", markup.InlineKeyboard[0][0].Unique)
}
