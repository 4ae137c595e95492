package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"City_Water", `City\_Water`},
		{"a*b", `a\*b`},
		{"[link]", `\[link]`},
		{"`x`", "\\`x\\`"},
		{`back\slash`, `back\\slash`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeMarkdown(tt.in), tt.in)
	}
}

func TestCodeAndBold(t *testing.T) {
	assert.Equal(t, "`Bills/2024/March`", Code("Bills/2024/March"))
	assert.Equal(t, "`ab`", Code("a`b"))
	assert.Equal(t, `*Gas\_Service*`, Bold("Gas_Service"))
}
