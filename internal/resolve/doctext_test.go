package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDoc(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", ""},
		{"blank", "  \n ", ""},
		{"line comments", "// Foo does foo.\n//\n// It is fast.", "Foo does foo.\n\nIt is fast."},
		{"keeps relative indentation", "// Example:\n//\n//\tcode()\n//\t  more()", "Example:\n\n\tcode()\n\t  more()"},
		{"common indentation removed", "//   a\n//     b", "a\n  b"},
		{"block comment", "/*\n   Package x.\n\n   Details.\n*/", "Package x.\n\nDetails."},
		{"single line block", "/* short */", "short"},
		{"trailing blank lines trimmed", "// text\n//\n//", "text"},
		{"nfc", "// cafe\u0301", "caf\u00e9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDoc(tt.raw))
		})
	}
}
