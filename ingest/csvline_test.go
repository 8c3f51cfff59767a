package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "embedded comma inside quotes",
			line: `"Question, avec virgule","A;B;C",`,
			want: []string{"Question, avec virgule", "A;B;C", ""},
		},
		{
			name: "unquoted fields",
			line: "Q1?,A|B,case1",
			want: []string{"Q1?", "A|B", "case1"},
		},
		{
			name: "empty line",
			line: "",
			want: []string{""},
		},
		{
			name: "doubled quotes are not an escape",
			line: `"Il dit ""non""",A;B`,
			want: []string{"Il dit non", "A;B"},
		},
		{
			name: "unbalanced quote swallows the rest",
			line: `"Q1?,A;B,case1`,
			want: []string{"Q1?,A;B,case1"},
		},
		{
			name: "spaces are kept",
			line: ` Q , A;B `,
			want: []string{" Q ", " A;B "},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseLine(tt.line))
		})
	}
}
