package describe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMessageText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain string content",
			raw:  `{"role":"assistant","content":"  warm, hopeful, medium energy  "}`,
			want: "warm, hopeful, medium energy",
		},
		{
			name: "structured text parts are joined",
			raw:  `{"content":[{"type":"text","text":"calm intro,"},{"type":"output_text","text":"building tension"}]}`,
			want: "calm intro, building tension",
		},
		{
			name: "non-text parts are skipped",
			raw:  `{"content":[{"type":"audio","text":"ignored"},{"type":"text","text":"high energy"}]}`,
			want: "high energy",
		},
		{
			name: "empty string content",
			raw:  `{"content":""}`,
			want: "",
		},
		{
			name: "null content yields empty string",
			raw:  `{"content":null}`,
			want: "",
		},
		{
			name: "unrecognized shape falls back to raw representation",
			raw:  `{"content":{"weird":"object"}}`,
			want: `{"weird":"object"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractMessageText([]byte(tt.raw)))
		})
	}
}

func TestExtractMessageText_MalformedJSONFallsBack(t *testing.T) {
	got := extractMessageText([]byte("not json at all"))
	assert.Equal(t, "not json at all", got)
}
