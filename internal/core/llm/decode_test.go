package llm

import (
	"errors"
	"testing"
)

type decodeTarget struct {
	Questions []string `json:"questions"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "plain object", input: `{"questions":["a","b"]}`, want: 2},
		{name: "json code fence", input: "```json\n{\"questions\":[\"a\",\"b\",\"c\"]}\n```", want: 3},
		{name: "bare code fence", input: "```\n{\"questions\":[\"a\"]}\n```", want: 1},
		{name: "surrounding prose", input: "Here you go:\n{\"questions\":[\"a\",\"b\"]}\nHope this helps!", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got decodeTarget
			if err := DecodeJSON(tt.input, &got); err != nil {
				t.Fatalf("DecodeJSON() error = %v", err)
			}

			if len(got.Questions) != tt.want {
				t.Errorf("expected %d questions, got %d", tt.want, len(got.Questions))
			}
		})
	}
}

func TestDecodeJSON_Array(t *testing.T) {
	var got []map[string]any

	if err := DecodeJSON("```json\n[{\"name\":\"x\"},{\"name\":\"y\"}]\n```", &got); err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}

	if len(got) != 2 {
		t.Errorf("expected 2 entries, got %d", len(got))
	}
}

func TestDecodeJSON_Failures(t *testing.T) {
	for _, input := range []string{"", "   ", "no json here", "```json\n{\"questions\": [\n```"} {
		var got decodeTarget
		if err := DecodeJSON(input, &got); !errors.Is(err, ErrUndecodable) {
			t.Errorf("DecodeJSON(%q) error = %v, want ErrUndecodable", input, err)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: `prefix {"a":1} suffix`, want: `{"a":1}`},
		{input: `list: [1,2] done`, want: `[1,2]`},
		{input: `[{"a":1},{"b":2}]`, want: `[{"a":1},{"b":2}]`},
		{input: `nothing`, want: `nothing`},
	}

	for _, tt := range tests {
		if got := extractJSON(tt.input); got != tt.want {
			t.Errorf("extractJSON(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo wörld", 5); got != "héllo..." {
		t.Errorf("truncate() = %q", got)
	}

	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q", got)
	}
}
