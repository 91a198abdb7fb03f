package partial

import (
	"encoding/json"
	"testing"
)

func TestComplete(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"open array", `[`, `[]`},
		{"open object in array", `[{`, `[{}]`},
		{"dangling key", `[{"sender`, `[{}]`},
		{"dangling key before colon", `[{"sender"`, `[{}]`},
		{"dangling colon", `[{"sender":`, `[{}]`},
		{"open string value", `[{"sender":"alice@x`, `[{"sender":"alice@x"}]`},
		{"closed field", `[{"sender":"alice@x.com"`, `[{"sender":"alice@x.com"}]`},
		{"dangling comma", `[{"sender":"alice@x.com",`, `[{"sender":"alice@x.com"}]`},
		{"second key dangling", `[{"sender":"a","subject`, `[{"sender":"a"}]`},
		{"complete record open array", `[{"sender":"a"},`, `[{"sender":"a"}]`},
		{"second record underway", `[{"sender":"a"},{"sender":"b`, `[{"sender":"a"},{"sender":"b"}]`},
		{"complete document", `[{"sender":"a"}]`, `[{"sender":"a"}]`},
		{"escaped quote in body", `[{"body":"he said \"hi`, `[{"body":"he said \"hi"}]`},
		{"trailing backslash dropped", `[{"body":"line\`, `[{"body":"line"}]`},
		{"half unicode escape dropped", `[{"body":"a\u00`, `[{"body":"a"}]`},
		{"newline escape preserved", `[{"body":"a\nb`, `[{"body":"a\nb"}]`},
		{"truncated number trimmed", `[{"n":12`, `[{}]`},
		{"whitespace prefix", "  \n[{\"sender\":\"a\"", `[{"sender":"a"}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Complete(tc.input)
			if !ok {
				t.Fatalf("Complete(%q) not ok", tc.input)
			}
			if got != tc.want {
				t.Fatalf("Complete(%q) = %q, want %q", tc.input, got, tc.want)
			}
			if !json.Valid([]byte(got)) {
				t.Fatalf("completion %q is not valid JSON", got)
			}
		})
	}
}

func TestComplete_Unusable(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "  \n"},
		{"bare text", "Sure, here are the emails:"},
		{"malformed escape", `[{"body":"a\uzz"}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got, ok := Complete(tc.input); ok {
				t.Fatalf("Complete(%q) = %q, expected not ok", tc.input, got)
			}
		})
	}
}

// Every prefix of a valid document must either complete to valid JSON or
// report not ok; Complete must never return garbage.
func TestComplete_AllPrefixesParse(t *testing.T) {
	doc := `[{"date":"2024-01-15","sender":"alice@x.com","subject":"Hi","preview":"Hey \"Bob\"","body":"Hey,\nlong time."},{"sender":"bob@y.com","subject":"Re: Hi"}]`
	for i := 1; i <= len(doc); i++ {
		got, ok := Complete(doc[:i])
		if !ok {
			continue
		}
		if !json.Valid([]byte(got)) {
			t.Fatalf("prefix %q completed to invalid JSON %q", doc[:i], got)
		}
	}
}
