package snippet

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Snippet
	}{
		{"scenario", Snippet{Code: "a=1", Language: "Python", Result: "ok"}},
		{"empty", Snippet{}},
		{"unicode", Snippet{Code: "print('héllo 世界 🚀')", Language: "Python", Result: "Looks good 👍"}},
		{"html chars", Snippet{Code: "if (a < b && c > d) {}", Language: "JavaScript", Result: "<b>bold</b>"}},
		{"quotes and newlines", Snippet{Code: "s := \"x\"\n\tfmt.Println(s)\r\n", Language: "C++", Result: "line1\nline2"}},
		{"control chars", Snippet{Code: "\x00\x01  ", Language: "Java", Result: "\t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := Encode(tt.in)
			if strings.ContainsAny(token, "+/=") {
				t.Errorf("token %q is not URL safe", token)
			}
			got, ok := Decode(token)
			if !ok {
				t.Fatalf("Decode(%q) failed", token)
			}
			if got != tt.in {
				t.Errorf("round trip = %+v, want %+v", got, tt.in)
			}
		})
	}
}

func TestEncode_InvalidUTF8Decodes(t *testing.T) {
	token := Encode(Snippet{Code: "caf\xe9 = 1", Language: "Python", Result: "bad \xff\xfe bytes"})
	got, ok := Decode(token)
	if !ok {
		t.Fatalf("Decode(%q) failed for a token produced by Encode", token)
	}
	want := Snippet{Code: "caf\uFFFD = 1", Language: "Python", Result: "bad \uFFFD bytes"}
	if got != want {
		t.Errorf("Decode = %+v, want %+v", got, want)
	}
	if Encode(got) != token {
		t.Error("re-encoding the decoded snippet changed the token")
	}
}

func TestEncode_Deterministic(t *testing.T) {
	s := Snippet{Code: "x", Language: "Java", Result: "r"}
	if Encode(s) != Encode(s) {
		t.Error("Encode should be deterministic")
	}
}

func TestDecode_Malformed(t *testing.T) {
	b64 := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"padded", base64.URLEncoding.EncodeToString([]byte(`{"code":"a","language":"b","result":"c"}`))},
		{"not json", b64("hello")},
		{"json array", b64(`[1,2,3]`)},
		{"wrong field type", b64(`{"code":1,"language":"b","result":"c"}`)},
		{"unknown field", b64(`{"code":"a","language":"b","result":"c","x":1}`)},
		{"non canonical order", b64(`{"language":"b","code":"a","result":"c"}`)},
		{"trailing data", b64(`{"code":"a","language":"b","result":"c"}{}`)},
		{"invalid utf8", b64("{\"code\":\"\xff\",\"language\":\"b\",\"result\":\"c\"}")},
		{"truncated", Encode(Snippet{Code: "abc", Language: "Java"})[:10]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s, ok := Decode(tt.token); ok {
				t.Errorf("Decode(%q) = %+v, want failure", tt.token, s)
			}
		})
	}
}

func TestShareURLAndConsume(t *testing.T) {
	in := Snippet{Code: "a=1", Language: "Python", Result: "ok"}
	link, err := ShareURL("http://localhost:3000/?theme=dark", in)
	if err != nil {
		t.Fatalf("ShareURL error: %v", err)
	}
	if !strings.Contains(link, Param+"=") {
		t.Fatalf("ShareURL = %q, missing %s parameter", link, Param)
	}

	got, cleaned, ok := Consume(link)
	if !ok {
		t.Fatalf("Consume(%q) failed", link)
	}
	if got != in {
		t.Errorf("Consume snippet = %+v, want %+v", got, in)
	}
	if strings.Contains(cleaned, Param+"=") {
		t.Errorf("cleaned location %q still carries the token", cleaned)
	}
	if !strings.Contains(cleaned, "theme=dark") {
		t.Errorf("cleaned location %q dropped other parameters", cleaned)
	}

	// Consuming again is a no-op.
	if _, again, ok := Consume(cleaned); ok || again != cleaned {
		t.Errorf("second Consume = (%q, %v), want unchanged and false", again, ok)
	}
}

func TestConsume_InvalidTokenLeavesLocation(t *testing.T) {
	loc := "http://localhost:3000/?snippet=garbage!"
	if _, cleaned, ok := Consume(loc); ok || cleaned != loc {
		t.Errorf("Consume(%q) = (%q, %v), want unchanged and false", loc, cleaned, ok)
	}
}
