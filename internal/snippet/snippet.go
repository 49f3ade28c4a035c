package snippet

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Param is the query parameter that carries a snippet token.
const Param = "snippet"

// Snippet is the shareable editor state.
type Snippet struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Result   string `json:"result"`
}

var encoding = base64.RawURLEncoding.Strict()

// Encode returns the token for s. Equal inputs always produce equal tokens.
func Encode(s Snippet) string {
	return encoding.EncodeToString(marshal(s))
}

// marshal writes canonical JSON without HTML escaping so the byte form does
// not depend on which characters the code happens to contain. Invalid UTF-8
// is replaced with U+FFFD first; encoding/json would otherwise emit it as an
// escape that Decode can never reproduce.
func marshal(s Snippet) []byte {
	s.Code = strings.ToValidUTF8(s.Code, "\uFFFD")
	s.Language = strings.ToValidUTF8(s.Language, "\uFFFD")
	s.Result = strings.ToValidUTF8(s.Result, "\uFFFD")

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a struct of strings cannot fail.
	_ = enc.Encode(s)
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n"))
}

// Decode reverses Encode. It reports false for empty, malformed or
// non-canonical tokens.
func Decode(token string) (Snippet, bool) {
	if token == "" {
		return Snippet{}, false
	}
	raw, err := encoding.DecodeString(token)
	if err != nil || !utf8.Valid(raw) {
		return Snippet{}, false
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var s Snippet
	if err := dec.Decode(&s); err != nil {
		return Snippet{}, false
	}
	if !bytes.Equal(marshal(s), raw) {
		return Snippet{}, false
	}
	return s, true
}

// ShareURL returns base with the token for s set as the snippet parameter.
func ShareURL(base string, s Snippet) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	q := u.Query()
	q.Set(Param, Encode(s))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Consume extracts the snippet from a location. On success the returned
// location no longer carries the parameter. When the parameter is absent or
// does not decode, the location is returned unchanged with ok false.
func Consume(location string) (s Snippet, cleaned string, ok bool) {
	u, err := url.Parse(location)
	if err != nil {
		return Snippet{}, location, false
	}
	q := u.Query()
	token := q.Get(Param)
	if token == "" {
		return Snippet{}, location, false
	}
	s, ok = Decode(token)
	if !ok {
		return Snippet{}, location, false
	}
	q.Del(Param)
	u.RawQuery = q.Encode()
	return s, u.String(), true
}
