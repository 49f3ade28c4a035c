// Package snippet encodes editor state into a self-contained, URL-safe token.
//
// A token is the canonical JSON form of {code, language, result} encoded as
// unpadded base64url. Nothing is stored server side: the full payload travels
// inside the token, so tokens never expire. [Decode] accepts only tokens that
// re-encode to themselves and reports failure instead of returning an error.
//
// [Consume] implements the one-time restore: a location carrying the
// "snippet" query parameter is decoded and the parameter is stripped from the
// returned location so a reload does not restore again.
package snippet
