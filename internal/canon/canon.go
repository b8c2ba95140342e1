// Copyright 2025 Certen Protocol
//
// Canonical Encoding Primitives
// JSON canonicalization, SHA-256 hashing, base64url and gzip helpers shared
// by the commitment and ion packages.

package canon

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Canonicalize takes arbitrary JSON bytes and returns a canonical encoding:
// deterministic key order, stable formatting. This is a JCS-equivalent
// approach for the string/object/array values this module's candidates
// ever contain (no floating point payloads are hashed).
func Canonicalize(raw []byte) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("canonicalize: decode json: %w", err)
	}
	return json.Marshal(canonicalizeValue(v))
}

// CanonicalizeValue canonicalizes an already-decoded value (sorted map
// keys, order-preserving arrays) and marshals it.
func CanonicalizeValue(v interface{}) ([]byte, error) {
	return json.Marshal(canonicalizeValue(v))
}

func canonicalizeValue(v interface{}) interface{} {
	switch vv := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make(sortedMap, 0, len(vv))
		for _, k := range keys {
			ordered = append(ordered, sortedEntry{k, canonicalizeValue(vv[k])})
		}
		return ordered
	case []interface{}:
		out := make([]interface{}, len(vv))
		for i, e := range vv {
			out[i] = canonicalizeValue(e)
		}
		return out
	default:
		return vv
	}
}

// sortedMap/sortedEntry preserve canonical key ordering through
// encoding/json.Marshal, which otherwise re-sorts map[string]interface{}
// keys itself (harmlessly, since we already sorted) but gives us an
// explicit type to hang a custom MarshalJSON on if the key order ever
// needs to diverge from Go's default string sort (it does not, today).
type sortedEntry struct {
	key   string
	value interface{}
}

type sortedMap []sortedEntry

func (m sortedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(e.key)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(e.value)
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// HashHex returns the hex-encoded SHA-256 digest of data.
func HashHex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SHA256 returns the raw SHA-256 digest bytes of data.
func SHA256(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

// CanonicalHash canonicalizes v (any JSON-marshalable value) and returns
// the hex-encoded SHA-256 digest of the canonical bytes, so two
// semantically identical documents always hash the same regardless of
// field ordering. Signed proof payloads use the raw digest bytes (SHA256
// over Canonicalize's output), not this hex form.
func CanonicalHash(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonical hash: marshal: %w", err)
	}
	canon, err := Canonicalize(raw)
	if err != nil {
		return "", fmt.Errorf("canonical hash: canonicalize: %w", err)
	}
	return HashHex(canon), nil
}

// Base64URLEncode encodes data without padding, per RFC 7515's use of
// base64url for JWS segments.
func Base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// Base64URLDecode decodes an unpadded base64url string.
func Base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

// Gunzip decompresses gzip-compressed bytes.
func Gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gunzip: open: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("gunzip: read: %w", err)
	}
	return out, nil
}
