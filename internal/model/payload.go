package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Payload is a JSON document kept in canonical form: object keys sorted,
// strings NFC normalized, no HTML escaping, numbers preserved verbatim.
// A nil Payload is stored as NULL.
type Payload []byte

// NewPayload marshals v and canonicalizes the result.
func NewPayload(v any) (Payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return ParsePayload(raw)
}

// MustPayload is NewPayload for literals known to be valid.
func MustPayload(v any) Payload {
	p, err := NewPayload(v)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePayload validates raw JSON and canonicalizes it.
func ParsePayload(raw []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parse payload: trailing data after JSON value")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalizeStrings(doc)); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return Payload(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// normalizeStrings NFC-normalizes every string and object key in doc.
// encoding/json already sorts map keys on output.
func normalizeStrings(doc any) any {
	switch v := doc.(type) {
	case string:
		return norm.NFC.String(v)
	case []any:
		for i, elem := range v {
			v[i] = normalizeStrings(elem)
		}
		return v
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[norm.NFC.String(k)] = normalizeStrings(elem)
		}
		return out
	default:
		return v
	}
}

// Decode unmarshals the payload into v.
func (p Payload) Decode(v any) error {
	if len(p) == 0 {
		return fmt.Errorf("decode payload: empty")
	}
	return json.Unmarshal(p, v)
}

// Value implements driver.Valuer.
func (p Payload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return nil, nil
	}
	return string(p), nil
}

// Scan implements sql.Scanner. Stored documents are canonicalized again:
// PostgreSQL JSONB hands back its own key order and spacing.
func (p *Payload) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan payload: unsupported type %T", src)
	}
	parsed, err := ParsePayload(raw)
	if err != nil {
		return fmt.Errorf("scan payload: %w", err)
	}
	*p = parsed
	return nil
}

// MarshalJSON embeds the payload as raw JSON.
func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// UnmarshalJSON canonicalizes the incoming document.
func (p *Payload) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = nil
		return nil
	}
	parsed, err := ParsePayload(data)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
