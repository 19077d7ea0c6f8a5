package form

import (
	"encoding/json"
	"fmt"
)

// The storage backend transports the row list as a JSON string inside a
// single text column. Older records may instead hold an already-structured
// JSON array, so decoding accepts both shapes and always hands the caller a
// normalized []Row; the in-memory model never sees the encoded variant.

// EncodeRows serializes rows to the string transport form.
func EncodeRows(rows []Row) (string, error) {
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("encode rows: %w", err)
	}
	return string(data), nil
}

// DecodeRows parses the transport value back into a row list. raw may be a
// JSON array directly, or a JSON string whose contents are that array.
func DecodeRows(raw []byte) ([]Row, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = []byte(encoded)
	}

	var rows []Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}
