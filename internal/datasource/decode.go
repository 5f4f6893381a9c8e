package datasource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// envelopeKeys are the object fields a history array may be wrapped in.
var envelopeKeys = []string{"data", "history"}

// DecodeRecords reads a JSON history: a bare array, or an object wrapping the array under
// "data" or "history".
func DecodeRecords(r io.Reader) ([]RawRecord, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidData)
	}

	if body[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := unmarshalNumbers(body, &envelope); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		found := false
		for _, key := range envelopeKeys {
			if inner, ok := envelope[key]; ok {
				body, found = inner, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: object payload without data or history array", ErrInvalidData)
		}
	}

	var records []RawRecord
	if err := unmarshalNumbers(body, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return records, nil
}

func unmarshalNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
