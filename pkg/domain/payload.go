package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodePayload converts an event payload into T.
// Payloads declared as maps (including those loaded from case fixtures) are decoded
// with mapstructure tags; a payload already of type T is returned as is.
func DecodePayload[T any](payload any) (T, error) {
	var out T
	if v, ok := payload.(T); ok {
		return v, nil
	}
	if payload == nil {
		return out, fmt.Errorf("decode payload: nil payload for %T", out)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return out, fmt.Errorf("decode payload: %w", err)
	}
	if err := dec.Decode(payload); err != nil {
		return out, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}
