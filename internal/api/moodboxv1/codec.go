package moodboxv1

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// CodecName is the codec name registered with connect; it replaces the default JSON codec.
const CodecName = "json"

// Codec is a connect.Codec marshalling plain message structs as JSON.
type Codec struct{}

// Name implements connect.Codec.
func (Codec) Name() string {
	return CodecName
}

// Marshal implements connect.Codec.
func (Codec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal message")
	}
	return data, nil
}

// Unmarshal implements connect.Codec. An empty body decodes to the zero message.
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return errors.Wrap(err, "failed to unmarshal message")
	}
	return nil
}
