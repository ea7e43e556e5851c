package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jonny/instance-bot/internal/domain/model"
)

// ParseInteraction decodes a raw interaction body. An empty body is read as
// an empty object, which carries no type and is therefore unsupported; it is
// never promoted to a ping. Anything that is not exactly one JSON object is
// malformed.
func ParseInteraction(body []byte) (model.Interaction, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return model.Interaction{}, nil
	}
	if trimmed[0] != '{' {
		return model.Interaction{}, fmt.Errorf("%w: body is not a JSON object", model.ErrMalformedRequest)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var interaction model.Interaction
	if err := dec.Decode(&interaction); err != nil {
		return model.Interaction{}, fmt.Errorf("%w: %v", model.ErrMalformedRequest, err)
	}

	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return model.Interaction{}, fmt.Errorf("%w: trailing data after JSON object", model.ErrMalformedRequest)
	}
	return interaction, nil
}
