package a2s

import (
	"fmt"

	"github.com/opengsq/opengsq-go/pkg/buffer"
)

// parseRules decodes a rule-list payload into a name/value map. The reader
// is positioned just past the discriminator byte. Later duplicate keys
// overwrite earlier ones.
func parseRules(r *buffer.Reader) (map[string]string, error) {
	count := int(r.ReadUint16())
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("rules response: %w", ErrTruncatedPayload)
	}

	rules := make(map[string]string, count)
	for i := 0; i < count; i++ {
		name, ok := r.TryReadString()
		if !ok {
			break
		}
		value, ok := r.TryReadString()
		if !ok {
			break
		}
		rules[name] = value
	}

	return rules, nil
}
