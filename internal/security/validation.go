package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Argument limit defaults.
const (
	DefaultMaxArgBytes = 1 << 20 // 1 MiB
	DefaultMaxArgDepth = 32
)

// Boundary errors for raw tool arguments. All three are hard failures.
var (
	ErrMessageTooLarge = errors.New("arguments exceed maximum size")
	ErrJSONTooDeep     = errors.New("JSON nesting exceeds maximum depth")
	ErrInvalidJSON     = errors.New("invalid JSON")
)

// ArgumentLimits bounds raw tool arguments before any tool decodes them.
// Non-positive fields fall back to the defaults.
type ArgumentLimits struct {
	MaxBytes int
	MaxDepth int
}

func (l ArgumentLimits) maxBytes() int {
	if l.MaxBytes > 0 {
		return l.MaxBytes
	}
	return DefaultMaxArgBytes
}

func (l ArgumentLimits) maxDepth() int {
	if l.MaxDepth > 0 {
		return l.MaxDepth
	}
	return DefaultMaxArgDepth
}

// Check validates args against the limits. Empty args pass; tools treat
// them as an empty object. Otherwise args must be exactly one well-formed
// JSON value no larger than MaxBytes and nested no deeper than MaxDepth.
// The size check runs first so oversized input is never tokenized.
func (l ArgumentLimits) Check(args []byte) error {
	if limit := l.maxBytes(); len(args) > limit {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrMessageTooLarge, len(args), limit)
	}
	if len(bytes.TrimSpace(args)) == 0 {
		return nil
	}
	return checkDepth(args, l.maxDepth())
}

// checkDepth walks the token stream without building values, so a deeply
// nested payload is rejected before it can cost a full decode.
func checkDepth(data []byte, limit int) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	depth := 0
	values := 0

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			if depth != 0 {
				return fmt.Errorf("%w: unexpected end of input", ErrInvalidJSON)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}

		if depth == 0 {
			values++
			if values > 1 {
				return fmt.Errorf("%w: trailing data after top-level value", ErrInvalidJSON)
			}
		}

		switch tok {
		case json.Delim('{'), json.Delim('['):
			depth++
			if depth > limit {
				return fmt.Errorf("%w: depth %d (max %d)", ErrJSONTooDeep, depth, limit)
			}
		case json.Delim('}'), json.Delim(']'):
			depth--
		}
	}
}
