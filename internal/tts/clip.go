package tts

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	// EchoProvider is the effective provider when none is configured. It
	// needs no key.
	EchoProvider = "echo"

	// DefaultModel stands in for an unset model in cache keys.
	DefaultModel = "default"
)

// CacheKey builds the key audio is cached under: provider and model are
// case-insensitive, text is taken verbatim.
func CacheKey(provider, model, text string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return strings.ToLower(strings.TrimSpace(provider)) + "|" + strings.ToLower(model) + "|" + text
}

// Clip is a cached synthesis result.
type Clip struct {
	Provider string
	Model    string
	Audio    []byte
}

const clipVersion = 1

// MarshalBinary encodes the clip as a version byte followed by
// length-prefixed provider, model and audio.
func (c Clip) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 1+3*binary.MaxVarintLen64+len(c.Provider)+len(c.Model)+len(c.Audio))
	buf = append(buf, clipVersion)
	for _, field := range [][]byte{[]byte(c.Provider), []byte(c.Model), c.Audio} {
		buf = binary.AppendUvarint(buf, uint64(len(field)))
		buf = append(buf, field...)
	}
	return buf, nil
}

func (c *Clip) UnmarshalBinary(data []byte) error {
	if len(data) == 0 || data[0] != clipVersion {
		return fmt.Errorf("clip: unsupported encoding")
	}
	data = data[1:]

	var fields [3][]byte
	for i := range fields {
		n, read := binary.Uvarint(data)
		if read <= 0 || uint64(len(data)-read) < n {
			return fmt.Errorf("clip: truncated field %d", i)
		}
		fields[i] = data[read : read+int(n)]
		data = data[read+int(n):]
	}
	if len(data) != 0 {
		return fmt.Errorf("clip: %d trailing bytes", len(data))
	}

	c.Provider = string(fields[0])
	c.Model = string(fields[1])
	c.Audio = append([]byte(nil), fields[2]...)
	return nil
}
