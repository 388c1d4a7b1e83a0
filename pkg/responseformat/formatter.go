package responseformat

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Supported output formats
const (
	JSON    = "json"
	MsgPack = "msgpack"
)

// Formatter encodes results in JSON or MessagePack format
type Formatter struct {
	format string
	indent bool
}

// NewFormatter creates a formatter for the named format. An empty name
// selects JSON.
func NewFormatter(format string) (*Formatter, error) {
	switch f := strings.ToLower(format); f {
	case "", JSON:
		return &Formatter{format: JSON, indent: true}, nil
	case MsgPack:
		return &Formatter{format: MsgPack}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q: use %s or %s", format, JSON, MsgPack)
	}
}

// Format returns the selected format name
func (f *Formatter) Format() string { return f.format }

// ContentType returns the MIME type of the encoded output
func (f *Formatter) ContentType() string {
	if f.format == MsgPack {
		return "application/x-msgpack"
	}
	return "application/json"
}

// Write encodes data to w
func (f *Formatter) Write(w io.Writer, data any) error {
	if f.format == MsgPack {
		return writeMsgPack(w, data)
	}
	return f.writeJSON(w, data)
}

func (f *Formatter) writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	if f.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(data)
}

func writeMsgPack(w io.Writer, data any) error {
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json") // Use json tags for MessagePack
	return encoder.Encode(data)
}
