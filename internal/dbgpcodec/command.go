package dbgpcodec

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// Flag is a single "-<letter> <value>" command argument.
type Flag struct {
	Letter string
	Value  string
}

// Command is the encoder side of the codec: it builds the command form
// "<verb> -i <txid> <args>\0". Free-form payloads (expressions, file
// URIs) are base64-encoded and placed after a literal "--" separator
// per the DBGp convention.
type Command struct {
	Verb    string
	Txid    int
	Flags   []Flag
	Payload *string
}

// Encode renders the command as the NUL-terminated wire form.
func (c Command) Encode() []byte {
	var b strings.Builder
	b.WriteString(c.Verb)
	b.WriteString(" -i ")
	b.WriteString(strconv.Itoa(c.Txid))
	for _, f := range c.Flags {
		b.WriteString(" -")
		b.WriteString(f.Letter)
		b.WriteString(" ")
		b.WriteString(f.Value)
	}
	if c.Payload != nil {
		b.WriteString(" -- ")
		b.WriteString(base64.StdEncoding.EncodeToString([]byte(*c.Payload)))
	}
	b.WriteByte(0)
	return []byte(b.String())
}

// WithFlag appends a flag and returns the command for chaining.
func (c Command) WithFlag(letter, value string) Command {
	c.Flags = append(c.Flags, Flag{Letter: letter, Value: value})
	return c
}

// WithPayload sets the free-form base64-encoded payload.
func (c Command) WithPayload(payload string) Command {
	c.Payload = &payload
	return c
}

// EncodeBase64 is exposed for callers (breakpoint conditions) that need
// the raw encoded form without building a full Command.
func EncodeBase64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
