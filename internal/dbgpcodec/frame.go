// Package dbgpcodec implements the DBGp wire codec: framing and
// unframing of length-prefixed messages, generic XML parsing, and the
// typed decoding of <property> elements into VariableInfo trees.
package dbgpcodec

import (
	"bytes"
	"strconv"

	"github.com/wallter/smart-xdebug-mcp/internal/xlog"
)

// Decoder is a streaming state machine over an accumulating byte buffer.
// Feed may be called with chunks of arbitrary size, including single
// bytes; the sequence of messages returned across all calls is identical
// to feeding the same bytes in one call.
type Decoder struct {
	buf []byte
}

// Feed appends chunk to the internal buffer and extracts every complete
// "<ascii-decimal-length>\0<xml-bytes>\0" frame it can. Lengths are byte
// counts: the decoder operates on raw bytes so multi-byte UTF-8 sequences
// in the XML payload are counted correctly regardless of where a chunk
// boundary falls.
func (d *Decoder) Feed(chunk []byte) [][]byte {
	d.buf = append(d.buf, chunk...)

	var messages [][]byte
	for {
		nul := bytes.IndexByte(d.buf, 0)
		if nul < 0 {
			break
		}

		lengthStr := string(d.buf[:nul])
		length, err := strconv.Atoi(lengthStr)
		if err != nil || length <= 0 {
			xlog.Warn("dbgpcodec: framing recovery, skipping malformed length %q", lengthStr)
			d.buf = d.buf[nul+1:]
			continue
		}

		// Need `length` XML bytes plus the trailing NUL after this one.
		need := nul + 1 + length + 1
		if len(d.buf) < need {
			break
		}

		xmlBytes := make([]byte, length)
		copy(xmlBytes, d.buf[nul+1:nul+1+length])
		messages = append(messages, xmlBytes)
		d.buf = d.buf[need:]
	}
	return messages
}

// Pending reports how many unconsumed bytes remain buffered, useful for
// diagnostics on a connection that never completes a frame.
func (d *Decoder) Pending() int {
	return len(d.buf)
}
