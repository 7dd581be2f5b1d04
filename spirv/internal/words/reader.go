package words

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrUnterminatedString is returned when a literal string has no NUL terminator.
var ErrUnterminatedString = errors.New("literal string is not NUL terminated")

// Decode converts a word-aligned byte buffer to host-order words.
// The caller is responsible for checking alignment.
func Decode(data []byte, order binary.ByteOrder) []uint32 {
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = order.Uint32(data[i*4:])
	}
	return out
}

// Reader walks a word slice with position tracking.
type Reader struct {
	words []uint32
	pos   int
}

// NewReader creates a new Reader over the given words.
func NewReader(words []uint32) *Reader {
	return &Reader{words: words}
}

// Position returns the current word position.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of unread words.
func (r *Reader) Remaining() int {
	return len(r.words) - r.pos
}

// PeekWord returns the next word without advancing.
func (r *Reader) PeekWord() (uint32, error) {
	if r.pos >= len(r.words) {
		return 0, io.EOF
	}
	return r.words[r.pos], nil
}

// ReadWords returns the next n words. The returned slice aliases the
// underlying buffer.
func (r *Reader) ReadWords(n int) ([]uint32, error) {
	if n < 0 || n > r.Remaining() {
		return nil, r.wrapError(io.ErrUnexpectedEOF)
	}
	out := r.words[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *Reader) wrapError(err error) error {
	return fmt.Errorf("at word %d: %w", r.pos, err)
}

// String decodes a SPIR-V literal string from the start of ws. Bytes are
// packed lowest-order first within each word. It returns the string and
// the number of words consumed, including the terminator word.
func String(ws []uint32) (string, int, error) {
	var b strings.Builder
	for i, w := range ws {
		for shift := 0; shift < 32; shift += 8 {
			c := byte(w >> shift)
			if c == 0 {
				s := b.String()
				if !utf8.ValidString(s) {
					s = strings.ToValidUTF8(s, "�")
				}
				return s, i + 1, nil
			}
			b.WriteByte(c)
		}
	}
	return "", len(ws), ErrUnterminatedString
}
