package words

import "encoding/binary"

// Writer accumulates words for SPIR-V binary encoding.
type Writer struct {
	buf []uint32
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]uint32, 0, 64)}
}

// Words returns the written words.
func (w *Writer) Words() []uint32 {
	return w.buf
}

// Len returns the number of words written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Word writes a single word.
func (w *Writer) Word(v uint32) {
	w.buf = append(w.buf, v)
}

// WriteWords writes a word slice.
func (w *Writer) WriteWords(vs []uint32) {
	w.buf = append(w.buf, vs...)
}

// String writes a NUL-terminated literal string padded to a word boundary.
func (w *Writer) String(s string) {
	w.buf = append(w.buf, EncodeString(s)...)
}

// Bytes encodes the written words with the given byte order.
func (w *Writer) Bytes(order binary.ByteOrder) []byte {
	return Encode(w.buf, order)
}

// Encode converts words to bytes with the given byte order.
func Encode(ws []uint32, order binary.ByteOrder) []byte {
	out := make([]byte, len(ws)*4)
	for i, v := range ws {
		order.PutUint32(out[i*4:], v)
	}
	return out
}

// EncodeString returns the literal string encoding of s.
func EncodeString(s string) []uint32 {
	n := len(s)/4 + 1
	out := make([]uint32, n)
	for i := 0; i < len(s); i++ {
		out[i/4] |= uint32(s[i]) << (8 * (i % 4))
	}
	return out
}
