package spirv

import (
	"encoding/binary"
	"fmt"
	"io"
	"iter"

	"github.com/wippyai/spirv-reflect/errors"
	"github.com/wippyai/spirv-reflect/spirv/internal/words"
)

// Header is the five-word SPIR-V module header.
type Header struct {
	Magic     uint32
	Version   uint32
	Generator uint32
	Bound     uint32
	Schema    uint32

	// ByteOrder is the byte order the module was encoded with.
	ByteOrder binary.ByteOrder
}

// Major returns the major version number.
func (h Header) Major() uint32 { return (h.Version >> 16) & 0xFF }

// Minor returns the minor version number.
func (h Header) Minor() uint32 { return (h.Version >> 8) & 0xFF }

// GeneratorTool returns the registered tool id from the generator word.
func (h Header) GeneratorTool() uint32 { return h.Generator >> 16 }

// Decode validates a SPIR-V byte buffer and converts it to host-order words.
// Both little- and big-endian encodings are accepted.
func Decode(data []byte) ([]uint32, Header, error) {
	if len(data)%4 != 0 {
		return nil, Header{}, errors.UnalignedBuffer(len(data))
	}
	if len(data) < HeaderWords*4 {
		return nil, Header{}, errors.MalformedHeader(
			fmt.Sprintf("need %d header words, have %d", HeaderWords, len(data)/4))
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(data) == Magic:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(data) == Magic:
		order = binary.BigEndian
	default:
		return nil, Header{}, errors.New(errors.PhaseRead, errors.KindMalformedHeader).
			Value(binary.LittleEndian.Uint32(data)).
			Detail("invalid magic number 0x%08x", binary.LittleEndian.Uint32(data)).
			Build()
	}

	code := words.Decode(data, order)
	h := Header{
		Magic:     code[0],
		Version:   code[1],
		Generator: code[2],
		Bound:     code[3],
		Schema:    code[4],
		ByteOrder: order,
	}
	if err := h.validate(); err != nil {
		return nil, Header{}, err
	}
	return code, h, nil
}

func (h Header) validate() error {
	if h.Major() != 1 || h.Minor() > MaxMinorVersion || h.Version&0xFF0000FF != 0 {
		return errors.New(errors.PhaseRead, errors.KindMalformedHeader).
			Word(1).
			Value(h.Version).
			Detail("unsupported version 0x%08x", h.Version).
			Build()
	}
	if h.Bound == 0 {
		return errors.New(errors.PhaseRead, errors.KindMalformedHeader).
			Word(3).
			Detail("id bound is zero").
			Build()
	}
	return nil
}

// InstructionReader yields the instructions of a module one at a time.
// It is not restartable: once Next returns an error every later call
// returns the same error.
type InstructionReader struct {
	r   *words.Reader
	err error
}

// NewInstructionReader creates a reader over decoded module words,
// positioned after the header.
func NewInstructionReader(code []uint32) *InstructionReader {
	r := words.NewReader(code)
	if _, err := r.ReadWords(HeaderWords); err != nil {
		return &InstructionReader{r: r, err: errors.MalformedHeader("truncated header")}
	}
	return &InstructionReader{r: r}
}

// Next decodes the next instruction. It returns io.EOF once the stream is
// exhausted.
func (ir *InstructionReader) Next() (Instruction, error) {
	if ir.err != nil {
		return Instruction{}, ir.err
	}

	offset := ir.r.Position()
	first, err := ir.r.PeekWord()
	if err != nil {
		ir.err = io.EOF
		return Instruction{}, ir.err
	}

	wordCount := int(first >> wordCountShift)
	op := OpCode(first & opcodeMask)
	if wordCount == 0 {
		ir.err = errors.New(errors.PhaseRead, errors.KindTruncatedStream).
			Opcode(op.String()).
			Word(offset).
			Detail("instruction word count is zero").
			Build()
		return Instruction{}, ir.err
	}

	ws, err := ir.r.ReadWords(wordCount)
	if err != nil {
		e := errors.TruncatedStream(offset, wordCount, ir.r.Remaining())
		e.Opcode = op.String()
		ir.err = e
		return Instruction{}, ir.err
	}

	return Instruction{
		Opcode:   op,
		Operands: ws[1:],
		Offset:   offset,
	}, nil
}

// All adapts the reader to a range-over-func sequence. Iteration stops after
// the first error, which is yielded with a zero Instruction.
func (ir *InstructionReader) All() iter.Seq2[Instruction, error] {
	return func(yield func(Instruction, error) bool) {
		for {
			inst, err := ir.Next()
			if err == io.EOF {
				return
			}
			if !yield(inst, err) || err != nil {
				return
			}
		}
	}
}
