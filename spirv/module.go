package spirv

import (
	"cmp"
	"slices"

	"github.com/wippyai/spirv-reflect/errors"
	"github.com/wippyai/spirv-reflect/spirv/internal/words"
)

// Module is a parsed SPIR-V module: the validated word buffer plus id-indexed
// tables of the declarations reflection needs. A Module is immutable once
// Parse returns and may be shared between goroutines.
type Module struct {
	types             map[uint32]*Type
	variables         map[uint32]*Variable
	constants         map[uint32]*Constant
	decorations       map[uint32][]DecorationEntry
	memberDecorations map[uint32][]MemberDecorationEntry
	names             map[uint32]string
	memberNames       map[memberKey]string
	code              []uint32
	header            Header
}

type memberKey struct {
	id     uint32
	member uint32
}

// Header returns the module header.
func (m *Module) Header() Header {
	return m.header
}

// Bound returns the id bound declared in the header.
func (m *Module) Bound() uint32 {
	return m.header.Bound
}

// Code returns the module words in host order. The slice is shared with the
// module and must not be modified.
func (m *Module) Code() []uint32 {
	return m.code
}

// CodeSize returns the size of the module in bytes.
func (m *Module) CodeSize() int {
	return len(m.code) * 4
}

// Bytes re-encodes the module with its original byte order.
func (m *Module) Bytes() []byte {
	return words.Encode(m.code, m.header.ByteOrder)
}

// Type returns the type declared with the given id.
func (m *Module) Type(id uint32) (Type, bool) {
	t, ok := m.types[id]
	if !ok {
		return Type{}, false
	}
	return *t, true
}

// Variable returns the variable declared with the given id.
func (m *Module) Variable(id uint32) (Variable, bool) {
	v, ok := m.variables[id]
	if !ok {
		return Variable{}, false
	}
	return *v, true
}

// Variables returns all variables ordered by id.
func (m *Module) Variables() []Variable {
	out := make([]Variable, 0, len(m.variables))
	for _, v := range m.variables {
		out = append(out, *v)
	}
	slices.SortFunc(out, func(a, b Variable) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Constant returns the scalar constant declared with the given id.
func (m *Module) Constant(id uint32) (Constant, bool) {
	c, ok := m.constants[id]
	if !ok {
		return Constant{}, false
	}
	return *c, true
}

// Decorations returns every decoration applied to id, in stream order.
func (m *Module) Decorations(id uint32) []DecorationEntry {
	return slices.Clone(m.decorations[id])
}

// Decoration returns the decoration of the given kind applied to id. When a
// decoration is repeated the last one in stream order wins.
func (m *Module) Decoration(id uint32, d Decoration) (DecorationEntry, bool) {
	ds := m.decorations[id]
	for i := len(ds) - 1; i >= 0; i-- {
		if ds[i].Decoration == d {
			return ds[i], true
		}
	}
	return DecorationEntry{}, false
}

// HasDecoration reports whether id carries a decoration of the given kind.
func (m *Module) HasDecoration(id uint32, d Decoration) bool {
	_, ok := m.Decoration(id, d)
	return ok
}

// MemberDecorations returns the member decorations of a struct type.
func (m *Module) MemberDecorations(id uint32) []MemberDecorationEntry {
	return slices.Clone(m.memberDecorations[id])
}

// Name returns the debug name of id, or "" if none was declared.
func (m *Module) Name(id uint32) string {
	return m.names[id]
}

// MemberName returns the debug name of a struct member.
func (m *Module) MemberName(id, member uint32) string {
	return m.memberNames[memberKey{id, member}]
}

// Parse decodes a SPIR-V binary and builds its module tables in one pass
// over the instruction stream.
func Parse(data []byte) (*Module, error) {
	code, h, err := Decode(data)
	if err != nil {
		return nil, err
	}

	b := newBuilder(code, h)
	for inst, err := range NewInstructionReader(code).All() {
		if err != nil {
			return nil, err
		}
		if err := b.add(inst); err != nil {
			return nil, err
		}
	}
	if err := b.finalize(); err != nil {
		return nil, err
	}
	if err := b.m.Validate(); err != nil {
		return nil, err
	}
	return b.m, nil
}

// Patch returns a new module built from a copy of m's code with the given
// word overrides applied. Offsets inside the header are rejected. The copy is
// re-parsed, so patches that break the module fail like any other input.
func (m *Module) Patch(patches map[int]uint32) (*Module, error) {
	code := slices.Clone(m.code)
	for off, w := range patches {
		if off < HeaderWords || off >= len(code) {
			return nil, errors.New(errors.PhaseQuery, errors.KindInvalidInput).
				Word(off).
				Detail("patch offset outside instruction stream of %d words", len(code)).
				Build()
		}
		code[off] = w
	}
	return Parse(words.Encode(code, m.header.ByteOrder))
}
