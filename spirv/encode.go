package spirv

import (
	"encoding/binary"

	"github.com/wippyai/spirv-reflect/spirv/internal/words"
)

// Header version words for common SPIR-V releases.
const (
	Version1_0 uint32 = 0x00010000
	Version1_3 uint32 = 0x00010300
	Version1_5 uint32 = 0x00010500
	Version1_6 uint32 = 0x00010600
)

// Assembler emits SPIR-V binaries instruction by instruction. Instructions
// are written in call order, so callers control declaration order. It is
// used to produce reflection fixtures.
type Assembler struct {
	body      *words.Writer
	version   uint32
	generator uint32
	bound     uint32 // explicit bound; 0 means next id
	nextID    uint32
}

// NewAssembler creates an Assembler for a SPIR-V 1.3 module.
func NewAssembler() *Assembler {
	return &Assembler{
		body:    words.NewWriter(),
		version: Version1_3,
		nextID:  1,
	}
}

// SetVersion sets the header version word.
func (a *Assembler) SetVersion(v uint32) *Assembler {
	a.version = v
	return a
}

// SetGenerator sets the header generator word.
func (a *Assembler) SetGenerator(g uint32) *Assembler {
	a.generator = g
	return a
}

// SetBound overrides the id bound written to the header.
func (a *Assembler) SetBound(bound uint32) *Assembler {
	a.bound = bound
	return a
}

// AllocID allocates a new id.
func (a *Assembler) AllocID() uint32 {
	id := a.nextID
	a.nextID++
	return id
}

// Emit writes an instruction with the given operands.
func (a *Assembler) Emit(op OpCode, operands ...uint32) {
	a.body.Word(uint32(len(operands)+1)<<wordCountShift | uint32(op))
	a.body.WriteWords(operands)
}

// EmitRaw writes words verbatim, for malformed-input fixtures.
func (a *Assembler) EmitRaw(ws ...uint32) {
	a.body.WriteWords(ws)
}

// Name emits OpName.
func (a *Assembler) Name(id uint32, name string) {
	a.Emit(OpName, append([]uint32{id}, words.EncodeString(name)...)...)
}

// MemberName emits OpMemberName.
func (a *Assembler) MemberName(id, member uint32, name string) {
	a.Emit(OpMemberName, append([]uint32{id, member}, words.EncodeString(name)...)...)
}

// Decorate emits OpDecorate.
func (a *Assembler) Decorate(id uint32, d Decoration, literals ...uint32) {
	a.Emit(OpDecorate, append([]uint32{id, uint32(d)}, literals...)...)
}

// MemberDecorate emits OpMemberDecorate.
func (a *Assembler) MemberDecorate(id, member uint32, d Decoration, literals ...uint32) {
	a.Emit(OpMemberDecorate, append([]uint32{id, member, uint32(d)}, literals...)...)
}

// TypeVoid emits OpTypeVoid.
func (a *Assembler) TypeVoid() uint32 {
	id := a.AllocID()
	a.Emit(OpTypeVoid, id)
	return id
}

// TypeInt emits OpTypeInt.
func (a *Assembler) TypeInt(width uint32, signed bool) uint32 {
	id := a.AllocID()
	var s uint32
	if signed {
		s = 1
	}
	a.Emit(OpTypeInt, id, width, s)
	return id
}

// TypeFloat emits OpTypeFloat.
func (a *Assembler) TypeFloat(width uint32) uint32 {
	id := a.AllocID()
	a.Emit(OpTypeFloat, id, width)
	return id
}

// TypeVector emits OpTypeVector.
func (a *Assembler) TypeVector(component, count uint32) uint32 {
	id := a.AllocID()
	a.Emit(OpTypeVector, id, component, count)
	return id
}

// TypeImage emits OpTypeImage with an Unknown image format.
func (a *Assembler) TypeImage(sampledType uint32, dim Dim, depth uint32, arrayed, ms bool, sampled uint32) uint32 {
	id := a.AllocID()
	a.Emit(OpTypeImage, id, sampledType, uint32(dim), depth, boolWord(arrayed), boolWord(ms), sampled, 0)
	return id
}

// TypeSampler emits OpTypeSampler.
func (a *Assembler) TypeSampler() uint32 {
	id := a.AllocID()
	a.Emit(OpTypeSampler, id)
	return id
}

// TypeSampledImage emits OpTypeSampledImage.
func (a *Assembler) TypeSampledImage(image uint32) uint32 {
	id := a.AllocID()
	a.Emit(OpTypeSampledImage, id, image)
	return id
}

// TypeArray emits OpTypeArray with a length constant id.
func (a *Assembler) TypeArray(elem, lengthID uint32) uint32 {
	id := a.AllocID()
	a.Emit(OpTypeArray, id, elem, lengthID)
	return id
}

// TypeRuntimeArray emits OpTypeRuntimeArray.
func (a *Assembler) TypeRuntimeArray(elem uint32) uint32 {
	id := a.AllocID()
	a.Emit(OpTypeRuntimeArray, id, elem)
	return id
}

// TypeStruct emits OpTypeStruct.
func (a *Assembler) TypeStruct(members ...uint32) uint32 {
	id := a.AllocID()
	a.Emit(OpTypeStruct, append([]uint32{id}, members...)...)
	return id
}

// TypePointer emits OpTypePointer.
func (a *Assembler) TypePointer(sc StorageClass, pointee uint32) uint32 {
	id := a.AllocID()
	a.Emit(OpTypePointer, id, uint32(sc), pointee)
	return id
}

// TypeAccelerationStructure emits OpTypeAccelerationStructureKHR.
func (a *Assembler) TypeAccelerationStructure() uint32 {
	id := a.AllocID()
	a.Emit(OpTypeAccelerationStructureKHR, id)
	return id
}

// Constant emits a 32-bit OpConstant.
func (a *Assembler) Constant(typeID, value uint32) uint32 {
	id := a.AllocID()
	a.Emit(OpConstant, typeID, id, value)
	return id
}

// SpecConstant emits a 32-bit OpSpecConstant with the given default.
func (a *Assembler) SpecConstant(typeID, value uint32) uint32 {
	id := a.AllocID()
	a.Emit(OpSpecConstant, typeID, id, value)
	return id
}

// Variable emits a module-scope OpVariable.
func (a *Assembler) Variable(pointerType uint32, sc StorageClass) uint32 {
	id := a.AllocID()
	a.Emit(OpVariable, pointerType, id, uint32(sc))
	return id
}

// Words returns the assembled module words including the header.
func (a *Assembler) Words() []uint32 {
	bound := a.bound
	if bound == 0 {
		bound = a.nextID
	}
	w := words.NewWriter()
	w.WriteWords([]uint32{Magic, a.version, a.generator, bound, 0})
	w.WriteWords(a.body.Words())
	return w.Words()
}

// Bytes returns the assembled module in little-endian byte order.
func (a *Assembler) Bytes() []byte {
	return a.BytesOrder(binary.LittleEndian)
}

// BytesOrder returns the assembled module in the given byte order.
func (a *Assembler) BytesOrder(order binary.ByteOrder) []byte {
	return words.Encode(a.Words(), order)
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
