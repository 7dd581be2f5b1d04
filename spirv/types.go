package spirv

// TypeKind classifies a type declaration.
type TypeKind uint8

const (
	KindUnknown TypeKind = iota
	KindVoid
	KindBool
	KindInt
	KindFloat
	KindVector
	KindMatrix
	KindImage
	KindSampler
	KindSampledImage
	KindArray
	KindRuntimeArray
	KindStruct
	KindOpaque
	KindPointer
	KindFunction
	KindAccelerationStructure
	KindRayQuery
)

var typeKindNames = [...]string{
	KindUnknown:               "unknown",
	KindVoid:                  "void",
	KindBool:                  "bool",
	KindInt:                   "int",
	KindFloat:                 "float",
	KindVector:                "vector",
	KindMatrix:                "matrix",
	KindImage:                 "image",
	KindSampler:               "sampler",
	KindSampledImage:          "sampled_image",
	KindArray:                 "array",
	KindRuntimeArray:          "runtime_array",
	KindStruct:                "struct",
	KindOpaque:                "opaque",
	KindPointer:               "pointer",
	KindFunction:              "function",
	KindAccelerationStructure: "acceleration_structure",
	KindRayQuery:              "ray_query",
}

func (k TypeKind) String() string {
	if int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return typeKindNames[KindUnknown]
}

var typeKinds = map[OpCode]TypeKind{
	OpTypeVoid:                     KindVoid,
	OpTypeBool:                     KindBool,
	OpTypeInt:                      KindInt,
	OpTypeFloat:                    KindFloat,
	OpTypeVector:                   KindVector,
	OpTypeMatrix:                   KindMatrix,
	OpTypeImage:                    KindImage,
	OpTypeSampler:                  KindSampler,
	OpTypeSampledImage:             KindSampledImage,
	OpTypeArray:                    KindArray,
	OpTypeRuntimeArray:             KindRuntimeArray,
	OpTypeStruct:                   KindStruct,
	OpTypeOpaque:                   KindOpaque,
	OpTypePointer:                  KindPointer,
	OpTypeFunction:                 KindFunction,
	OpTypeAccelerationStructureKHR: KindAccelerationStructure,
	OpTypeRayQueryKHR:              KindRayQuery,
}

// Type is a type declaration. Component types are referenced by id and
// resolved through Module.Type, so recursive declarations need no special
// handling.
type Type struct {
	// Members holds struct member type ids, or function parameter type ids.
	Members []uint32
	Image   ImageTraits

	ID uint32

	// Elem is the vector component, matrix column, array element, pointer
	// pointee, sampled image's image type, image sampled type, or function
	// return type, depending on Kind.
	Elem uint32

	// Count is the vector component or matrix column count.
	Count uint32

	// Width is the bit width of int and float types.
	Width uint32

	// LengthID is the id of the constant holding an array's length.
	LengthID uint32

	StorageClass StorageClass
	Opcode       OpCode
	Kind         TypeKind
	Signed       bool
}

// ImageTraits are the operands of OpTypeImage.
type ImageTraits struct {
	Dim          Dim
	Depth        uint32
	Sampled      uint32
	Format       uint32
	Access       uint32
	Arrayed      bool
	Multisampled bool
	HasAccess    bool
}

// Variable is an OpVariable declaration.
type Variable struct {
	ID           uint32
	Type         uint32 // pointer type id
	StorageClass StorageClass
	Word         int
}

// Constant is a scalar constant or specialization constant.
type Constant struct {
	Value  []uint32
	ID     uint32
	Type   uint32
	Opcode OpCode
}

// Spec reports whether the constant is a specialization constant. The
// recorded value is its default.
func (c Constant) Spec() bool {
	switch c.Opcode {
	case OpSpecConstant, OpSpecConstantTrue, OpSpecConstantFalse:
		return true
	}
	return false
}

// Uint returns the constant's value as an unsigned integer. Composite
// constants and values wider than 64 bits report false.
func (c Constant) Uint() (uint64, bool) {
	switch c.Opcode {
	case OpConstantTrue, OpSpecConstantTrue:
		return 1, true
	case OpConstantFalse, OpSpecConstantFalse:
		return 0, true
	case OpConstant, OpSpecConstant:
		switch len(c.Value) {
		case 1:
			return uint64(c.Value[0]), true
		case 2:
			return uint64(c.Value[0]) | uint64(c.Value[1])<<32, true
		}
	}
	return 0, false
}

// DecorationEntry is one decoration applied to an id.
type DecorationEntry struct {
	Operands   []uint32
	Word       int    // word offset of the first operand, 0 if none
	Group      uint32 // decoration group the entry was applied through
	Decoration Decoration
}

// Literal returns the first literal operand.
func (d DecorationEntry) Literal() (uint32, bool) {
	if len(d.Operands) == 0 {
		return 0, false
	}
	return d.Operands[0], true
}

// MemberDecorationEntry is a decoration applied to a struct member.
type MemberDecorationEntry struct {
	DecorationEntry
	Member uint32
}
