package spirv

import "strconv"

// SPIR-V binary header constants.
const (
	// Magic is the SPIR-V magic number in host order.
	Magic uint32 = 0x07230203

	// HeaderWords is the number of words in the module header.
	HeaderWords = 5

	// MaxMinorVersion is the newest SPIR-V 1.x minor version accepted.
	MaxMinorVersion = 6
)

// Instruction word layout: the first word of every instruction holds the
// word count in the high half and the opcode in the low half.
const (
	wordCountShift = 16
	opcodeMask     = 0xFFFF
)

// OpCode represents a SPIR-V opcode.
type OpCode uint16

// Opcodes the module builder interprets. All others are skipped.
const (
	OpNop                          OpCode = 0
	OpName                         OpCode = 5
	OpMemberName                   OpCode = 6
	OpString                       OpCode = 7
	OpExtInstImport                OpCode = 11
	OpMemoryModel                  OpCode = 14
	OpEntryPoint                   OpCode = 15
	OpExecutionMode                OpCode = 16
	OpCapability                   OpCode = 17
	OpTypeVoid                     OpCode = 19
	OpTypeBool                     OpCode = 20
	OpTypeInt                      OpCode = 21
	OpTypeFloat                    OpCode = 22
	OpTypeVector                   OpCode = 23
	OpTypeMatrix                   OpCode = 24
	OpTypeImage                    OpCode = 25
	OpTypeSampler                  OpCode = 26
	OpTypeSampledImage             OpCode = 27
	OpTypeArray                    OpCode = 28
	OpTypeRuntimeArray             OpCode = 29
	OpTypeStruct                   OpCode = 30
	OpTypeOpaque                   OpCode = 31
	OpTypePointer                  OpCode = 32
	OpTypeFunction                 OpCode = 33
	OpTypeForwardPointer           OpCode = 39
	OpConstantTrue                 OpCode = 41
	OpConstantFalse                OpCode = 42
	OpConstant                     OpCode = 43
	OpConstantComposite            OpCode = 44
	OpSpecConstantTrue             OpCode = 48
	OpSpecConstantFalse            OpCode = 49
	OpSpecConstant                 OpCode = 50
	OpFunction                     OpCode = 54
	OpFunctionEnd                  OpCode = 56
	OpVariable                     OpCode = 59
	OpDecorate                     OpCode = 71
	OpMemberDecorate               OpCode = 72
	OpDecorationGroup              OpCode = 73
	OpGroupDecorate                OpCode = 74
	OpGroupMemberDecorate          OpCode = 75
	OpDecorateID                   OpCode = 332
	OpTypeRayQueryKHR              OpCode = 4472
	OpTypeAccelerationStructureKHR OpCode = 5341
	OpDecorateString               OpCode = 5632
	OpMemberDecorateString         OpCode = 5633
)

var opcodeNames = map[OpCode]string{
	OpNop: "OpNop", OpName: "OpName", OpMemberName: "OpMemberName",
	OpString: "OpString", OpExtInstImport: "OpExtInstImport",
	OpMemoryModel: "OpMemoryModel", OpEntryPoint: "OpEntryPoint",
	OpExecutionMode: "OpExecutionMode", OpCapability: "OpCapability",
	OpTypeVoid: "OpTypeVoid", OpTypeBool: "OpTypeBool", OpTypeInt: "OpTypeInt",
	OpTypeFloat: "OpTypeFloat", OpTypeVector: "OpTypeVector",
	OpTypeMatrix: "OpTypeMatrix", OpTypeImage: "OpTypeImage",
	OpTypeSampler: "OpTypeSampler", OpTypeSampledImage: "OpTypeSampledImage",
	OpTypeArray: "OpTypeArray", OpTypeRuntimeArray: "OpTypeRuntimeArray",
	OpTypeStruct: "OpTypeStruct", OpTypeOpaque: "OpTypeOpaque",
	OpTypePointer: "OpTypePointer", OpTypeFunction: "OpTypeFunction",
	OpTypeForwardPointer: "OpTypeForwardPointer",
	OpConstantTrue:       "OpConstantTrue", OpConstantFalse: "OpConstantFalse",
	OpConstant: "OpConstant", OpConstantComposite: "OpConstantComposite",
	OpSpecConstantTrue: "OpSpecConstantTrue", OpSpecConstantFalse: "OpSpecConstantFalse",
	OpSpecConstant: "OpSpecConstant", OpFunction: "OpFunction",
	OpFunctionEnd: "OpFunctionEnd", OpVariable: "OpVariable",
	OpDecorate: "OpDecorate", OpMemberDecorate: "OpMemberDecorate",
	OpDecorationGroup: "OpDecorationGroup", OpGroupDecorate: "OpGroupDecorate",
	OpGroupMemberDecorate: "OpGroupMemberDecorate", OpDecorateID: "OpDecorateId",
	OpTypeRayQueryKHR:              "OpTypeRayQueryKHR",
	OpTypeAccelerationStructureKHR: "OpTypeAccelerationStructureKHR",
	OpDecorateString:               "OpDecorateString",
	OpMemberDecorateString:         "OpMemberDecorateString",
}

// String returns the SPIR-V name of the opcode, or "Op<n>" if unknown.
func (op OpCode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return "Op" + strconv.Itoa(int(op))
}

// StorageClass represents a SPIR-V storage class.
type StorageClass uint32

const (
	StorageClassUniformConstant       StorageClass = 0
	StorageClassInput                 StorageClass = 1
	StorageClassUniform               StorageClass = 2
	StorageClassOutput                StorageClass = 3
	StorageClassWorkgroup             StorageClass = 4
	StorageClassCrossWorkgroup        StorageClass = 5
	StorageClassPrivate               StorageClass = 6
	StorageClassFunction              StorageClass = 7
	StorageClassGeneric               StorageClass = 8
	StorageClassPushConstant          StorageClass = 9
	StorageClassAtomicCounter         StorageClass = 10
	StorageClassImage                 StorageClass = 11
	StorageClassStorageBuffer         StorageClass = 12
	StorageClassPhysicalStorageBuffer StorageClass = 5349
)

var storageClassNames = map[StorageClass]string{
	0: "UniformConstant", 1: "Input", 2: "Uniform", 3: "Output",
	4: "Workgroup", 5: "CrossWorkgroup", 6: "Private", 7: "Function",
	8: "Generic", 9: "PushConstant", 10: "AtomicCounter", 11: "Image",
	12: "StorageBuffer", 5349: "PhysicalStorageBuffer",
}

func (sc StorageClass) String() string {
	if s, ok := storageClassNames[sc]; ok {
		return s
	}
	return "StorageClass(" + strconv.Itoa(int(sc)) + ")"
}

// Decoration represents a SPIR-V decoration.
type Decoration uint32

const (
	DecorationRelaxedPrecision     Decoration = 0
	DecorationSpecID               Decoration = 1
	DecorationBlock                Decoration = 2
	DecorationBufferBlock          Decoration = 3
	DecorationRowMajor             Decoration = 4
	DecorationColMajor             Decoration = 5
	DecorationArrayStride          Decoration = 6
	DecorationMatrixStride         Decoration = 7
	DecorationBuiltIn              Decoration = 11
	DecorationNonWritable          Decoration = 24
	DecorationNonReadable          Decoration = 25
	DecorationLocation             Decoration = 30
	DecorationBinding              Decoration = 33
	DecorationDescriptorSet        Decoration = 34
	DecorationOffset               Decoration = 35
	DecorationInputAttachmentIndex Decoration = 43
	DecorationNonUniform           Decoration = 5300
	DecorationCounterBuffer        Decoration = 5634
	DecorationUserSemantic         Decoration = 5635
)

var decorationNames = map[Decoration]string{
	0: "RelaxedPrecision", 1: "SpecId", 2: "Block", 3: "BufferBlock",
	4: "RowMajor", 5: "ColMajor", 6: "ArrayStride", 7: "MatrixStride",
	11: "BuiltIn", 24: "NonWritable", 25: "NonReadable", 30: "Location",
	33: "Binding", 34: "DescriptorSet", 35: "Offset",
	43: "InputAttachmentIndex", 5300: "NonUniform",
	5634: "CounterBuffer", 5635: "UserSemantic",
}

func (d Decoration) String() string {
	if s, ok := decorationNames[d]; ok {
		return s
	}
	return "Decoration(" + strconv.Itoa(int(d)) + ")"
}

// Dim is the dimensionality of an image type.
type Dim uint32

const (
	Dim1D          Dim = 0
	Dim2D          Dim = 1
	Dim3D          Dim = 2
	DimCube        Dim = 3
	DimRect        Dim = 4
	DimBuffer      Dim = 5
	DimSubpassData Dim = 6
)

var dimNames = map[Dim]string{
	0: "1D", 1: "2D", 2: "3D", 3: "Cube", 4: "Rect", 5: "Buffer", 6: "SubpassData",
}

func (d Dim) String() string {
	if s, ok := dimNames[d]; ok {
		return s
	}
	return "Dim(" + strconv.Itoa(int(d)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (d Dim) MarshalText() ([]byte, error) {
	if s, ok := dimNames[d]; ok {
		return []byte(s), nil
	}
	return []byte(strconv.Itoa(int(d))), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Dim) UnmarshalText(text []byte) error {
	for k, v := range dimNames {
		if v == string(text) {
			*d = k
			return nil
		}
	}
	n, err := strconv.ParseUint(string(text), 10, 32)
	if err != nil {
		return err
	}
	*d = Dim(n)
	return nil
}

// Image "Sampled" operand values.
const (
	ImageSampledUnknown uint32 = 0 // known only at run time
	ImageSampled        uint32 = 1 // used with a sampler
	ImageStorage        uint32 = 2 // used without a sampler (read/write)
)
