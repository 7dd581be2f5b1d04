package spirv

// Instruction is a single decoded SPIR-V instruction. Operands alias the
// module's word buffer and are only valid while that buffer is.
type Instruction struct {
	Operands []uint32
	Offset   int // word index of the instruction's first word
	Opcode   OpCode
}

// WordCount returns the total number of words including the opcode word.
func (i Instruction) WordCount() int {
	return len(i.Operands) + 1
}

// Operand returns the n-th operand, or 0 if the instruction is too short.
func (i Instruction) Operand(n int) uint32 {
	if n < len(i.Operands) {
		return i.Operands[n]
	}
	return 0
}

// ResultID returns the id this instruction defines, if the opcode is one
// the builder understands to define an id.
func (i Instruction) ResultID() (uint32, bool) {
	switch {
	case i.Opcode.isType(), i.Opcode == OpDecorationGroup,
		i.Opcode == OpString, i.Opcode == OpExtInstImport:
		if len(i.Operands) > 0 {
			return i.Operands[0], true
		}
	case i.Opcode.isConstant(), i.Opcode == OpVariable, i.Opcode == OpFunction:
		if len(i.Operands) > 1 {
			return i.Operands[1], true
		}
	}
	return 0, false
}

// operandWord returns the absolute word offset of operand n.
func (i Instruction) operandWord(n int) int {
	return i.Offset + 1 + n
}

func (op OpCode) isType() bool {
	switch op {
	case OpTypeVoid, OpTypeBool, OpTypeInt, OpTypeFloat, OpTypeVector,
		OpTypeMatrix, OpTypeImage, OpTypeSampler, OpTypeSampledImage,
		OpTypeArray, OpTypeRuntimeArray, OpTypeStruct, OpTypeOpaque,
		OpTypePointer, OpTypeFunction, OpTypeRayQueryKHR,
		OpTypeAccelerationStructureKHR:
		return true
	}
	return false
}

func (op OpCode) isConstant() bool {
	switch op {
	case OpConstantTrue, OpConstantFalse, OpConstant, OpConstantComposite,
		OpSpecConstantTrue, OpSpecConstantFalse, OpSpecConstant:
		return true
	}
	return false
}

// minOperands is the fixed operand count each interpreted opcode requires.
var minOperands = map[OpCode]int{
	OpName:                         2,
	OpMemberName:                   3,
	OpTypeVoid:                     1,
	OpTypeBool:                     1,
	OpTypeInt:                      3,
	OpTypeFloat:                    2,
	OpTypeVector:                   3,
	OpTypeMatrix:                   3,
	OpTypeImage:                    8,
	OpTypeSampler:                  1,
	OpTypeSampledImage:             2,
	OpTypeArray:                    3,
	OpTypeRuntimeArray:             2,
	OpTypeStruct:                   1,
	OpTypeOpaque:                   2,
	OpTypePointer:                  3,
	OpTypeFunction:                 2,
	OpTypeRayQueryKHR:              1,
	OpTypeAccelerationStructureKHR: 1,
	OpConstantTrue:                 2,
	OpConstantFalse:                2,
	OpConstant:                     3,
	OpConstantComposite:            2,
	OpSpecConstantTrue:             2,
	OpSpecConstantFalse:            2,
	OpSpecConstant:                 3,
	OpVariable:                     3,
	OpDecorate:                     2,
	OpDecorateID:                   2,
	OpDecorateString:               3,
	OpMemberDecorate:               3,
	OpMemberDecorateString:         4,
	OpDecorationGroup:              1,
	OpGroupDecorate:                1,
	OpGroupMemberDecorate:          1,
}
