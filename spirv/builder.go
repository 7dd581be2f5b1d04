package spirv

import (
	"slices"

	"github.com/wippyai/spirv-reflect/errors"
	"github.com/wippyai/spirv-reflect/spirv/internal/words"
)

// builder accumulates module tables while the instruction stream is read.
// It is discarded once the module is finalized.
type builder struct {
	m         *Module
	defs      map[uint32]OpCode
	groups    map[uint32]bool
	groupApps []groupApp
}

type groupApp struct {
	group    uint32
	target   uint32
	member   uint32
	word     int
	isMember bool
}

func newBuilder(code []uint32, h Header) *builder {
	return &builder{
		m: &Module{
			header:            h,
			code:              code,
			types:             make(map[uint32]*Type),
			variables:         make(map[uint32]*Variable),
			constants:         make(map[uint32]*Constant),
			decorations:       make(map[uint32][]DecorationEntry),
			memberDecorations: make(map[uint32][]MemberDecorationEntry),
			names:             make(map[uint32]string),
			memberNames:       make(map[memberKey]string),
		},
		defs:   make(map[uint32]OpCode),
		groups: make(map[uint32]bool),
	}
}

func (b *builder) add(inst Instruction) error {
	if n, ok := minOperands[inst.Opcode]; ok && len(inst.Operands) < n {
		return errors.New(errors.PhaseBuild, errors.KindTruncatedStream).
			Opcode(inst.Opcode.String()).
			Word(inst.Offset).
			Detail("need %d operands, have %d", n, len(inst.Operands)).
			Build()
	}

	switch {
	case inst.Opcode.isType():
		return b.addType(inst)
	case inst.Opcode.isConstant():
		return b.addConstant(inst)
	}

	switch inst.Opcode {
	case OpVariable:
		return b.addVariable(inst)
	case OpDecorate, OpDecorateID, OpDecorateString:
		return b.addDecoration(inst)
	case OpMemberDecorate, OpMemberDecorateString:
		return b.addMemberDecoration(inst)
	case OpDecorationGroup:
		if err := b.define(inst, inst.Operands[0]); err != nil {
			return err
		}
		b.groups[inst.Operands[0]] = true
	case OpGroupDecorate:
		for i, target := range inst.Operands[1:] {
			if err := b.checkID(inst, target); err != nil {
				return err
			}
			b.groupApps = append(b.groupApps, groupApp{
				group:  inst.Operands[0],
				target: target,
				word:   inst.operandWord(1 + i),
			})
		}
	case OpGroupMemberDecorate:
		pairs := inst.Operands[1:]
		if len(pairs)%2 != 0 {
			return errors.New(errors.PhaseBuild, errors.KindTruncatedStream).
				Opcode(inst.Opcode.String()).
				Word(inst.Offset).
				Detail("target/member operands are not paired").
				Build()
		}
		for i := 0; i < len(pairs); i += 2 {
			if err := b.checkID(inst, pairs[i]); err != nil {
				return err
			}
			b.groupApps = append(b.groupApps, groupApp{
				group:    inst.Operands[0],
				target:   pairs[i],
				member:   pairs[i+1],
				word:     inst.operandWord(1 + i),
				isMember: true,
			})
		}
	case OpName:
		return b.addName(inst)
	case OpMemberName:
		return b.addMemberName(inst)
	}
	return nil
}

func (b *builder) checkID(inst Instruction, id uint32) error {
	if id == 0 || id >= b.m.header.Bound {
		return errors.New(errors.PhaseBuild, errors.KindInvalidID).
			ID(id).
			Opcode(inst.Opcode.String()).
			Word(inst.Offset).
			Value(id).
			Detail("id outside [1, %d)", b.m.header.Bound).
			Build()
	}
	return nil
}

func (b *builder) define(inst Instruction, id uint32) error {
	if err := b.checkID(inst, id); err != nil {
		return err
	}
	if prev, ok := b.defs[id]; ok {
		return errors.DuplicateDefinition(id, inst.Opcode.String(), inst.Offset, prev.String())
	}
	b.defs[id] = inst.Opcode
	return nil
}

func (b *builder) addType(inst Instruction) error {
	ops := inst.Operands
	id := ops[0]
	if err := b.define(inst, id); err != nil {
		return err
	}

	t := &Type{ID: id, Opcode: inst.Opcode, Kind: typeKinds[inst.Opcode]}
	switch inst.Opcode {
	case OpTypeInt:
		t.Width = ops[1]
		t.Signed = ops[2] == 1
	case OpTypeFloat:
		t.Width = ops[1]
	case OpTypeVector, OpTypeMatrix:
		t.Elem = ops[1]
		t.Count = ops[2]
	case OpTypeImage:
		t.Elem = ops[1]
		t.Image = ImageTraits{
			Dim:          Dim(ops[2]),
			Depth:        ops[3],
			Arrayed:      ops[4] == 1,
			Multisampled: ops[5] == 1,
			Sampled:      ops[6],
			Format:       ops[7],
		}
		if len(ops) > 8 {
			t.Image.Access = ops[8]
			t.Image.HasAccess = true
		}
	case OpTypeSampledImage, OpTypeRuntimeArray:
		t.Elem = ops[1]
	case OpTypeArray:
		t.Elem = ops[1]
		t.LengthID = ops[2]
	case OpTypeStruct:
		t.Members = slices.Clone(ops[1:])
	case OpTypePointer:
		t.StorageClass = StorageClass(ops[1])
		t.Elem = ops[2]
	case OpTypeFunction:
		t.Elem = ops[1]
		t.Members = slices.Clone(ops[2:])
	}
	b.m.types[id] = t
	return nil
}

func (b *builder) addConstant(inst Instruction) error {
	id := inst.Operands[1]
	if err := b.define(inst, id); err != nil {
		return err
	}
	if inst.Opcode == OpConstantComposite {
		return nil
	}
	b.m.constants[id] = &Constant{
		ID:     id,
		Type:   inst.Operands[0],
		Value:  slices.Clone(inst.Operands[2:]),
		Opcode: inst.Opcode,
	}
	return nil
}

func (b *builder) addVariable(inst Instruction) error {
	ops := inst.Operands
	id := ops[1]
	if err := b.define(inst, id); err != nil {
		return err
	}
	v := &Variable{
		ID:           id,
		Type:         ops[0],
		StorageClass: StorageClass(ops[2]),
		Word:         inst.Offset,
	}
	b.m.variables[id] = v
	return nil
}

func (b *builder) addDecoration(inst Instruction) error {
	target := inst.Operands[0]
	if err := b.checkID(inst, target); err != nil {
		return err
	}
	b.m.decorations[target] = append(b.m.decorations[target], decorationEntry(inst, 1))
	return nil
}

func (b *builder) addMemberDecoration(inst Instruction) error {
	target := inst.Operands[0]
	if err := b.checkID(inst, target); err != nil {
		return err
	}
	b.m.memberDecorations[target] = append(b.m.memberDecorations[target], MemberDecorationEntry{
		DecorationEntry: decorationEntry(inst, 2),
		Member:          inst.Operands[1],
	})
	return nil
}

// decorationEntry reads the decoration operand at index at and the
// literals following it.
func decorationEntry(inst Instruction, at int) DecorationEntry {
	d := DecorationEntry{
		Decoration: Decoration(inst.Operands[at]),
		Operands:   slices.Clone(inst.Operands[at+1:]),
	}
	if len(d.Operands) > 0 {
		d.Word = inst.operandWord(at + 1)
	}
	return d
}

func (b *builder) addName(inst Instruction) error {
	target := inst.Operands[0]
	if err := b.checkID(inst, target); err != nil {
		return err
	}
	name, err := b.literalString(inst, 1)
	if err != nil {
		return err
	}
	b.m.names[target] = name
	return nil
}

func (b *builder) addMemberName(inst Instruction) error {
	target := inst.Operands[0]
	if err := b.checkID(inst, target); err != nil {
		return err
	}
	name, err := b.literalString(inst, 2)
	if err != nil {
		return err
	}
	b.m.memberNames[memberKey{target, inst.Operands[1]}] = name
	return nil
}

func (b *builder) literalString(inst Instruction, at int) (string, error) {
	s, _, err := words.String(inst.Operands[at:])
	if err != nil {
		return "", errors.New(errors.PhaseBuild, errors.KindTruncatedStream).
			Opcode(inst.Opcode.String()).
			Word(inst.Offset).
			Cause(err).
			Build()
	}
	return s, nil
}

// finalize applies legacy decoration groups to their targets.
func (b *builder) finalize() error {
	for _, app := range b.groupApps {
		if !b.groups[app.group] {
			return errors.New(errors.PhaseBuild, errors.KindInvalidID).
				ID(app.group).
				Word(app.word).
				Detail("decoration group is not declared").
				Build()
		}
		for _, d := range b.m.decorations[app.group] {
			d.Group = app.group
			d.Operands = slices.Clone(d.Operands)
			if app.isMember {
				b.m.memberDecorations[app.target] = append(b.m.memberDecorations[app.target],
					MemberDecorationEntry{DecorationEntry: d, Member: app.member})
			} else {
				b.m.decorations[app.target] = append(b.m.decorations[app.target], d)
			}
		}
	}
	b.groupApps = nil
	return nil
}
