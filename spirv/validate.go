package spirv

import (
	"github.com/wippyai/spirv-reflect/errors"
)

// Validate checks the cross-references reflection depends on: every
// variable must be typed by a declared pointer type. Parse calls Validate
// before returning a module.
func (m *Module) Validate() error {
	for _, v := range m.Variables() {
		if err := m.validateVariable(v); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) validateVariable(v Variable) error {
	t, ok := m.types[v.Type]
	if !ok {
		return errors.New(errors.PhaseBuild, errors.KindInvalidID).
			ID(v.Type).
			Opcode(OpVariable.String()).
			Word(v.Word).
			Value(v.Type).
			Detail("type of variable %%%d is not declared", v.ID).
			Build()
	}
	if t.Kind != KindPointer {
		return errors.New(errors.PhaseBuild, errors.KindInvalidID).
			ID(v.Type).
			Opcode(OpVariable.String()).
			Word(v.Word).
			Detail("type of variable %%%d is %s, not a pointer", v.ID, t.Kind).
			Build()
	}
	return nil
}
