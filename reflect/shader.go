package reflect

import (
	"fmt"
	"sync"

	"github.com/wippyai/spirv-reflect/errors"
	"github.com/wippyai/spirv-reflect/spirv"
)

// ShaderModule is a read-only reflection view over a parsed module.
// Descriptor sets are resolved on the first query and memoized; a
// ShaderModule is safe for concurrent use.
//
// A nil or zero ShaderModule stands for a module that was never built:
// every query returns an empty result and a nil error.
type ShaderModule struct {
	module *spirv.Module
	once   sync.Once
	sets   []DescriptorSet
	err    error
}

// Create parses SPIR-V code and returns its reflection view.
func Create(code []byte) (*ShaderModule, error) {
	m, err := spirv.Parse(code)
	if err != nil {
		return nil, err
	}
	return NewShaderModule(m), nil
}

// NewShaderModule wraps an already parsed module.
func NewShaderModule(m *spirv.Module) *ShaderModule {
	return &ShaderModule{module: m}
}

// Reflect parses code and resolves its descriptor sets in one step. The
// parsed module is not retained.
func Reflect(code []byte) ([]DescriptorSet, error) {
	m, err := spirv.Parse(code)
	if err != nil {
		return nil, err
	}
	sets, err := Resolve(m)
	if err != nil {
		return nil, err
	}
	return cloneSets(sets), nil
}

func (s *ShaderModule) resolved() ([]DescriptorSet, error) {
	if s == nil || s.module == nil {
		return nil, nil
	}
	s.once.Do(func() {
		s.sets, s.err = Resolve(s.module)
	})
	return s.sets, s.err
}

// Module returns the parsed module, or nil for an empty ShaderModule.
func (s *ShaderModule) Module() *spirv.Module {
	if s == nil {
		return nil
	}
	return s.module
}

// Header returns the module header.
func (s *ShaderModule) Header() spirv.Header {
	if s == nil || s.module == nil {
		return spirv.Header{}
	}
	return s.module.Header()
}

// CodeSize returns the size of the module code in bytes.
func (s *ShaderModule) CodeSize() int {
	if s == nil || s.module == nil {
		return 0
	}
	return s.module.CodeSize()
}

// Code returns a copy of the module words.
func (s *ShaderModule) Code() []uint32 {
	if s == nil || s.module == nil {
		return nil
	}
	return append([]uint32(nil), s.module.Code()...)
}

// DescriptorSetCount returns the number of descriptor sets the module uses.
func (s *ShaderModule) DescriptorSetCount() (int, error) {
	sets, err := s.resolved()
	if err != nil {
		return 0, err
	}
	return len(sets), nil
}

// DescriptorSets returns the descriptor sets ordered by set index.
func (s *ShaderModule) DescriptorSets() ([]DescriptorSet, error) {
	sets, err := s.resolved()
	if err != nil {
		return nil, err
	}
	return cloneSets(sets), nil
}

// DescriptorSet returns the set with the given index. A set the module does
// not use is reported with ok false and a nil error.
func (s *ShaderModule) DescriptorSet(set uint32) (DescriptorSet, bool, error) {
	sets, err := s.resolved()
	if err != nil {
		return DescriptorSet{}, false, err
	}
	for _, ds := range sets {
		if ds.Set == set {
			return ds.clone(), true, nil
		}
	}
	return DescriptorSet{Set: set}, false, nil
}

// DescriptorBinding returns the binding at (set, binding).
func (s *ShaderModule) DescriptorBinding(set, binding uint32) (DescriptorBinding, bool, error) {
	ds, ok, err := s.DescriptorSet(set)
	if err != nil || !ok {
		return DescriptorBinding{}, false, err
	}
	b, ok := ds.Binding(binding)
	return b, ok, nil
}

// DescriptorBindings returns every binding ordered by set, then binding.
func (s *ShaderModule) DescriptorBindings() ([]DescriptorBinding, error) {
	sets, err := s.resolved()
	if err != nil {
		return nil, err
	}
	out := []DescriptorBinding{}
	for _, ds := range sets {
		for _, b := range ds.Bindings {
			out = append(out, b.clone())
		}
	}
	return out, nil
}

// Rebind returns a new ShaderModule whose variable id is moved to the given
// set and binding. The receiver is left untouched. The new slot must not
// collide with another binding.
func (s *ShaderModule) Rebind(id, set, binding uint32) (*ShaderModule, error) {
	if s == nil || s.module == nil {
		return nil, errors.InvalidInput(errors.PhaseQuery, "rebind on an empty shader module")
	}
	bindings, err := s.DescriptorBindings()
	if err != nil {
		return nil, err
	}

	var target *DescriptorBinding
	for i := range bindings {
		if bindings[i].SpirvID == id {
			target = &bindings[i]
			break
		}
	}
	if target == nil {
		return nil, errors.NotFound(errors.PhaseQuery, "descriptor binding", fmt.Sprintf("%%%d", id))
	}
	for _, d := range []spirv.Decoration{spirv.DecorationDescriptorSet, spirv.DecorationBinding} {
		if e, _ := s.module.Decoration(id, d); e.Group != 0 {
			return nil, errors.New(errors.PhaseQuery, errors.KindInvalidInput).
				ID(id).
				Detail("%s of %%%d is applied through decoration group %%%d", d, id, e.Group).
				Build()
		}
	}

	m, err := s.module.Patch(map[int]uint32{
		target.WordOffset.Set:     set,
		target.WordOffset.Binding: binding,
	})
	if err != nil {
		return nil, err
	}
	rebound := NewShaderModule(m)
	if _, err := rebound.resolved(); err != nil {
		return nil, err
	}
	return rebound, nil
}
