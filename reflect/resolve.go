package reflect

import (
	"cmp"
	"fmt"
	"math"
	"math/bits"
	"slices"

	"github.com/wippyai/spirv-reflect/errors"
	"github.com/wippyai/spirv-reflect/spirv"
)

// Resolve classifies every descriptor-backed variable of m and groups the
// results into descriptor sets. Sets are ordered by set index and bindings by
// binding index. A module without resource variables resolves to no sets.
//
// Resolution fails as a whole: a variable without DescriptorSet and Binding
// decorations, a type chain that is not a descriptor, or two variables in
// the same slot abort it without a partial result.
func Resolve(m *spirv.Module) ([]DescriptorSet, error) {
	if m == nil {
		return nil, nil
	}

	r := resolver{m: m}
	var bindings []DescriptorBinding
	slots := make(map[[2]uint32]uint32)
	for _, v := range m.Variables() {
		if !isResourceClass(v.StorageClass) {
			continue
		}
		b, err := r.binding(v)
		if err != nil {
			return nil, err
		}
		slot := [2]uint32{b.Set, b.Binding}
		if prev, ok := slots[slot]; ok {
			return nil, errors.DuplicateBindingSlot(b.SpirvID, prev, b.Set, b.Binding)
		}
		slots[slot] = b.SpirvID
		bindings = append(bindings, b)
	}
	return groupSets(bindings), nil
}

// isResourceClass reports whether variables of sc are bound through
// descriptor sets. Push constants are deliberately absent.
func isResourceClass(sc spirv.StorageClass) bool {
	switch sc {
	case spirv.StorageClassUniformConstant, spirv.StorageClassUniform,
		spirv.StorageClassStorageBuffer:
		return true
	}
	return false
}

type resolver struct {
	m *spirv.Module
}

func (r resolver) binding(v spirv.Variable) (DescriptorBinding, error) {
	set, ok := r.literal(v.ID, spirv.DecorationDescriptorSet)
	if !ok {
		return DescriptorBinding{}, errors.MissingBindingDecoration(v.ID, spirv.DecorationDescriptorSet.String())
	}
	binding, ok := r.literal(v.ID, spirv.DecorationBinding)
	if !ok {
		return DescriptorBinding{}, errors.MissingBindingDecoration(v.ID, spirv.DecorationBinding.String())
	}

	ptr, _ := r.m.Type(v.Type)
	base, dims, err := r.unwrapArrays(v.ID, ptr.Elem)
	if err != nil {
		return DescriptorBinding{}, err
	}
	n, ok := count(dims)
	if !ok {
		return DescriptorBinding{}, errors.UnresolvableResourceType(v.ID,
			fmt.Sprintf("array dimensions %v exceed %d elements", dims, uint32(math.MaxUint32)))
	}

	b := DescriptorBinding{
		SpirvID:  v.ID,
		Name:     r.m.Name(v.ID),
		TypeName: r.m.Name(base.ID),
		Set:      set.Operands[0],
		Binding:  binding.Operands[0],
		Array:    ArrayTraits{Dims: dims},
		Count:    n,
		WordOffset: WordOffset{
			Set:     set.Word,
			Binding: binding.Word,
		},
	}
	if err := r.classify(&b, v, base); err != nil {
		return DescriptorBinding{}, err
	}
	b.ResourceType = resourceTypeOf(b.DescriptorType)

	if counter, ok := r.literal(v.ID, spirv.DecorationCounterBuffer); ok {
		b.UAVCounterID = counter.Operands[0]
	}
	return b, nil
}

// literal returns a decoration that carries at least one literal operand.
func (r resolver) literal(id uint32, d spirv.Decoration) (spirv.DecorationEntry, bool) {
	e, ok := r.m.Decoration(id, d)
	if !ok || len(e.Operands) == 0 {
		return spirv.DecorationEntry{}, false
	}
	return e, true
}

// unwrapArrays follows array and runtime-array types from id down to the
// element type, collecting dimensions outermost first.
func (r resolver) unwrapArrays(varID, id uint32) (spirv.Type, []uint32, error) {
	var dims []uint32
	seen := make(map[uint32]bool)
	for {
		t, ok := r.m.Type(id)
		if !ok {
			return spirv.Type{}, nil, errors.InvalidID(errors.PhaseResolve, id,
				fmt.Sprintf("type of variable %%%d is not declared", varID))
		}
		if seen[id] {
			return spirv.Type{}, nil, errors.UnresolvableResourceType(varID,
				fmt.Sprintf("array type %%%d contains itself", id))
		}
		seen[id] = true

		switch t.Kind {
		case spirv.KindArray:
			n, err := r.arrayLength(varID, t)
			if err != nil {
				return spirv.Type{}, nil, err
			}
			dims = append(dims, n)
		case spirv.KindRuntimeArray:
			dims = append(dims, CountUnbounded)
		default:
			return t, dims, nil
		}
		id = t.Elem
	}
}

// arrayLength reads an array's length constant. Specialization constants
// contribute their default value.
func (r resolver) arrayLength(varID uint32, t spirv.Type) (uint32, error) {
	c, ok := r.m.Constant(t.LengthID)
	if !ok {
		return 0, errors.InvalidID(errors.PhaseResolve, t.LengthID,
			fmt.Sprintf("length of array %%%d used by variable %%%d is not a scalar constant", t.ID, varID))
	}
	n, ok := c.Uint()
	if !ok || n == 0 || n > math.MaxUint32 || r.negative(c) {
		return 0, errors.New(errors.PhaseResolve, errors.KindInvalidID).
			ID(t.LengthID).
			Value(c.Value).
			Detail("length of array %%%d is not a valid element count", t.ID).
			Build()
	}
	return uint32(n), nil
}

// negative reports whether c is a signed integer constant below zero.
func (r resolver) negative(c spirv.Constant) bool {
	t, ok := r.m.Type(c.Type)
	if !ok || t.Kind != spirv.KindInt || !t.Signed || len(c.Value) == 0 {
		return false
	}
	return c.Value[len(c.Value)-1]&(1<<31) != 0
}

// count multiplies the array dimensions. It reports false when the product
// does not fit in 32 bits.
func count(dims []uint32) (uint32, bool) {
	if slices.Contains(dims, CountUnbounded) {
		return CountUnbounded, true
	}
	n := uint32(1)
	for _, d := range dims {
		hi, lo := bits.Mul32(n, d)
		if hi != 0 {
			return 0, false
		}
		n = lo
	}
	return n, true
}

func (r resolver) classify(b *DescriptorBinding, v spirv.Variable, base spirv.Type) error {
	switch base.Kind {
	case spirv.KindSampler:
		b.DescriptorType = DescriptorTypeSampler

	case spirv.KindSampledImage:
		img, ok := r.m.Type(base.Elem)
		if !ok || img.Kind != spirv.KindImage {
			return errors.UnresolvableResourceType(v.ID,
				fmt.Sprintf("sampled image %%%d does not wrap an image type", base.ID))
		}
		b.Image = imageTraits(img.Image)
		b.DescriptorType = DescriptorTypeCombinedImageSampler
		if img.Image.Dim == spirv.DimBuffer {
			b.DescriptorType = DescriptorTypeUniformTexelBuffer
		}

	case spirv.KindImage:
		dt, ok := imageDescriptorType(base.Image)
		if !ok {
			return errors.UnresolvableResourceType(v.ID,
				fmt.Sprintf("image %%%d has sampled operand %d", base.ID, base.Image.Sampled))
		}
		b.Image = imageTraits(base.Image)
		b.DescriptorType = dt

	case spirv.KindStruct:
		switch {
		case v.StorageClass == spirv.StorageClassStorageBuffer:
			b.DescriptorType = DescriptorTypeStorageBuffer
		case v.StorageClass == spirv.StorageClassUniform && r.m.HasDecoration(base.ID, spirv.DecorationBufferBlock):
			b.DescriptorType = DescriptorTypeStorageBuffer
		case v.StorageClass == spirv.StorageClassUniform:
			b.DescriptorType = DescriptorTypeUniformBuffer
		default:
			return errors.UnresolvableResourceType(v.ID,
				fmt.Sprintf("struct %%%d in storage class %s", base.ID, v.StorageClass))
		}

	case spirv.KindAccelerationStructure:
		b.DescriptorType = DescriptorTypeAccelerationStructure

	default:
		return errors.UnresolvableResourceType(v.ID,
			fmt.Sprintf("%s type %%%d in storage class %s", base.Kind, base.ID, v.StorageClass))
	}

	if idx, ok := r.literal(v.ID, spirv.DecorationInputAttachmentIndex); ok && b.DescriptorType.IsImage() {
		b.DescriptorType = DescriptorTypeInputAttachment
		b.InputAttachmentIndex = idx.Operands[0]
	}
	return nil
}

func imageDescriptorType(img spirv.ImageTraits) (DescriptorType, bool) {
	switch {
	case img.Dim == spirv.DimSubpassData:
		return DescriptorTypeInputAttachment, true
	case img.Dim == spirv.DimBuffer && img.Sampled == spirv.ImageSampled:
		return DescriptorTypeUniformTexelBuffer, true
	case img.Dim == spirv.DimBuffer && img.Sampled == spirv.ImageStorage:
		return DescriptorTypeStorageTexelBuffer, true
	case img.Sampled == spirv.ImageSampled:
		return DescriptorTypeSampledImage, true
	case img.Sampled == spirv.ImageStorage:
		return DescriptorTypeStorageImage, true
	}
	return 0, false
}

func imageTraits(img spirv.ImageTraits) *ImageTraits {
	return &ImageTraits{
		Dim:          img.Dim,
		Depth:        img.Depth,
		Sampled:      img.Sampled,
		Format:       img.Format,
		Arrayed:      img.Arrayed,
		Multisampled: img.Multisampled,
	}
}

func groupSets(bindings []DescriptorBinding) []DescriptorSet {
	slices.SortFunc(bindings, func(a, b DescriptorBinding) int {
		return cmp.Or(cmp.Compare(a.Set, b.Set), cmp.Compare(a.Binding, b.Binding))
	})

	var sets []DescriptorSet
	for _, b := range bindings {
		if n := len(sets); n == 0 || sets[n-1].Set != b.Set {
			sets = append(sets, DescriptorSet{Set: b.Set})
		}
		last := &sets[len(sets)-1]
		last.Bindings = append(last.Bindings, b)
	}
	return sets
}
