package reflect

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/wippyai/spirv-reflect/spirv"
)

// CountUnbounded is the binding count reported for runtime-sized arrays.
const CountUnbounded uint32 = 0

// DescriptorType is the kind of descriptor a binding expects.
type DescriptorType uint8

const (
	DescriptorTypeSampler DescriptorType = iota
	DescriptorTypeCombinedImageSampler
	DescriptorTypeSampledImage
	DescriptorTypeStorageImage
	DescriptorTypeUniformTexelBuffer
	DescriptorTypeStorageTexelBuffer
	DescriptorTypeUniformBuffer
	DescriptorTypeStorageBuffer
	DescriptorTypeUniformBufferDynamic
	DescriptorTypeStorageBufferDynamic
	DescriptorTypeInputAttachment
	DescriptorTypeAccelerationStructure
)

var descriptorTypeNames = [...]string{
	DescriptorTypeSampler:               "sampler",
	DescriptorTypeCombinedImageSampler:  "combined_image_sampler",
	DescriptorTypeSampledImage:          "sampled_image",
	DescriptorTypeStorageImage:          "storage_image",
	DescriptorTypeUniformTexelBuffer:    "uniform_texel_buffer",
	DescriptorTypeStorageTexelBuffer:    "storage_texel_buffer",
	DescriptorTypeUniformBuffer:         "uniform_buffer",
	DescriptorTypeStorageBuffer:         "storage_buffer",
	DescriptorTypeUniformBufferDynamic:  "uniform_buffer_dynamic",
	DescriptorTypeStorageBufferDynamic:  "storage_buffer_dynamic",
	DescriptorTypeInputAttachment:       "input_attachment",
	DescriptorTypeAccelerationStructure: "acceleration_structure",
}

func (t DescriptorType) String() string {
	if int(t) < len(descriptorTypeNames) {
		return descriptorTypeNames[t]
	}
	return fmt.Sprintf("DescriptorType(%d)", uint8(t))
}

// IsImage reports whether descriptors of this type reference an image view.
func (t DescriptorType) IsImage() bool {
	switch t {
	case DescriptorTypeCombinedImageSampler, DescriptorTypeSampledImage,
		DescriptorTypeStorageImage, DescriptorTypeInputAttachment:
		return true
	}
	return false
}

// MarshalText implements encoding.TextMarshaler.
func (t DescriptorType) MarshalText() ([]byte, error) {
	if int(t) >= len(descriptorTypeNames) {
		return nil, fmt.Errorf("invalid descriptor type %d", uint8(t))
	}
	return []byte(descriptorTypeNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *DescriptorType) UnmarshalText(text []byte) error {
	i := slices.Index(descriptorTypeNames[:], string(text))
	if i < 0 {
		return fmt.Errorf("unknown descriptor type %q", text)
	}
	*t = DescriptorType(i)
	return nil
}

// ResourceType classifies a binding in HLSL register terms.
type ResourceType uint8

const (
	ResourceSampler ResourceType = 1 << iota
	ResourceCBV
	ResourceSRV
	ResourceUAV
)

var resourceTypeNames = []struct {
	flag ResourceType
	name string
}{
	{ResourceSampler, "sampler"},
	{ResourceCBV, "cbv"},
	{ResourceSRV, "srv"},
	{ResourceUAV, "uav"},
}

func (r ResourceType) String() string {
	if r == 0 {
		return "undefined"
	}
	var parts []string
	for _, n := range resourceTypeNames {
		if r&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// MarshalText implements encoding.TextMarshaler.
func (r ResourceType) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *ResourceType) UnmarshalText(text []byte) error {
	*r = 0
	if string(text) == "undefined" {
		return nil
	}
	for part := range strings.SplitSeq(string(text), "|") {
		flag, ok := resourceFlag(part)
		if !ok {
			return fmt.Errorf("unknown resource type %q", part)
		}
		*r |= flag
	}
	return nil
}

func resourceFlag(name string) (ResourceType, bool) {
	for _, n := range resourceTypeNames {
		if n.name == name {
			return n.flag, true
		}
	}
	return 0, false
}

// resourceTypeOf maps a descriptor type to its resource class.
func resourceTypeOf(t DescriptorType) ResourceType {
	switch t {
	case DescriptorTypeSampler:
		return ResourceSampler
	case DescriptorTypeCombinedImageSampler:
		return ResourceSampler | ResourceSRV
	case DescriptorTypeSampledImage, DescriptorTypeUniformTexelBuffer,
		DescriptorTypeInputAttachment, DescriptorTypeAccelerationStructure:
		return ResourceSRV
	case DescriptorTypeStorageImage, DescriptorTypeStorageTexelBuffer,
		DescriptorTypeStorageBuffer, DescriptorTypeStorageBufferDynamic:
		return ResourceUAV
	case DescriptorTypeUniformBuffer, DescriptorTypeUniformBufferDynamic:
		return ResourceCBV
	}
	return 0
}

// ImageTraits describes the image type behind an image-kind binding.
type ImageTraits struct {
	Dim          spirv.Dim `json:"dim"`
	Depth        uint32    `json:"depth"`
	Sampled      uint32    `json:"sampled"`
	Format       uint32    `json:"format"`
	Arrayed      bool      `json:"arrayed"`
	Multisampled bool      `json:"multisampled"`
}

// ArrayTraits lists the array dimensions wrapping a binding, outermost
// first. Runtime-sized dimensions are CountUnbounded.
type ArrayTraits struct {
	Dims []uint32 `json:"dims,omitempty"`
}

// WordOffset holds the word offsets of the literal operands of a binding's
// Binding and DescriptorSet decorations.
type WordOffset struct {
	Binding int `json:"binding"`
	Set     int `json:"set"`
}

// DescriptorBinding is one resource variable resolved to a descriptor slot.
type DescriptorBinding struct {
	Name                 string         `json:"name,omitempty"`
	TypeName             string         `json:"type_name,omitempty"`
	Array                ArrayTraits    `json:"array"`
	Image                *ImageTraits   `json:"image,omitempty"`
	WordOffset           WordOffset     `json:"word_offset"`
	SpirvID              uint32         `json:"spirv_id"`
	Set                  uint32         `json:"set"`
	Binding              uint32         `json:"binding"`
	Count                uint32         `json:"count"`
	InputAttachmentIndex uint32         `json:"input_attachment_index"`
	UAVCounterID         uint32         `json:"uav_counter_id,omitempty"`
	DescriptorType       DescriptorType `json:"descriptor_type"`
	ResourceType         ResourceType   `json:"resource_type"`
}

// Unbounded reports whether the binding is a runtime-sized array.
func (b DescriptorBinding) Unbounded() bool {
	return len(b.Array.Dims) > 0 && b.Count == CountUnbounded
}

func (b DescriptorBinding) clone() DescriptorBinding {
	b.Array.Dims = slices.Clone(b.Array.Dims)
	if b.Image != nil {
		img := *b.Image
		b.Image = &img
	}
	return b
}

// DescriptorSet is a set index and its bindings in ascending binding order.
type DescriptorSet struct {
	Bindings []DescriptorBinding `json:"bindings"`
	Set      uint32              `json:"set"`
}

// Binding returns the binding with the given index.
func (s DescriptorSet) Binding(binding uint32) (DescriptorBinding, bool) {
	i, ok := slices.BinarySearchFunc(s.Bindings, binding, func(b DescriptorBinding, n uint32) int {
		return cmp.Compare(b.Binding, n)
	})
	if !ok {
		return DescriptorBinding{}, false
	}
	return s.Bindings[i].clone(), true
}

func (s DescriptorSet) clone() DescriptorSet {
	out := DescriptorSet{Set: s.Set, Bindings: make([]DescriptorBinding, len(s.Bindings))}
	for i, b := range s.Bindings {
		out.Bindings[i] = b.clone()
	}
	return out
}

func cloneSets(sets []DescriptorSet) []DescriptorSet {
	out := make([]DescriptorSet, len(sets))
	for i, s := range sets {
		out[i] = s.clone()
	}
	return out
}

