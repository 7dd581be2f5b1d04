package reflect_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	rerrors "github.com/wippyai/spirv-reflect/errors"
	"github.com/wippyai/spirv-reflect/reflect"
	"github.com/wippyai/spirv-reflect/spirv"
)

func resolve(a *spirv.Assembler) ([]reflect.DescriptorSet, error) {
	m, err := spirv.Parse(a.Bytes())
	Expect(err).NotTo(HaveOccurred())
	return reflect.Resolve(m)
}

func resolveOne(a *spirv.Assembler) reflect.DescriptorBinding {
	sets, err := resolve(a)
	Expect(err).NotTo(HaveOccurred())
	Expect(sets).To(HaveLen(1))
	Expect(sets[0].Bindings).To(HaveLen(1))
	return sets[0].Bindings[0]
}

func expectKind(err error, kind rerrors.Kind) {
	ExpectWithOffset(1, err).To(HaveOccurred())
	ExpectWithOffset(1, rerrors.KindOf(err)).To(Equal(kind), err.Error())
}

var _ = Describe("Resolve", func() {
	var a *spirv.Assembler

	BeforeEach(func() {
		a = spirv.NewAssembler()
	})

	It("should return no sets for a nil module", func() {
		sets, err := reflect.Resolve(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(sets).To(BeEmpty())
	})

	It("should return no sets for a module without resources", func() {
		f := a.TypeFloat(32)
		declare(a, spirv.StorageClassPrivate, f)
		declare(a, spirv.StorageClassInput, a.TypeVector(f, 4))
		declare(a, spirv.StorageClassOutput, a.TypeVector(f, 4))

		sets, err := resolve(a)
		Expect(err).NotTo(HaveOccurred())
		Expect(sets).To(BeEmpty())
	})

	DescribeTable("classification",
		func(build func(a *spirv.Assembler) (spirv.StorageClass, uint32),
			want reflect.DescriptorType, res reflect.ResourceType) {
			sc, pointee := build(a)
			bind(a, sc, pointee, 0, 0)

			b := resolveOne(a)
			Expect(b.DescriptorType).To(Equal(want))
			Expect(b.ResourceType).To(Equal(res))
			Expect(b.Count).To(Equal(uint32(1)))
		},
		Entry("sampler",
			func(a *spirv.Assembler) (spirv.StorageClass, uint32) {
				return spirv.StorageClassUniformConstant, a.TypeSampler()
			},
			reflect.DescriptorTypeSampler, reflect.ResourceSampler),
		Entry("sampled image type",
			func(a *spirv.Assembler) (spirv.StorageClass, uint32) {
				return spirv.StorageClassUniformConstant, a.TypeSampledImage(image(a, spirv.Dim2D, spirv.ImageSampled))
			},
			reflect.DescriptorTypeCombinedImageSampler, reflect.ResourceSampler|reflect.ResourceSRV),
		Entry("sampled image over a buffer",
			func(a *spirv.Assembler) (spirv.StorageClass, uint32) {
				return spirv.StorageClassUniformConstant, a.TypeSampledImage(image(a, spirv.DimBuffer, spirv.ImageSampled))
			},
			reflect.DescriptorTypeUniformTexelBuffer, reflect.ResourceSRV),
		Entry("sampled 2D image",
			func(a *spirv.Assembler) (spirv.StorageClass, uint32) {
				return spirv.StorageClassUniformConstant, image(a, spirv.Dim2D, spirv.ImageSampled)
			},
			reflect.DescriptorTypeSampledImage, reflect.ResourceSRV),
		Entry("storage 3D image",
			func(a *spirv.Assembler) (spirv.StorageClass, uint32) {
				return spirv.StorageClassUniformConstant, image(a, spirv.Dim3D, spirv.ImageStorage)
			},
			reflect.DescriptorTypeStorageImage, reflect.ResourceUAV),
		Entry("uniform texel buffer",
			func(a *spirv.Assembler) (spirv.StorageClass, uint32) {
				return spirv.StorageClassUniformConstant, image(a, spirv.DimBuffer, spirv.ImageSampled)
			},
			reflect.DescriptorTypeUniformTexelBuffer, reflect.ResourceSRV),
		Entry("storage texel buffer",
			func(a *spirv.Assembler) (spirv.StorageClass, uint32) {
				return spirv.StorageClassUniformConstant, image(a, spirv.DimBuffer, spirv.ImageStorage)
			},
			reflect.DescriptorTypeStorageTexelBuffer, reflect.ResourceUAV),
		Entry("subpass data",
			func(a *spirv.Assembler) (spirv.StorageClass, uint32) {
				return spirv.StorageClassUniformConstant, image(a, spirv.DimSubpassData, spirv.ImageStorage)
			},
			reflect.DescriptorTypeInputAttachment, reflect.ResourceSRV),
		Entry("uniform block",
			func(a *spirv.Assembler) (spirv.StorageClass, uint32) {
				return spirv.StorageClassUniform, block(a)
			},
			reflect.DescriptorTypeUniformBuffer, reflect.ResourceCBV),
		Entry("storage buffer block",
			func(a *spirv.Assembler) (spirv.StorageClass, uint32) {
				return spirv.StorageClassStorageBuffer, block(a)
			},
			reflect.DescriptorTypeStorageBuffer, reflect.ResourceUAV),
		Entry("legacy buffer block",
			func(a *spirv.Assembler) (spirv.StorageClass, uint32) {
				f := a.TypeFloat(32)
				s := a.TypeStruct(a.TypeRuntimeArray(f))
				a.Decorate(s, spirv.DecorationBufferBlock)
				return spirv.StorageClassUniform, s
			},
			reflect.DescriptorTypeStorageBuffer, reflect.ResourceUAV),
		Entry("acceleration structure",
			func(a *spirv.Assembler) (spirv.StorageClass, uint32) {
				return spirv.StorageClassUniformConstant, a.TypeAccelerationStructure()
			},
			reflect.DescriptorTypeAccelerationStructure, reflect.ResourceSRV),
	)

	It("should record image traits", func() {
		f := a.TypeFloat(32)
		img := a.TypeImage(f, spirv.DimCube, 1, true, false, spirv.ImageSampled)
		bind(a, spirv.StorageClassUniformConstant, a.TypeSampledImage(img), 0, 0)

		b := resolveOne(a)
		Expect(b.Image).To(Equal(&reflect.ImageTraits{
			Dim:     spirv.DimCube,
			Depth:   1,
			Sampled: spirv.ImageSampled,
			Arrayed: true,
		}))
	})

	It("should leave image traits empty for buffers", func() {
		bind(a, spirv.StorageClassUniform, block(a), 0, 0)
		Expect(resolveOne(a).Image).To(BeNil())
	})

	Context("with an InputAttachmentIndex decoration", func() {
		It("should turn an image binding into an input attachment", func() {
			v := bind(a, spirv.StorageClassUniformConstant, image(a, spirv.Dim2D, spirv.ImageSampled), 0, 0)
			a.Decorate(v, spirv.DecorationInputAttachmentIndex, 3)

			b := resolveOne(a)
			Expect(b.DescriptorType).To(Equal(reflect.DescriptorTypeInputAttachment))
			Expect(b.InputAttachmentIndex).To(Equal(uint32(3)))
		})

		It("should record the index of a subpass input", func() {
			v := bind(a, spirv.StorageClassUniformConstant, image(a, spirv.DimSubpassData, spirv.ImageStorage), 0, 0)
			a.Decorate(v, spirv.DecorationInputAttachmentIndex, 1)

			b := resolveOne(a)
			Expect(b.DescriptorType).To(Equal(reflect.DescriptorTypeInputAttachment))
			Expect(b.InputAttachmentIndex).To(Equal(uint32(1)))
		})

		It("should not affect buffers", func() {
			v := bind(a, spirv.StorageClassUniform, block(a), 0, 0)
			a.Decorate(v, spirv.DecorationInputAttachmentIndex, 1)

			Expect(resolveOne(a).DescriptorType).To(Equal(reflect.DescriptorTypeUniformBuffer))
		})
	})

	Context("with arrays", func() {
		It("should count fixed arrays", func() {
			tex := a.TypeSampledImage(image(a, spirv.Dim2D, spirv.ImageSampled))
			bind(a, spirv.StorageClassUniformConstant, a.TypeArray(tex, uintConst(a, 4)), 0, 0)

			b := resolveOne(a)
			Expect(b.DescriptorType).To(Equal(reflect.DescriptorTypeCombinedImageSampler))
			Expect(b.Count).To(Equal(uint32(4)))
			Expect(b.Array.Dims).To(Equal([]uint32{4}))
			Expect(b.Unbounded()).To(BeFalse())
		})

		It("should multiply nested dimensions outermost first", func() {
			inner := a.TypeArray(a.TypeSampler(), uintConst(a, 2))
			bind(a, spirv.StorageClassUniformConstant, a.TypeArray(inner, uintConst(a, 3)), 0, 0)

			b := resolveOne(a)
			Expect(b.Count).To(Equal(uint32(6)))
			Expect(b.Array.Dims).To(Equal([]uint32{3, 2}))
		})

		It("should report runtime arrays as unbounded", func() {
			img := image(a, spirv.Dim2D, spirv.ImageSampled)
			bind(a, spirv.StorageClassUniformConstant, a.TypeRuntimeArray(img), 0, 0)

			b := resolveOne(a)
			Expect(b.DescriptorType).To(Equal(reflect.DescriptorTypeSampledImage))
			Expect(b.Count).To(Equal(reflect.CountUnbounded))
			Expect(b.Array.Dims).To(Equal([]uint32{reflect.CountUnbounded}))
			Expect(b.Unbounded()).To(BeTrue())
		})

		It("should use the default of a specialization constant length", func() {
			u := a.TypeInt(32, false)
			n := a.SpecConstant(u, 8)
			bind(a, spirv.StorageClassUniform, a.TypeArray(block(a), n), 0, 0)

			b := resolveOne(a)
			Expect(b.DescriptorType).To(Equal(reflect.DescriptorTypeUniformBuffer))
			Expect(b.Count).To(Equal(uint32(8)))
		})

		It("should reject a length that is not a constant", func() {
			u := a.TypeInt(32, false)
			length := declare(a, spirv.StorageClassPrivate, u)
			bind(a, spirv.StorageClassUniformConstant, a.TypeArray(a.TypeSampler(), length), 0, 0)

			_, err := resolve(a)
			expectKind(err, rerrors.KindInvalidID)
		})

		It("should reject a negative signed length", func() {
			i := a.TypeInt(32, true)
			bind(a, spirv.StorageClassUniformConstant, a.TypeArray(a.TypeSampler(), a.Constant(i, 0xFFFFFFFF)), 0, 0)

			_, err := resolve(a)
			expectKind(err, rerrors.KindInvalidID)
		})

		It("should accept a positive signed length", func() {
			i := a.TypeInt(32, true)
			bind(a, spirv.StorageClassUniformConstant, a.TypeArray(a.TypeSampler(), a.Constant(i, 5)), 0, 0)

			Expect(resolveOne(a).Count).To(Equal(uint32(5)))
		})

		It("should reject dimensions whose product overflows", func() {
			inner := a.TypeArray(a.TypeSampler(), uintConst(a, 65536))
			bind(a, spirv.StorageClassUniformConstant, a.TypeArray(inner, uintConst(a, 65536)), 0, 0)

			_, err := resolve(a)
			expectKind(err, rerrors.KindUnresolvableResourceType)
		})

		It("should keep an overflowing array unbounded when a dimension is a runtime array", func() {
			inner := a.TypeArray(a.TypeSampler(), uintConst(a, 65536))
			outer := a.TypeArray(inner, uintConst(a, 65536))
			bind(a, spirv.StorageClassUniformConstant, a.TypeRuntimeArray(outer), 0, 0)

			b := resolveOne(a)
			Expect(b.Count).To(Equal(reflect.CountUnbounded))
			Expect(b.Unbounded()).To(BeTrue())
		})

		It("should reject an array type that contains itself", func() {
			length := uintConst(a, 2)
			loop := a.AllocID()
			a.Emit(spirv.OpTypeArray, loop, loop, length)
			bind(a, spirv.StorageClassUniformConstant, loop, 0, 0)

			_, err := resolve(a)
			expectKind(err, rerrors.KindUnresolvableResourceType)
			Expect(err.Error()).To(ContainSubstring("contains itself"))
		})
	})

	It("should copy names and decoration offsets", func() {
		s := block(a)
		a.Name(s, "Globals")
		v := bind(a, spirv.StorageClassUniform, s, 2, 7)
		a.Name(v, "globals")

		code := a.Words()
		b := resolveOne(a)
		Expect(b.SpirvID).To(Equal(v))
		Expect(b.Name).To(Equal("globals"))
		Expect(b.TypeName).To(Equal("Globals"))
		Expect(b.Set).To(Equal(uint32(2)))
		Expect(b.Binding).To(Equal(uint32(7)))
		Expect(code[b.WordOffset.Set]).To(Equal(uint32(2)))
		Expect(code[b.WordOffset.Binding]).To(Equal(uint32(7)))
	})

	It("should record the counter buffer of a storage buffer", func() {
		counter := bind(a, spirv.StorageClassStorageBuffer, block(a), 0, 1)
		v := bind(a, spirv.StorageClassStorageBuffer, block(a), 0, 0)
		a.Emit(spirv.OpDecorateID, v, uint32(spirv.DecorationCounterBuffer), counter)

		sets, err := resolve(a)
		Expect(err).NotTo(HaveOccurred())
		Expect(sets[0].Bindings[0].UAVCounterID).To(Equal(counter))
		Expect(sets[0].Bindings[1].UAVCounterID).To(BeZero())
	})

	It("should skip push constants without decorations", func() {
		declare(a, spirv.StorageClassPushConstant, block(a))
		bind(a, spirv.StorageClassUniform, block(a), 0, 0)

		sets, err := resolve(a)
		Expect(err).NotTo(HaveOccurred())
		Expect(sets).To(HaveLen(1))
		Expect(sets[0].Bindings).To(HaveLen(1))
	})

	It("should sort sets and bindings", func() {
		bind(a, spirv.StorageClassUniform, block(a), 3, 1)
		bind(a, spirv.StorageClassUniform, block(a), 0, 9)
		bind(a, spirv.StorageClassUniform, block(a), 3, 0)
		bind(a, spirv.StorageClassUniform, block(a), 0, 2)

		sets, err := resolve(a)
		Expect(err).NotTo(HaveOccurred())
		Expect(sets).To(HaveLen(2))
		Expect(sets[0].Set).To(Equal(uint32(0)))
		Expect(sets[1].Set).To(Equal(uint32(3)))
		Expect([]uint32{sets[0].Bindings[0].Binding, sets[0].Bindings[1].Binding}).To(Equal([]uint32{2, 9}))
		Expect([]uint32{sets[1].Bindings[0].Binding, sets[1].Bindings[1].Binding}).To(Equal([]uint32{0, 1}))
	})

	Context("with malformed resources", func() {
		It("should fail when Binding is missing", func() {
			v := declare(a, spirv.StorageClassUniform, block(a))
			a.Decorate(v, spirv.DecorationDescriptorSet, 0)

			_, err := resolve(a)
			expectKind(err, rerrors.KindMissingBindingDecoration)
			Expect(err.Error()).To(ContainSubstring("Binding"))
		})

		It("should fail when DescriptorSet is missing", func() {
			v := declare(a, spirv.StorageClassUniformConstant, a.TypeSampler())
			a.Decorate(v, spirv.DecorationBinding, 0)

			_, err := resolve(a)
			expectKind(err, rerrors.KindMissingBindingDecoration)
			Expect(err.Error()).To(ContainSubstring("DescriptorSet"))
		})

		It("should fail on a duplicate slot", func() {
			first := bind(a, spirv.StorageClassUniform, block(a), 1, 4)
			second := bind(a, spirv.StorageClassUniformConstant, a.TypeSampler(), 1, 4)

			_, err := resolve(a)
			expectKind(err, rerrors.KindDuplicateBindingSlot)
			var rerr *rerrors.Error
			Expect(err).To(BeAssignableToTypeOf(rerr))
			rerr = err.(*rerrors.Error)
			Expect(rerr.ID).To(Equal(second))
			Expect(rerr.Value).To(Equal([2]uint32{1, 4}))
			Expect(rerr.Detail).To(ContainSubstring("%%%d", first))
		})

		It("should fail on a scalar resource", func() {
			bind(a, spirv.StorageClassUniformConstant, a.TypeFloat(32), 0, 0)

			_, err := resolve(a)
			expectKind(err, rerrors.KindUnresolvableResourceType)
		})

		It("should fail on an image without a sampled mode", func() {
			bind(a, spirv.StorageClassUniformConstant, image(a, spirv.Dim2D, spirv.ImageSampledUnknown), 0, 0)

			_, err := resolve(a)
			expectKind(err, rerrors.KindUnresolvableResourceType)
		})

		It("should fail on a struct outside buffer storage classes", func() {
			bind(a, spirv.StorageClassUniformConstant, block(a), 0, 0)

			_, err := resolve(a)
			expectKind(err, rerrors.KindUnresolvableResourceType)
		})

		It("should fail on an undeclared pointee", func() {
			ghost := a.AllocID()
			bind(a, spirv.StorageClassUniform, ghost, 0, 0)

			_, err := resolve(a)
			expectKind(err, rerrors.KindInvalidID)
		})
	})
})
