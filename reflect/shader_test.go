package reflect_test

import (
	"encoding/binary"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	rerrors "github.com/wippyai/spirv-reflect/errors"
	"github.com/wippyai/spirv-reflect/reflect"
	"github.com/wippyai/spirv-reflect/spirv"
)

// withoutOffsets clears the positional part of resolved sets so binaries
// with reordered instructions can be compared.
func withoutOffsets(sets []reflect.DescriptorSet) []reflect.DescriptorSet {
	for i := range sets {
		for j := range sets[i].Bindings {
			sets[i].Bindings[j].WordOffset = reflect.WordOffset{}
		}
	}
	return sets
}

var _ = Describe("ShaderModule", func() {
	var (
		code []byte
		sm   *reflect.ShaderModule
	)

	BeforeEach(func() {
		code = materials(false)
		var err error
		sm, err = reflect.Create(code)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should report the size of the code it was built from", func() {
		Expect(sm.CodeSize()).To(Equal(len(code)))
		Expect(sm.Code()).To(HaveLen(len(code) / 4))
		Expect(sm.Header().Magic).To(Equal(spirv.Magic))
	})

	It("should hand out copies of the code", func() {
		words := sm.Code()
		words[0] = 0
		Expect(sm.Code()[0]).To(Equal(spirv.Magic))
	})

	It("should list sets in order", func() {
		n, err := sm.DescriptorSetCount()
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))

		sets, err := sm.DescriptorSets()
		Expect(err).NotTo(HaveOccurred())
		Expect(sets).To(HaveLen(3))

		Expect(sets[0].Set).To(Equal(uint32(0)))
		Expect(sets[0].Bindings[0].Name).To(Equal("camera"))
		Expect(sets[0].Bindings[0].DescriptorType).To(Equal(reflect.DescriptorTypeUniformBuffer))

		Expect(sets[1].Bindings).To(HaveLen(2))
		Expect(sets[1].Bindings[0].Name).To(Equal("linear"))
		Expect(sets[1].Bindings[0].DescriptorType).To(Equal(reflect.DescriptorTypeSampler))
		Expect(sets[1].Bindings[1].Name).To(Equal("albedo"))
		Expect(sets[1].Bindings[1].DescriptorType).To(Equal(reflect.DescriptorTypeCombinedImageSampler))

		Expect(sets[2].Set).To(Equal(uint32(2)))
		Expect(sets[2].Bindings[0].Binding).To(Equal(uint32(5)))
		Expect(sets[2].Bindings[0].DescriptorType).To(Equal(reflect.DescriptorTypeStorageBuffer))
	})

	It("should return identical results on repeated calls", func() {
		first, err := sm.DescriptorSets()
		Expect(err).NotTo(HaveOccurred())
		second, err := sm.DescriptorSets()
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))
	})

	It("should not be affected by callers mutating results", func() {
		sets, _ := sm.DescriptorSets()
		sets[1].Bindings[1].Image.Dim = spirv.Dim3D
		sets[1].Bindings = nil

		again, _ := sm.DescriptorSets()
		Expect(again[1].Bindings).To(HaveLen(2))
		Expect(again[1].Bindings[1].Image.Dim).To(Equal(spirv.Dim2D))
	})

	It("should resolve once under concurrent queries", func() {
		want, err := reflect.Reflect(code)
		Expect(err).NotTo(HaveOccurred())

		fresh, err := reflect.Create(code)
		Expect(err).NotTo(HaveOccurred())

		var wg sync.WaitGroup
		results := make([][]reflect.DescriptorSet, 8)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], _ = fresh.DescriptorSets()
			}()
		}
		wg.Wait()
		for _, got := range results {
			Expect(got).To(Equal(want))
		}
	})

	It("should not depend on decoration order", func() {
		reordered, err := reflect.Reflect(materials(true))
		Expect(err).NotTo(HaveOccurred())
		sets, _ := sm.DescriptorSets()
		Expect(withoutOffsets(reordered)).To(Equal(withoutOffsets(sets)))
	})

	It("should reflect big-endian binaries the same way", func() {
		a := spirv.NewAssembler()
		bind(a, spirv.StorageClassUniform, block(a), 0, 0)

		le, err := reflect.Reflect(a.Bytes())
		Expect(err).NotTo(HaveOccurred())
		be, err := reflect.Reflect(a.BytesOrder(binary.BigEndian))
		Expect(err).NotTo(HaveOccurred())
		Expect(be).To(Equal(le))
	})

	Describe("set lookup", func() {
		It("should find a declared set", func() {
			ds, ok, err := sm.DescriptorSet(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(ds.Bindings).To(HaveLen(2))
		})

		It("should report an absent set without error", func() {
			ds, ok, err := sm.DescriptorSet(7)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(ds.Bindings).To(BeEmpty())
		})

		It("should find a binding by slot", func() {
			b, ok, err := sm.DescriptorBinding(1, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(b.Name).To(Equal("albedo"))

			_, ok, err = sm.DescriptorBinding(1, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("should flatten bindings in slot order", func() {
			bindings, err := sm.DescriptorBindings()
			Expect(err).NotTo(HaveOccurred())
			names := make([]string, len(bindings))
			for i, b := range bindings {
				names[i] = b.Name
			}
			Expect(names).To(Equal([]string{"camera", "linear", "albedo", "lights"}))
		})
	})

	Describe("Rebind", func() {
		var albedo uint32

		BeforeEach(func() {
			b, _, err := sm.DescriptorBinding(1, 1)
			Expect(err).NotTo(HaveOccurred())
			albedo = b.SpirvID
		})

		It("should move a binding to a new slot", func() {
			moved, err := sm.Rebind(albedo, 4, 2)
			Expect(err).NotTo(HaveOccurred())

			b, ok, err := moved.DescriptorBinding(4, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(b.Name).To(Equal("albedo"))
			Expect(moved.CodeSize()).To(Equal(sm.CodeSize()))

			_, ok, _ = sm.DescriptorBinding(4, 2)
			Expect(ok).To(BeFalse())
		})

		It("should reject a slot that is already taken", func() {
			_, err := sm.Rebind(albedo, 0, 0)
			expectKind(err, rerrors.KindDuplicateBindingSlot)
		})

		It("should reject an unknown variable", func() {
			_, err := sm.Rebind(999, 0, 1)
			expectKind(err, rerrors.KindNotFound)
		})

		It("should reject bindings decorated through a group", func() {
			a := spirv.NewAssembler()
			group := a.AllocID()
			a.Decorate(group, spirv.DecorationDescriptorSet, 0)
			a.Emit(spirv.OpDecorationGroup, group)
			v := declare(a, spirv.StorageClassUniformConstant, a.TypeSampler())
			a.Decorate(v, spirv.DecorationBinding, 0)
			a.Emit(spirv.OpGroupDecorate, group, v)

			grouped, err := reflect.Create(a.Bytes())
			Expect(err).NotTo(HaveOccurred())
			_, err = grouped.Rebind(v, 1, 0)
			expectKind(err, rerrors.KindInvalidInput)
		})
	})

	Describe("absent module", func() {
		for name, absent := range map[string]*reflect.ShaderModule{
			"nil":  nil,
			"zero": {},
		} {
			It("should answer every query with an empty result for a "+name+" module", func() {
				Expect(absent.CodeSize()).To(BeZero())
				Expect(absent.Code()).To(BeEmpty())
				Expect(absent.Module()).To(BeNil())

				n, err := absent.DescriptorSetCount()
				Expect(err).NotTo(HaveOccurred())
				Expect(n).To(BeZero())

				sets, err := absent.DescriptorSets()
				Expect(err).NotTo(HaveOccurred())
				Expect(sets).To(BeEmpty())

				_, ok, err := absent.DescriptorSet(0)
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeFalse())

				_, err = absent.Rebind(1, 0, 0)
				expectKind(err, rerrors.KindInvalidInput)
			})
		}
	})

	Describe("Create", func() {
		It("should accept a module without resources", func() {
			empty, err := reflect.Create(spirv.NewAssembler().Bytes())
			Expect(err).NotTo(HaveOccurred())
			n, err := empty.DescriptorSetCount()
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
			sets, err := empty.DescriptorSets()
			Expect(err).NotTo(HaveOccurred())
			Expect(sets).To(BeEmpty())
		})

		It("should reject an unaligned buffer", func() {
			_, err := reflect.Create(code[:len(code)-1])
			expectKind(err, rerrors.KindUnalignedBuffer)
		})

		It("should reject a truncated final instruction", func() {
			_, err := reflect.Create(code[:len(code)-4])
			expectKind(err, rerrors.KindTruncatedStream)
		})

		It("should reject a bad header", func() {
			bad := append([]byte(nil), code...)
			bad[0] ^= 0xFF
			_, err := reflect.Create(bad)
			expectKind(err, rerrors.KindMalformedHeader)
		})

		It("should defer resolution errors to the first query", func() {
			a := spirv.NewAssembler()
			v := declare(a, spirv.StorageClassUniform, block(a))
			a.Decorate(v, spirv.DecorationDescriptorSet, 0)

			broken, err := reflect.Create(a.Bytes())
			Expect(err).NotTo(HaveOccurred())
			_, err = broken.DescriptorSets()
			expectKind(err, rerrors.KindMissingBindingDecoration)
			_, err = broken.DescriptorSetCount()
			expectKind(err, rerrors.KindMissingBindingDecoration)
		})
	})
})
