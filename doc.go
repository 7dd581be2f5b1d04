// Package spirvreflect recovers descriptor binding layouts from compiled
// SPIR-V shaders.
//
// Pipeline setup code needs to know which descriptor sets and bindings a
// shader declares and what kind of resource sits in each slot. This module
// reads that information straight from the shader binary.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	spirvreflect/
//	├── spirv/           Header decoding, instruction stream, module tables, assembler
//	├── reflect/         Descriptor classification and the ShaderModule view
//	├── cache/           bbolt-backed reflection cache keyed by code fingerprint
//	├── errors/          Structured error types for debugging
//	└── cmd/spvreflect/  Command line inspector and interactive browser
//
// # Quick Start
//
// Reflect a shader:
//
//	sm, err := reflect.Create(code)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sets, err := sm.DescriptorSets()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, set := range sets {
//	    for _, b := range set.Bindings {
//	        fmt.Println(set.Set, b.Binding, b.DescriptorType, b.Name)
//	    }
//	}
//
// Lower-level access to the parsed module is available through spirv.Parse,
// and spirv.Assembler builds binaries for tests and tooling.
//
// # Errors
//
// Every failure is an *errors.Error carrying a Phase and a Kind. Use
// errors.IsKind to branch on the kind:
//
//	if errors.IsKind(err, errors.KindDuplicateBindingSlot) {
//	    // two resources share a slot
//	}
//
// A module without resources and a lookup of an unused set are not errors;
// they return empty results.
//
// # Thread Safety
//
// Parsed modules are immutable. ShaderModule resolves its descriptor sets
// once and is safe for concurrent use. cache.Store is safe for concurrent use.
package spirvreflect
