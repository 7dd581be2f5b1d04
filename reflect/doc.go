// Package reflect recovers descriptor binding metadata from parsed SPIR-V
// modules.
//
// Resolve walks a module's resource variables, classifies each variable's
// type chain into a DescriptorType and groups the results into descriptor
// sets ordered by set index, with bindings ordered by binding index inside
// each set. The output does not depend on declaration order in the binary.
//
// ShaderModule is the read-only view most callers want:
//
//	sm, err := reflect.Create(code)
//	if err != nil {
//		return err
//	}
//	sets, err := sm.DescriptorSets()
//
// Resolution runs once, on the first query, and its result is shared by
// every later query. A nil ShaderModule is a valid empty module.
package reflect
