// Package errors provides structured error types for the spirv-reflect library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the SPIR-V context needed to locate a problem in the
// binary: the word offset, the offending ID, and the opcode being decoded.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseBuild, errors.KindDuplicateDefinition).
//		ID(12).
//		Opcode("OpTypeStruct").
//		Word(48).
//		Detail("id already defined by OpTypePointer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.TruncatedStream(120, 6, 4)
//	err := errors.MissingBindingDecoration(17, "DescriptorSet")
//
// All errors implement the standard error interface and support errors.Is/As.
// errors.Is matches on Phase and Kind; IsKind matches on Kind alone.
//
// Describe converts a Kind to human-readable text for callers that present
// errors to users without the structured context.
package errors
