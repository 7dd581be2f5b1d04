package errors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseRead    Phase = "read"    // header and instruction stream decoding
	PhaseBuild   Phase = "build"   // ID table construction
	PhaseResolve Phase = "resolve" // descriptor binding resolution
	PhaseQuery   Phase = "query"   // reflection queries and patching
	PhaseCache   Phase = "cache"   // reflection cache storage
	PhaseLoad    Phase = "load"    // shader file loading
)

// Kind categorizes the error
type Kind string

const (
	KindUnalignedBuffer          Kind = "unaligned_buffer"
	KindTruncatedStream          Kind = "truncated_stream"
	KindMalformedHeader          Kind = "malformed_header"
	KindDuplicateDefinition      Kind = "duplicate_definition"
	KindMissingBindingDecoration Kind = "missing_binding_decoration"
	KindUnresolvableResourceType Kind = "unresolvable_resource_type"
	KindDuplicateBindingSlot     Kind = "duplicate_binding_slot"
	KindInvalidID                Kind = "invalid_id"
	KindNotFound                 Kind = "not_found"
	KindInvalidInput             Kind = "invalid_input"
	KindInvalidData              Kind = "invalid_data"
)

var descriptions = map[Kind]string{
	KindUnalignedBuffer:          "shader code size is not a multiple of 4 bytes",
	KindTruncatedStream:          "instruction runs past the end of the shader code",
	KindMalformedHeader:          "invalid SPIR-V header",
	KindDuplicateDefinition:      "result id defined more than once",
	KindMissingBindingDecoration: "resource variable lacks a DescriptorSet or Binding decoration",
	KindUnresolvableResourceType: "resource variable type cannot be classified as a descriptor",
	KindDuplicateBindingSlot:     "two resources share the same descriptor set and binding",
	KindInvalidID:                "reference to an undefined or out of range id",
	KindNotFound:                 "requested item not found",
	KindInvalidInput:             "invalid input",
	KindInvalidData:              "invalid data",
}

// Describe returns human-readable text for an error kind.
func Describe(kind Kind) string {
	if s, ok := descriptions[kind]; ok {
		return s
	}
	return "unknown error (" + string(kind) + ")"
}

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Opcode string
	Detail string
	ID     uint32
	Word   int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Opcode != "" {
		b.WriteString(" in ")
		b.WriteString(e.Opcode)
	}
	if e.ID != 0 {
		b.WriteString(" for %")
		b.WriteString(strconv.FormatUint(uint64(e.ID), 10))
	}
	if e.Word > 0 {
		b.WriteString(" at word ")
		b.WriteString(strconv.Itoa(e.Word))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether any error in err's chain is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// ID sets the offending result or target id
func (b *Builder) ID(id uint32) *Builder {
	b.err.ID = id
	return b
}

// Opcode sets the name of the instruction being processed
func (b *Builder) Opcode(name string) *Builder {
	b.err.Opcode = name
	return b
}

// Word sets the word offset into the module
func (b *Builder) Word(offset int) *Builder {
	b.err.Word = offset
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Stream decoding constructors

// UnalignedBuffer creates an error for a byte length that is not a multiple of 4
func UnalignedBuffer(size int) *Error {
	return &Error{
		Phase:  PhaseRead,
		Kind:   KindUnalignedBuffer,
		Detail: fmt.Sprintf("code size %d is not a multiple of 4", size),
		Value:  size,
	}
}

// MalformedHeader creates a header validation error
func MalformedHeader(detail string) *Error {
	return &Error{
		Phase:  PhaseRead,
		Kind:   KindMalformedHeader,
		Detail: detail,
	}
}

// TruncatedStream creates an error for an instruction extending past the buffer end
func TruncatedStream(word, wordCount, remaining int) *Error {
	return &Error{
		Phase:  PhaseRead,
		Kind:   KindTruncatedStream,
		Word:   word,
		Detail: fmt.Sprintf("instruction declares %d words, %d remain", wordCount, remaining),
		Value:  wordCount,
	}
}

// Module construction constructors

// DuplicateDefinition creates an error for an id defined twice
func DuplicateDefinition(id uint32, opcode string, word int, previous string) *Error {
	return &Error{
		Phase:  PhaseBuild,
		Kind:   KindDuplicateDefinition,
		ID:     id,
		Opcode: opcode,
		Word:   word,
		Detail: fmt.Sprintf("already defined as %s", previous),
	}
}

// InvalidID creates an error for an id that is zero, out of bounds, or undefined
func InvalidID(phase Phase, id uint32, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidID,
		ID:     id,
		Detail: detail,
		Value:  id,
	}
}

// Resolution constructors

// MissingBindingDecoration creates an error for a resource variable without a set or binding
func MissingBindingDecoration(id uint32, decoration string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindMissingBindingDecoration,
		ID:     id,
		Detail: fmt.Sprintf("missing %s decoration", decoration),
	}
}

// UnresolvableResourceType creates an error for a type chain with no descriptor classification
func UnresolvableResourceType(id uint32, detail string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindUnresolvableResourceType,
		ID:     id,
		Detail: detail,
	}
}

// DuplicateBindingSlot creates an error for two variables sharing a (set, binding) pair
func DuplicateBindingSlot(id, previous, set, binding uint32) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindDuplicateBindingSlot,
		ID:     id,
		Detail: fmt.Sprintf("set %d binding %d already used by %%%d", set, binding, previous),
		Value:  [2]uint32{set, binding},
	}
}

// Surrounding tooling constructors

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a shader loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
