package link

import (
	"fmt"

	"github.com/glyphlang/glyph/bytecode"
)

// StatusCode is the closed set of ways a module can fail cross-module
// linking.
type StatusCode uint8

const (
	MissingDependency StatusCode = iota + 1
	LookupFailed
	TypeMismatch
	CalledScriptVisibleFromNonScriptVisible
)

func (s StatusCode) String() string {
	switch s {
	case MissingDependency:
		return "MISSING_DEPENDENCY"
	case LookupFailed:
		return "LOOKUP_FAILED"
	case TypeMismatch:
		return "TYPE_MISMATCH"
	case CalledScriptVisibleFromNonScriptVisible:
		return "CALLED_SCRIPT_VISIBLE_FROM_NON_SCRIPT_VISIBLE"
	default:
		return "UNKNOWN_STATUS"
	}
}

// IndexKind names which table a table_index refers to in a VMError.
type IndexKind uint8

const (
	IndexKindUnknown IndexKind = iota
	IndexKindModuleHandle
	IndexKindDatatypeHandle
	IndexKindFunctionHandle
)

func (k IndexKind) String() string {
	switch k {
	case IndexKindModuleHandle:
		return "ModuleHandle"
	case IndexKindDatatypeHandle:
		return "DatatypeHandle"
	case IndexKindFunctionHandle:
		return "FunctionHandle"
	default:
		return "Unknown"
	}
}

// CodeLocation pinpoints an instruction inside a function definition, used
// only by the script-visibility status code.
type CodeLocation struct {
	FunctionDefinitionIndex bytecode.FunctionDefinitionIndex
	CodeOffset              bytecode.CodeOffset
}

// VMError is the error type verify returns. It is a concrete struct rather
// than a sentinel because every caller of verify_module needs to branch on
// StatusCode (and often IndexKind/TableIndex too) to decide what to report,
// the same reason the teacher reaches for a field-ful Diagnostic instead of
// a plain string anywhere one string isn't enough.
type VMError struct {
	StatusCode   StatusCode
	IndexKind    IndexKind
	TableIndex   uint32
	hasTableIdx  bool
	CodeLocation *CodeLocation
	Message      string
	Location     bytecode.ModuleId
}

func (e *VMError) Error() string {
	switch {
	case e.CodeLocation != nil && e.hasTableIdx:
		return fmt.Sprintf("%s: %s (function_def=%d, offset=%d, callee=%s[%d]) in %s",
			e.StatusCode, e.Message, e.CodeLocation.FunctionDefinitionIndex,
			e.CodeLocation.CodeOffset, e.IndexKind, e.TableIndex, e.Location)
	case e.CodeLocation != nil:
		return fmt.Sprintf("%s: %s (function_def=%d, offset=%d) in %s",
			e.StatusCode, e.Message, e.CodeLocation.FunctionDefinitionIndex,
			e.CodeLocation.CodeOffset, e.Location)
	case e.hasTableIdx:
		return fmt.Sprintf("%s at %s[%d] in %s", e.StatusCode, e.IndexKind, e.TableIndex, e.Location)
	default:
		return fmt.Sprintf("%s in %s", e.StatusCode, e.Location)
	}
}

// partialError is a VMError before its Location has been filled in by
// finish (C6). It never escapes this package.
type partialError struct {
	err *VMError
}

func newVerificationError(status StatusCode, kind IndexKind, index uint32) *partialError {
	return &partialError{err: &VMError{
		StatusCode:  status,
		IndexKind:   kind,
		TableIndex:  index,
		hasTableIdx: true,
	}}
}

func newCodeOffsetError(status StatusCode, fdefIdx bytecode.FunctionDefinitionIndex, offset bytecode.CodeOffset, message string) *partialError {
	return &partialError{err: &VMError{
		StatusCode: status,
		Message:    message,
		CodeLocation: &CodeLocation{
			FunctionDefinitionIndex: fdefIdx,
			CodeOffset:              offset,
		},
	}}
}

// atIndex attaches a table index to an error already carrying a CodeLocation,
// e.g. so a script-visibility violation can also report which function
// handle was the disallowed callee.
func (p *partialError) atIndex(kind IndexKind, index uint32) *partialError {
	p.err.IndexKind = kind
	p.err.TableIndex = index
	p.err.hasTableIdx = true
	return p
}

// finish is C6: attach the verified module's identity so callers see a
// module-scoped error.
func (p *partialError) finish(self bytecode.ModuleId) *VMError {
	p.err.Location = self
	return p.err
}
