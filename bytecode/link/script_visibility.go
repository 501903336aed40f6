package link

import "github.com/glyphlang/glyph/bytecode"

// verifyScriptVisibility is C5: on pre-V5 modules only, an entry function
// may call another entry function, but a non-entry function may never call
// one. V5+ modules skip this pass entirely — script visibility was
// deprecated once Public/Friend/Private fully replaced it.
func verifyScriptVisibility(module *bytecode.CompiledModule, idx *index) *partialError {
	if !idx.hasScriptFunctions {
		return nil
	}

	for defIdx, fdef := range module.FunctionDefs {
		for offset, instr := range fdef.Code {
			var callee bytecode.FunctionHandleIndex
			switch instr.Op {
			case bytecode.OpCall:
				callee = bytecode.FunctionHandleIndex(instr.Index)
			case bytecode.OpCallGeneric:
				fi := module.FunctionInstantiationAt(bytecode.FunctionInstantiationIndex(instr.Index))
				callee = fi.Handle
			default:
				continue
			}

			if _, isScriptVisible := idx.scriptFunctions[callee]; !isScriptVisible {
				continue
			}
			if fdef.IsEntry {
				continue
			}
			return newCodeOffsetError(
				CalledScriptVisibleFromNonScriptVisible,
				bytecode.FunctionDefinitionIndex(defIdx),
				bytecode.CodeOffset(offset),
				"script-visible functions can only be called from scripts or other script-visible functions",
			).atIndex(IndexKindFunctionHandle, uint32(callee))
		}
	}
	return nil
}
