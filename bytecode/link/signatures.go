package link

import "github.com/glyphlang/glyph/bytecode"

// compareModules holds just enough context for cross-module signature and
// datatype-head comparison: the module being verified (for resolving its
// own handles) and the dependency module that defines the signature being
// compared against.
type compareModules struct {
	module *bytecode.CompiledModule
	def    *bytecode.CompiledModule
}

// compareSignatures is §4.4.1: two equal-length lists of SignatureToken
// compare pairwise; any length mismatch is a TYPE_MISMATCH.
func compareSignatures(cm compareModules, handleSig, defSig []bytecode.SignatureToken) bool {
	if len(handleSig) != len(defSig) {
		return false
	}
	for i := range handleSig {
		if !compareToken(cm, handleSig[i], defSig[i]) {
			return false
		}
	}
	return true
}

// compareToken is the pairwise token comparison at the heart of §4.4.1:
// primitives match themselves, compound tokens recurse structurally, and a
// mutable reference is never compatible with an immutable one (or vice
// versa).
func compareToken(cm compareModules, handle, def bytecode.SignatureToken) bool {
	if handle.Kind != def.Kind {
		return false
	}
	switch handle.Kind {
	case bytecode.TokBool, bytecode.TokU8, bytecode.TokU16, bytecode.TokU32,
		bytecode.TokU64, bytecode.TokU128, bytecode.TokU256,
		bytecode.TokAddress, bytecode.TokSigner:
		return true
	case bytecode.TokVector:
		return compareToken(cm, *handle.Inner, *def.Inner)
	case bytecode.TokReference, bytecode.TokMutableReference:
		return compareToken(cm, *handle.Inner, *def.Inner)
	case bytecode.TokDatatype:
		return compareDatatypeHeads(cm, handle.Datatype, def.Datatype)
	case bytecode.TokDatatypeInstantiation:
		if !compareDatatypeHeads(cm, handle.Datatype, def.Datatype) {
			return false
		}
		return compareSignatures(cm, handle.TypeArgs, def.TypeArgs)
	case bytecode.TokTypeParameter:
		return handle.TypeParamIndex == def.TypeParamIndex
	default:
		return false
	}
}

// compareDatatypeHeads is §4.4.2: two datatype handles denote the same
// thing iff their (ModuleId, name) agree, resolved on each side through its
// own module. Abilities and type-parameter shape are C3's job, not this
// one's.
func compareDatatypeHeads(cm compareModules, handleIdx, defIdx bytecode.DatatypeHandleIndex) bool {
	handle := cm.module.DatatypeHandleAt(handleIdx)
	handleModuleID := cm.module.ModuleIdForHandle(cm.module.ModuleHandleAt(handle.Module))
	handleName := cm.module.IdentifierAt(handle.Name)

	def := cm.def.DatatypeHandleAt(defIdx)
	defModuleID := cm.def.ModuleIdForHandle(cm.def.ModuleHandleAt(def.Module))
	defName := cm.def.IdentifierAt(def.Name)

	return handleModuleID.Equal(defModuleID) && handleName.Equal(defName)
}
