package link

import "github.com/glyphlang/glyph/bytecode"

// verifyImportedFunctions is C4: each non-self function handle must exist,
// be callable from this module per visibility, and agree structurally on
// type-parameter arity/constraints and on parameter/return signatures.
func verifyImportedFunctions(module *bytecode.CompiledModule, idx *index) *partialError {
	self := module.SelfHandleIdx
	for i, fh := range module.FunctionHandles {
		if fh.Module == self {
			continue
		}
		ownerID := module.ModuleIdForHandle(module.ModuleHandleAt(fh.Module))
		owner, ok := idx.dependencyMap[ownerID.Normalize()]
		if !ok {
			return newVerificationError(LookupFailed, IndexKindFunctionHandle, uint32(i))
		}
		name := module.IdentifierAt(fh.Name)

		// A miss here collapses three distinct conditions (the function
		// does not exist; exists but is private; exists, is friend-visible,
		// but this module is not in its friends list) into one error,
		// intentionally: the spec does not require distinguishing them.
		defIdx, ok := idx.funcIDToHandle[keyFor(ownerID, name)]
		if !ok {
			return newVerificationError(LookupFailed, IndexKindFunctionHandle, uint32(i))
		}
		def := owner.FunctionHandleAt(defIdx)

		if !compatibleFunctionTypeParameters(fh.TypeParameters, def.TypeParameters) {
			return newVerificationError(TypeMismatch, IndexKindFunctionHandle, uint32(i))
		}

		cm := compareModules{module: module, def: owner}

		handleParams := module.SignatureAt(fh.Parameters).Tokens
		defParams := owner.SignatureAt(def.Parameters).Tokens
		if !compareSignatures(cm, handleParams, defParams) {
			return newVerificationError(TypeMismatch, IndexKindFunctionHandle, uint32(i))
		}

		handleReturn := module.SignatureAt(fh.Return).Tokens
		defReturn := owner.SignatureAt(def.Return).Tokens
		if !compareSignatures(cm, handleReturn, defReturn) {
			return newVerificationError(TypeMismatch, IndexKindFunctionHandle, uint32(i))
		}
	}
	return nil
}

// compatibleFunctionTypeParameters requires equal arity and, for each
// aligned pair, the definition's constraints to be a subset of the local
// declaration's — same rationale as the datatype case.
func compatibleFunctionTypeParameters(local, defined []bytecode.AbilitySet) bool {
	if len(local) != len(defined) {
		return false
	}
	for i := range local {
		if !compatibleTypeParameterConstraints(local[i], defined[i]) {
			return false
		}
	}
	return true
}
