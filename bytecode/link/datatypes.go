package link

import "github.com/glyphlang/glyph/bytecode"

// verifyImportedDatatypes is C3: each non-self datatype handle must exist in
// its declared owner module and be ability- and type-parameter-compatible
// with the real definition.
func verifyImportedDatatypes(module *bytecode.CompiledModule, idx *index) *partialError {
	self := module.SelfHandleIdx
	for i, dh := range module.DatatypeHandles {
		if dh.Module == self {
			continue
		}
		ownerID := module.ModuleIdForHandle(module.ModuleHandleAt(dh.Module))
		owner, ok := idx.dependencyMap[ownerID.Normalize()]
		if !ok {
			// C2 guarantees every module handle resolves; this is only
			// reachable if C3 ran before C2, which VerifyModule never does.
			return newVerificationError(LookupFailed, IndexKindDatatypeHandle, uint32(i))
		}
		name := module.IdentifierAt(dh.Name)

		defIdx, ok := idx.datatypeIDToHandle[keyFor(ownerID, name)]
		if !ok {
			return newVerificationError(LookupFailed, IndexKindDatatypeHandle, uint32(i))
		}
		def := owner.DatatypeHandleAt(defIdx)

		if !compatibleDatatypeAbilities(dh.Abilities, def.Abilities) ||
			!compatibleDatatypeTypeParameters(dh.TypeParameters, def.TypeParameters) {
			return newVerificationError(TypeMismatch, IndexKindDatatypeHandle, uint32(i))
		}
	}
	return nil
}

// compatibleDatatypeAbilities: the local view may only drop abilities from
// the definition, never invent new ones. Dropping abilities only restricts
// local usage, so it is always safe.
func compatibleDatatypeAbilities(local, defined bytecode.AbilitySet) bool {
	return local.IsSubset(defined)
}

// compatibleDatatypeTypeParameters requires equal arity, and each aligned
// pair to satisfy both the phantom rule and the constraint rule.
func compatibleDatatypeTypeParameters(local, defined []bytecode.DatatypeTyParameter) bool {
	if len(local) != len(defined) {
		return false
	}
	for i := range local {
		if !compatiblePhantomDecl(local[i], defined[i]) {
			return false
		}
		if !compatibleTypeParameterConstraints(local[i].Constraints, defined[i].Constraints) {
			return false
		}
	}
	return true
}

// compatiblePhantomDecl: marking a parameter phantom locally is only safe if
// the definition agrees it is phantom too. The reverse (definition phantom,
// local not) never fails on phantomness alone.
func compatiblePhantomDecl(local, defined bytecode.DatatypeTyParameter) bool {
	return !local.IsPhantom || defined.IsPhantom
}

// compatibleTypeParameterConstraints: the local view must be at least as
// constrained as the definition, since local code is what imposes
// restrictions on its own clients.
func compatibleTypeParameterConstraints(local, defined bytecode.AbilitySet) bool {
	return defined.IsSubset(local)
}
