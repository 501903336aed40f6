package link

import (
	"github.com/glyphlang/glyph/bytecode"
)

// depKey is the map key for an (owning module, name) pair, both normalized
// — used for both datatype and function lookups against a dependency.
// Every bytecode.ModuleId stored or looked up as a map key anywhere in this
// package goes through ModuleId.Normalize first, since struct equality (what
// a map index uses) compares Name byte-for-byte rather than via
// Identifier.Equal.
type depKey struct {
	module bytecode.ModuleId
	name   bytecode.Identifier
}

func keyFor(id bytecode.ModuleId, name bytecode.Identifier) depKey {
	return depKey{module: id.Normalize(), name: bytecode.NormalizeIdentifier(name)}
}

// visEntry is what C1 remembers about a dependency's function definition
// before deciding whether this module is even allowed to call it.
type visEntry struct {
	visibility bytecode.Visibility
	isEntry    bool
}

// index is the linking index (C1): the set of lookup tables built once
// from the module under verification and its dependencies, then held
// immutable for the remainder of a single verify call.
type index struct {
	self bytecode.ModuleId

	// dependencyMap excludes self and is deduplicated by id (last one in
	// wins on a duplicate — the spec is silent on this case and either
	// resolution is acceptable). Keyed by ModuleId.Normalize(); every
	// lookup must normalize its key the same way.
	dependencyMap map[bytecode.ModuleId]*bytecode.CompiledModule

	datatypeIDToHandle map[depKey]bytecode.DatatypeHandleIndex
	funcIDToHandle     map[depKey]bytecode.FunctionHandleIndex

	functionVisibilities map[bytecode.FunctionHandleIndex]bytecode.Visibility

	// scriptFunctions is nil when the module is V5+; a non-nil (possibly
	// empty) set otherwise.
	scriptFunctions    map[bytecode.FunctionHandleIndex]struct{}
	hasScriptFunctions bool
}

// buildIndex constructs the linking index per §4.1. It never fails: any
// missing or malformed dependency surfaces later, as a LOOKUP_FAILED or
// MISSING_DEPENDENCY from the passes that actually need the data.
func buildIndex(module *bytecode.CompiledModule, dependencies []*bytecode.CompiledModule) *index {
	self := module.SelfId()

	idx := &index{
		self:                 self,
		dependencyMap:        make(map[bytecode.ModuleId]*bytecode.CompiledModule),
		datatypeIDToHandle:   make(map[depKey]bytecode.DatatypeHandleIndex),
		funcIDToHandle:       make(map[depKey]bytecode.FunctionHandleIndex),
		functionVisibilities: make(map[bytecode.FunctionHandleIndex]bytecode.Visibility),
	}
	if module.Version < bytecode.VersionV5 {
		idx.scriptFunctions = make(map[bytecode.FunctionHandleIndex]struct{})
		idx.hasScriptFunctions = true
	}

	for _, dep := range dependencies {
		depID := dep.SelfId()
		if depID.Equal(self) {
			continue
		}
		idx.dependencyMap[depID.Normalize()] = dep
	}

	// depVisibilities is the local, per-dependency view described in step 2
	// of §4.1; it never outlives this function.
	depVisibilities := make(map[depKey]visEntry)

	for depID, dep := range idx.dependencyMap {
		friends := dep.ImmediateFriends()

		for _, sd := range dep.StructDefs {
			h := dep.DatatypeHandleAt(sd.StructHandle)
			name := dep.IdentifierAt(h.Name)
			idx.datatypeIDToHandle[keyFor(depID, name)] = sd.StructHandle
		}
		for _, ed := range dep.EnumDefs {
			h := dep.DatatypeHandleAt(ed.EnumHandle)
			name := dep.IdentifierAt(h.Name)
			idx.datatypeIDToHandle[keyFor(depID, name)] = ed.EnumHandle
		}

		for _, fd := range dep.FunctionDefs {
			fh := dep.FunctionHandleAt(fd.Function)
			name := dep.IdentifierAt(fh.Name)
			k := keyFor(depID, name)
			depVisibilities[k] = visEntry{visibility: fd.Visibility, isEntry: fd.IsEntry}

			mayBeCalled := false
			switch fd.Visibility {
			case bytecode.VisibilityPublic:
				mayBeCalled = true
			case bytecode.VisibilityFriend:
				_, mayBeCalled = friends[self.Normalize()]
			case bytecode.VisibilityPrivate:
				mayBeCalled = false
			}
			if mayBeCalled {
				idx.funcIDToHandle[k] = fd.Function
			}
		}
	}

	for _, fd := range module.FunctionDefs {
		idx.functionVisibilities[fd.Function] = fd.Visibility
		if fd.IsEntry && idx.hasScriptFunctions {
			idx.scriptFunctions[fd.Function] = struct{}{}
		}
	}

	selfHandleIdx := module.SelfHandleIdx
	for i, fh := range module.FunctionHandles {
		if fh.Module == selfHandleIdx {
			continue
		}
		depID := module.ModuleIdForHandle(module.ModuleHandleAt(fh.Module))
		name := module.IdentifierAt(fh.Name)
		dep, ok := idx.dependencyMap[depID.Normalize()]
		if !ok {
			// Reported as a missing dependency by the module-import pass.
			continue
		}
		entry, ok := depVisibilities[keyFor(depID, name)]
		if !ok {
			// Reported as a missing link by the function-import pass.
			continue
		}
		handleIdx := bytecode.FunctionHandleIndex(i)
		idx.functionVisibilities[handleIdx] = entry.visibility
		if dep.Version < bytecode.VersionV5 && entry.isEntry && idx.hasScriptFunctions {
			idx.scriptFunctions[handleIdx] = struct{}{}
		}
	}

	return idx
}
