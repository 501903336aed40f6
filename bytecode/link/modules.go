package link

import "github.com/glyphlang/glyph/bytecode"

// verifyImportedModules is C2: every non-self module handle must resolve to
// a supplied dependency.
func verifyImportedModules(module *bytecode.CompiledModule, idx *index) *partialError {
	self := module.SelfHandleIdx
	for i, mh := range module.ModuleHandles {
		if bytecode.ModuleHandleIndex(i) == self {
			continue
		}
		id := module.ModuleIdForHandle(mh)
		if _, ok := idx.dependencyMap[id.Normalize()]; !ok {
			return newVerificationError(MissingDependency, IndexKindModuleHandle, uint32(i))
		}
	}
	return nil
}
