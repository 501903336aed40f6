// Package link implements the cross-module dependency verifier: the
// linker-equivalent type-checker that decides whether a freshly decoded
// module's references to other modules are link-compatible with the
// dependencies supplied alongside it.
//
// VerifyModule is a pure function of its inputs. It performs no I/O, holds
// no state between calls, and is safe to call concurrently from multiple
// goroutines against disjoint modules (see the batchlink package, which
// exercises exactly that).
package link

import "github.com/glyphlang/glyph/bytecode"

// VerifyModule checks module against dependencies and returns nil if every
// imported module, datatype, and function link-checks, and (for modules
// older than bytecode.VersionV5) the legacy script-visibility rule holds.
// The first failure encountered, in pass order C2 -> C3 -> C4 -> C5, is
// returned; later passes never run.
func VerifyModule(module *bytecode.CompiledModule, dependencies []*bytecode.CompiledModule) error {
	idx := buildIndex(module, dependencies)

	if err := verifyImportedModules(module, idx); err != nil {
		return err.finish(module.SelfId())
	}
	if err := verifyImportedDatatypes(module, idx); err != nil {
		return err.finish(module.SelfId())
	}
	if err := verifyImportedFunctions(module, idx); err != nil {
		return err.finish(module.SelfId())
	}
	if err := verifyScriptVisibility(module, idx); err != nil {
		return err.finish(module.SelfId())
	}
	return nil
}
