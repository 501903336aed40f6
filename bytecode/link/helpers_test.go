package link_test

import "github.com/glyphlang/glyph/bytecode"

// moduleBuilder is test-only scaffolding for constructing small
// CompiledModule fixtures without hand-indexing every table. A real decoder
// would produce these from bytes; this package never sees that step.
type moduleBuilder struct {
	m           *bytecode.CompiledModule
	identifiers map[string]bytecode.IdentifierIndex
}

func addrOf(b byte) bytecode.Address {
	var a bytecode.Address
	a[0] = b
	return a
}

func newModule(address bytecode.Address, name string, version uint32) *moduleBuilder {
	b := &moduleBuilder{
		m: &bytecode.CompiledModule{
			Address: address,
			Version: version,
		},
		identifiers: make(map[string]bytecode.IdentifierIndex),
	}
	b.m.Name = bytecode.Identifier(name)
	selfNameIdx := b.identifier(name)
	b.m.ModuleHandles = append(b.m.ModuleHandles, bytecode.ModuleHandle{Address: address, Name: selfNameIdx})
	b.m.SelfHandleIdx = 0
	return b
}

func (b *moduleBuilder) identifier(name string) bytecode.IdentifierIndex {
	if idx, ok := b.identifiers[name]; ok {
		return idx
	}
	idx := bytecode.IdentifierIndex(len(b.m.Identifiers))
	b.m.Identifiers = append(b.m.Identifiers, bytecode.Identifier(name))
	b.identifiers[name] = idx
	return idx
}

// moduleHandle returns the index of a (possibly new) handle to the module
// named `name` at `address`. Call with the builder's own address/name to
// get back the self handle.
func (b *moduleBuilder) moduleHandle(address bytecode.Address, name string) bytecode.ModuleHandleIndex {
	nameIdx := b.identifier(name)
	for i, mh := range b.m.ModuleHandles {
		if mh.Address == address && mh.Name == nameIdx {
			return bytecode.ModuleHandleIndex(i)
		}
	}
	idx := bytecode.ModuleHandleIndex(len(b.m.ModuleHandles))
	b.m.ModuleHandles = append(b.m.ModuleHandles, bytecode.ModuleHandle{Address: address, Name: nameIdx})
	return idx
}

func (b *moduleBuilder) signature(tokens ...bytecode.SignatureToken) bytecode.SignatureIndex {
	idx := bytecode.SignatureIndex(len(b.m.Signatures))
	b.m.Signatures = append(b.m.Signatures, bytecode.Signature{Tokens: tokens})
	return idx
}

func (b *moduleBuilder) datatypeHandle(owner bytecode.ModuleHandleIndex, name string, abilities bytecode.AbilitySet, tyParams ...bytecode.DatatypeTyParameter) bytecode.DatatypeHandleIndex {
	idx := bytecode.DatatypeHandleIndex(len(b.m.DatatypeHandles))
	b.m.DatatypeHandles = append(b.m.DatatypeHandles, bytecode.DatatypeHandle{
		Module:         owner,
		Name:           b.identifier(name),
		Abilities:      abilities,
		TypeParameters: tyParams,
	})
	return idx
}

func (b *moduleBuilder) structDef(handle bytecode.DatatypeHandleIndex) {
	b.m.StructDefs = append(b.m.StructDefs, bytecode.StructDefinition{StructHandle: handle})
}

func (b *moduleBuilder) functionHandle(owner bytecode.ModuleHandleIndex, name string, params, ret bytecode.SignatureIndex, tyParams ...bytecode.AbilitySet) bytecode.FunctionHandleIndex {
	idx := bytecode.FunctionHandleIndex(len(b.m.FunctionHandles))
	b.m.FunctionHandles = append(b.m.FunctionHandles, bytecode.FunctionHandle{
		Module:         owner,
		Name:           b.identifier(name),
		Parameters:     params,
		Return:         ret,
		TypeParameters: tyParams,
	})
	return idx
}

func (b *moduleBuilder) functionDef(handle bytecode.FunctionHandleIndex, vis bytecode.Visibility, isEntry bool, code ...bytecode.Instruction) bytecode.FunctionDefinitionIndex {
	idx := bytecode.FunctionDefinitionIndex(len(b.m.FunctionDefs))
	b.m.FunctionDefs = append(b.m.FunctionDefs, bytecode.FunctionDefinition{
		Function:   handle,
		Visibility: vis,
		IsEntry:    isEntry,
		Code:       code,
	})
	return idx
}

func (b *moduleBuilder) functionInstantiation(handle bytecode.FunctionHandleIndex, typeArgs bytecode.SignatureIndex) bytecode.FunctionInstantiationIndex {
	idx := bytecode.FunctionInstantiationIndex(len(b.m.FunctionInstantiations))
	b.m.FunctionInstantiations = append(b.m.FunctionInstantiations, bytecode.FunctionInstantiation{
		Handle:        handle,
		TypeArguments: typeArgs,
	})
	return idx
}

func (b *moduleBuilder) friend(address bytecode.Address, name string) {
	b.m.Friends = append(b.m.Friends, bytecode.ModuleHandle{Address: address, Name: b.identifier(name)})
}

func (b *moduleBuilder) build() *bytecode.CompiledModule {
	return b.m
}
