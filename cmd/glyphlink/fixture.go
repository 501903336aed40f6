package main

import (
	"encoding/hex"
	"fmt"

	"github.com/glyphlang/glyph/bytecode"
)

// yamlModule is the on-disk shape of a module fixture: a direct mirror of
// bytecode.CompiledModule's tables, index-for-index, so what a fixture
// author writes is exactly what the linker sees — no separate resolution
// pass to get wrong.
type yamlModule struct {
	Address    string `yaml:"address"`
	Name       string `yaml:"name"`
	SelfHandle uint16 `yaml:"self_handle"`
	Version    uint32 `yaml:"version"`

	Identifiers            []string                 `yaml:"identifiers"`
	ModuleHandles          []yamlModuleHandle       `yaml:"module_handles"`
	DatatypeHandles        []yamlDatatypeHandle     `yaml:"datatype_handles"`
	FunctionHandles        []yamlFunctionHandle     `yaml:"function_handles"`
	StructDefs             []yamlStructDef          `yaml:"struct_defs"`
	EnumDefs               []yamlEnumDef            `yaml:"enum_defs"`
	FunctionDefs           []yamlFunctionDef        `yaml:"function_defs"`
	Signatures             [][]yamlToken            `yaml:"signatures"`
	FunctionInstantiations []yamlFunctionInst       `yaml:"function_instantiations"`
	Friends                []yamlModuleHandle       `yaml:"friends"`
}

type yamlModuleHandle struct {
	Address string `yaml:"address"`
	Name    uint16 `yaml:"name"`
}

type yamlTyParam struct {
	Constraints []string `yaml:"constraints"`
	Phantom     bool     `yaml:"phantom"`
}

type yamlDatatypeHandle struct {
	Module         uint16        `yaml:"module"`
	Name           uint16        `yaml:"name"`
	Abilities      []string      `yaml:"abilities"`
	TypeParameters []yamlTyParam `yaml:"type_parameters"`
}

type yamlFunctionHandle struct {
	Module         uint16     `yaml:"module"`
	Name           uint16     `yaml:"name"`
	Parameters     uint16     `yaml:"parameters"`
	Return         uint16     `yaml:"return"`
	TypeParameters [][]string `yaml:"type_parameters"`
}

type yamlStructDef struct {
	StructHandle uint16 `yaml:"struct_handle"`
}

type yamlEnumDef struct {
	EnumHandle uint16 `yaml:"enum_handle"`
}

type yamlInstruction struct {
	Op    string `yaml:"op"`
	Index uint16 `yaml:"index"`
}

type yamlFunctionDef struct {
	Function   uint16            `yaml:"function"`
	Visibility string            `yaml:"visibility"`
	IsEntry    bool              `yaml:"is_entry"`
	Code       []yamlInstruction `yaml:"code"`
}

type yamlFunctionInst struct {
	Handle        uint16 `yaml:"handle"`
	TypeArguments uint16 `yaml:"type_arguments"`
}

// yamlToken is a signature token. Kind picks which of the remaining fields
// apply; Inner/TypeArgs hold nested tokens for vector/reference/datatype
// instantiation kinds.
type yamlToken struct {
	Kind           string      `yaml:"kind"`
	Inner          *yamlToken  `yaml:"inner,omitempty"`
	Datatype       uint16      `yaml:"datatype,omitempty"`
	TypeArgs       []yamlToken `yaml:"type_args,omitempty"`
	TypeParamIndex uint16      `yaml:"type_param_index,omitempty"`
}

func (m *yamlModule) toCompiledModule() (*bytecode.CompiledModule, error) {
	addr, err := parseAddress(m.Address)
	if err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}

	out := &bytecode.CompiledModule{
		Address:       addr,
		Name:          bytecode.Identifier(m.Name),
		SelfHandleIdx: bytecode.ModuleHandleIndex(m.SelfHandle),
		Version:       m.Version,
	}

	for _, id := range m.Identifiers {
		out.Identifiers = append(out.Identifiers, bytecode.Identifier(id))
	}

	for _, mh := range m.ModuleHandles {
		a, err := parseAddress(mh.Address)
		if err != nil {
			return nil, fmt.Errorf("module_handles: %w", err)
		}
		out.ModuleHandles = append(out.ModuleHandles, bytecode.ModuleHandle{
			Address: a,
			Name:    bytecode.IdentifierIndex(mh.Name),
		})
	}

	for _, dh := range m.DatatypeHandles {
		abilities, err := parseAbilitySet(dh.Abilities)
		if err != nil {
			return nil, fmt.Errorf("datatype_handles: %w", err)
		}
		var tyParams []bytecode.DatatypeTyParameter
		for _, tp := range dh.TypeParameters {
			constraints, err := parseAbilitySet(tp.Constraints)
			if err != nil {
				return nil, fmt.Errorf("datatype_handles type_parameters: %w", err)
			}
			tyParams = append(tyParams, bytecode.DatatypeTyParameter{
				Constraints: constraints,
				IsPhantom:   tp.Phantom,
			})
		}
		out.DatatypeHandles = append(out.DatatypeHandles, bytecode.DatatypeHandle{
			Module:         bytecode.ModuleHandleIndex(dh.Module),
			Name:           bytecode.IdentifierIndex(dh.Name),
			Abilities:      abilities,
			TypeParameters: tyParams,
		})
	}

	for _, fh := range m.FunctionHandles {
		var tyParams []bytecode.AbilitySet
		for _, constraints := range fh.TypeParameters {
			set, err := parseAbilitySet(constraints)
			if err != nil {
				return nil, fmt.Errorf("function_handles type_parameters: %w", err)
			}
			tyParams = append(tyParams, set)
		}
		out.FunctionHandles = append(out.FunctionHandles, bytecode.FunctionHandle{
			Module:         bytecode.ModuleHandleIndex(fh.Module),
			Name:           bytecode.IdentifierIndex(fh.Name),
			Parameters:     bytecode.SignatureIndex(fh.Parameters),
			Return:         bytecode.SignatureIndex(fh.Return),
			TypeParameters: tyParams,
		})
	}

	for _, sd := range m.StructDefs {
		out.StructDefs = append(out.StructDefs, bytecode.StructDefinition{StructHandle: bytecode.DatatypeHandleIndex(sd.StructHandle)})
	}
	for _, ed := range m.EnumDefs {
		out.EnumDefs = append(out.EnumDefs, bytecode.EnumDefinition{EnumHandle: bytecode.DatatypeHandleIndex(ed.EnumHandle)})
	}

	for _, sig := range m.Signatures {
		tokens := make([]bytecode.SignatureToken, 0, len(sig))
		for _, t := range sig {
			tok, err := t.toToken()
			if err != nil {
				return nil, fmt.Errorf("signatures: %w", err)
			}
			tokens = append(tokens, tok)
		}
		out.Signatures = append(out.Signatures, bytecode.Signature{Tokens: tokens})
	}

	for _, fd := range m.FunctionDefs {
		vis, err := parseVisibility(fd.Visibility)
		if err != nil {
			return nil, fmt.Errorf("function_defs: %w", err)
		}
		code := make([]bytecode.Instruction, 0, len(fd.Code))
		for _, ins := range fd.Code {
			op, err := parseOpcode(ins.Op)
			if err != nil {
				return nil, fmt.Errorf("function_defs code: %w", err)
			}
			code = append(code, bytecode.Instruction{Op: op, Index: ins.Index})
		}
		out.FunctionDefs = append(out.FunctionDefs, bytecode.FunctionDefinition{
			Function:   bytecode.FunctionHandleIndex(fd.Function),
			Visibility: vis,
			IsEntry:    fd.IsEntry,
			Code:       code,
		})
	}

	for _, fi := range m.FunctionInstantiations {
		out.FunctionInstantiations = append(out.FunctionInstantiations, bytecode.FunctionInstantiation{
			Handle:        bytecode.FunctionHandleIndex(fi.Handle),
			TypeArguments: bytecode.SignatureIndex(fi.TypeArguments),
		})
	}

	for _, f := range m.Friends {
		a, err := parseAddress(f.Address)
		if err != nil {
			return nil, fmt.Errorf("friends: %w", err)
		}
		out.Friends = append(out.Friends, bytecode.ModuleHandle{Address: a, Name: bytecode.IdentifierIndex(f.Name)})
	}

	return out, nil
}

func (t yamlToken) toToken() (bytecode.SignatureToken, error) {
	switch t.Kind {
	case "bool":
		return bytecode.SignatureToken{Kind: bytecode.TokBool}, nil
	case "u8":
		return bytecode.SignatureToken{Kind: bytecode.TokU8}, nil
	case "u16":
		return bytecode.SignatureToken{Kind: bytecode.TokU16}, nil
	case "u32":
		return bytecode.SignatureToken{Kind: bytecode.TokU32}, nil
	case "u64":
		return bytecode.SignatureToken{Kind: bytecode.TokU64}, nil
	case "u128":
		return bytecode.SignatureToken{Kind: bytecode.TokU128}, nil
	case "u256":
		return bytecode.SignatureToken{Kind: bytecode.TokU256}, nil
	case "address":
		return bytecode.SignatureToken{Kind: bytecode.TokAddress}, nil
	case "signer":
		return bytecode.SignatureToken{Kind: bytecode.TokSigner}, nil
	case "vector":
		if t.Inner == nil {
			return bytecode.SignatureToken{}, fmt.Errorf("vector token missing inner")
		}
		inner, err := t.Inner.toToken()
		if err != nil {
			return bytecode.SignatureToken{}, err
		}
		return bytecode.VectorToken(inner), nil
	case "datatype":
		return bytecode.DatatypeToken(bytecode.DatatypeHandleIndex(t.Datatype)), nil
	case "datatype_instantiation":
		args := make([]bytecode.SignatureToken, 0, len(t.TypeArgs))
		for _, a := range t.TypeArgs {
			tok, err := a.toToken()
			if err != nil {
				return bytecode.SignatureToken{}, err
			}
			args = append(args, tok)
		}
		return bytecode.DatatypeInstantiationToken(bytecode.DatatypeHandleIndex(t.Datatype), args), nil
	case "reference":
		if t.Inner == nil {
			return bytecode.SignatureToken{}, fmt.Errorf("reference token missing inner")
		}
		inner, err := t.Inner.toToken()
		if err != nil {
			return bytecode.SignatureToken{}, err
		}
		return bytecode.ReferenceToken(inner), nil
	case "mutable_reference":
		if t.Inner == nil {
			return bytecode.SignatureToken{}, fmt.Errorf("mutable_reference token missing inner")
		}
		inner, err := t.Inner.toToken()
		if err != nil {
			return bytecode.SignatureToken{}, err
		}
		return bytecode.MutableReferenceToken(inner), nil
	case "type_parameter":
		return bytecode.TypeParameterToken(t.TypeParamIndex), nil
	default:
		return bytecode.SignatureToken{}, fmt.Errorf("unknown token kind %q", t.Kind)
	}
}

func parseAddress(s string) (bytecode.Address, error) {
	var out bytecode.Address
	if s == "" {
		return out, nil
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("invalid hex address %q: %w", s, err)
	}
	if len(raw) > len(out) {
		return out, fmt.Errorf("address %q too long: %d bytes", s, len(raw))
	}
	copy(out[len(out)-len(raw):], raw)
	return out, nil
}

func parseAbilitySet(names []string) (bytecode.AbilitySet, error) {
	var out bytecode.AbilitySet
	for _, n := range names {
		switch n {
		case "copy":
			out |= bytecode.AbilitySet(bytecode.AbilityCopy)
		case "drop":
			out |= bytecode.AbilitySet(bytecode.AbilityDrop)
		case "store":
			out |= bytecode.AbilitySet(bytecode.AbilityStore)
		case "key":
			out |= bytecode.AbilitySet(bytecode.AbilityKey)
		default:
			return 0, fmt.Errorf("unknown ability %q", n)
		}
	}
	return out, nil
}

func parseVisibility(s string) (bytecode.Visibility, error) {
	switch s {
	case "", "private":
		return bytecode.VisibilityPrivate, nil
	case "public":
		return bytecode.VisibilityPublic, nil
	case "friend":
		return bytecode.VisibilityFriend, nil
	default:
		return 0, fmt.Errorf("unknown visibility %q", s)
	}
}

func parseOpcode(s string) (bytecode.Opcode, error) {
	switch s {
	case "call":
		return bytecode.OpCall, nil
	case "call_generic":
		return bytecode.OpCallGeneric, nil
	default:
		return bytecode.OpNoop, fmt.Errorf("unknown opcode %q (only call/call_generic matter to this tool)", s)
	}
}
