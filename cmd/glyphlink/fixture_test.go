package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glyphlang/glyph/bytecode"
)

func TestDecodeModuleYAMLSelfContained(t *testing.T) {
	raw := []byte(`
address: "01"
name: M
self_handle: 0
version: 6
identifiers: [M, S, f]
module_handles:
  - {address: "01", name: 0}
datatype_handles:
  - {module: 0, name: 1, abilities: [copy, drop]}
struct_defs:
  - {struct_handle: 0}
function_handles:
  - {module: 0, name: 2, parameters: 0, return: 0}
function_defs:
  - {function: 0, visibility: public, is_entry: false}
signatures:
  - []
`)
	m, err := decodeModuleYAML(raw)
	require.NoError(t, err)
	require.Equal(t, bytecode.Identifier("M"), m.Name)
	require.Len(t, m.DatatypeHandles, 1)
	require.True(t, m.DatatypeHandles[0].Abilities.Has(bytecode.AbilityCopy))
	require.True(t, m.DatatypeHandles[0].Abilities.Has(bytecode.AbilityDrop))
	require.Equal(t, bytecode.VisibilityPublic, m.FunctionDefs[0].Visibility)
}

func TestDecodeModuleYAMLWithReferenceToken(t *testing.T) {
	raw := []byte(`
address: "02"
name: N
self_handle: 0
version: 6
identifiers: [N, f]
module_handles:
  - {address: "02", name: 0}
function_handles:
  - {module: 0, name: 1, parameters: 0, return: 1}
signatures:
  - []
  - - kind: mutable_reference
      inner:
        kind: u64
function_defs:
  - {function: 0, visibility: private, is_entry: false}
`)
	m, err := decodeModuleYAML(raw)
	require.NoError(t, err)
	require.Len(t, m.Signatures[1].Tokens, 1)
	tok := m.Signatures[1].Tokens[0]
	require.Equal(t, bytecode.TokMutableReference, tok.Kind)
	require.NotNil(t, tok.Inner)
	require.Equal(t, bytecode.TokU64, tok.Inner.Kind)
}

func TestDecodeModuleYAMLRejectsBadAddress(t *testing.T) {
	_, err := decodeModuleYAML([]byte(`
address: "zz"
name: M
`))
	require.Error(t, err)
}

func TestDecodeModuleYAMLRejectsUnknownAbility(t *testing.T) {
	_, err := decodeModuleYAML([]byte(`
address: "01"
name: M
datatype_handles:
  - {module: 0, name: 0, abilities: [flies]}
`))
	require.Error(t, err)
}
