package bytecode

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Address identifies an account/package namespace a module is published
// under. It is a plain 32-byte value here; deriving one from a signing key
// is the address package's job, not this one's.
type Address [32]byte

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Identifier is a module, datatype, or function name. Two identifiers name
// the same thing iff their Unicode NFC forms are byte-equal, since the
// source language allows non-ASCII identifiers that the compiler does not
// itself canonicalize. Use Identifier.Equal (or NormalizeIdentifier) rather
// than comparing strings directly anywhere identifiers cross a module
// boundary.
type Identifier string

// Equal reports whether id and other name the same symbol once both are
// normalized to NFC.
func (id Identifier) Equal(other Identifier) bool {
	return NormalizeIdentifier(id) == NormalizeIdentifier(other)
}

// NormalizeIdentifier folds an identifier to Unicode NFC so that two
// differently-composed encodings of the same name compare equal.
func NormalizeIdentifier(id Identifier) Identifier {
	return Identifier(norm.NFC.String(string(id)))
}

// ModuleId globally identifies a module. Equality is structural, over the
// normalized identifier.
type ModuleId struct {
	Address Address
	Name    Identifier
}

func (m ModuleId) Equal(other ModuleId) bool {
	return m.Address == other.Address && m.Name.Equal(other.Name)
}

// Normalize returns m with its Name folded to NFC. A ModuleId used as a map
// key (rather than compared with Equal) must go through this first, since
// Go's built-in struct equality — what a map key lookup uses — compares
// Name byte-for-byte and does not know about Identifier.Equal.
func (m ModuleId) Normalize() ModuleId {
	return ModuleId{Address: m.Address, Name: NormalizeIdentifier(m.Name)}
}

func (m ModuleId) String() string {
	return fmt.Sprintf("%s::%s", m.Address, m.Name)
}

// Table indices. All are small integers assigned by the (external) decoder;
// this package never constructs them from anything but already-decoded data.
type (
	ModuleHandleIndex          uint16
	DatatypeHandleIndex        uint16
	FunctionHandleIndex        uint16
	SignatureIndex             uint16
	IdentifierIndex            uint16
	FunctionDefinitionIndex    uint16
	FunctionInstantiationIndex uint16
	CodeOffset                 uint16
)

// VersionV5 is the bytecode format version that dropped the script/entry
// visibility rule enforced by the legacy visibility pass.
const VersionV5 = 5

// ModuleHandle is an importing module's declaration of another module's
// identity: an address plus a name, the name resolved through the owning
// module's identifier pool.
type ModuleHandle struct {
	Address Address
	Name    IdentifierIndex
}

// Ability is a capability a type may carry, controlling what operations are
// legal on its values.
type Ability uint8

const (
	AbilityCopy Ability = 1 << iota
	AbilityDrop
	AbilityStore
	AbilityKey
)

// AbilitySet is a bitset of Ability. It is the concrete implementation of
// the "ability algebra" consumed by the linker per the spec's external
// interfaces section; IsSubset is its only externally-required operation.
type AbilitySet uint8

func (s AbilitySet) Has(a Ability) bool {
	return s&AbilitySet(a) != 0
}

// IsSubset reports whether every ability in s is also present in other.
func (s AbilitySet) IsSubset(other AbilitySet) bool {
	return s&^other == 0
}

func (s AbilitySet) String() string {
	names := []struct {
		a Ability
		n string
	}{
		{AbilityCopy, "copy"},
		{AbilityDrop, "drop"},
		{AbilityStore, "store"},
		{AbilityKey, "key"},
	}
	out := ""
	for _, nm := range names {
		if s.Has(nm.a) {
			if out != "" {
				out += "+"
			}
			out += nm.n
		}
	}
	if out == "" {
		return "none"
	}
	return out
}

// DatatypeTyParameter is one type parameter on a struct or enum definition.
type DatatypeTyParameter struct {
	Constraints AbilitySet
	IsPhantom   bool
}

// DatatypeHandle is an importing module's declared shape of a struct or
// enum defined elsewhere (or locally, when Module == self handle).
type DatatypeHandle struct {
	Module         ModuleHandleIndex
	Name           IdentifierIndex
	Abilities      AbilitySet
	TypeParameters []DatatypeTyParameter
}

// FunctionHandle is an importing module's declared shape of a function
// defined elsewhere (or locally).
type FunctionHandle struct {
	Module         ModuleHandleIndex
	Name           IdentifierIndex
	Parameters     SignatureIndex
	Return         SignatureIndex
	TypeParameters []AbilitySet
}

// Visibility controls who may call a function across a module boundary.
type Visibility uint8

const (
	VisibilityPrivate Visibility = iota
	VisibilityPublic
	VisibilityFriend
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityFriend:
		return "friend"
	default:
		return "private"
	}
}

// FunctionDefinition is a function actually defined in this module: its
// handle, visibility, whether it is an entry point, and its code (nil for
// natives, which have nothing for the script-visibility pass to walk).
type FunctionDefinition struct {
	Function   FunctionHandleIndex
	Visibility Visibility
	IsEntry    bool
	Code       []Instruction
}

// StructDefinition and EnumDefinition are the two kinds of datatype
// definitions a module may contain.
type StructDefinition struct {
	StructHandle DatatypeHandleIndex
}

type EnumDefinition struct {
	EnumHandle DatatypeHandleIndex
}

// TokenKind tags the variant of a SignatureToken.
type TokenKind uint8

const (
	TokBool TokenKind = iota
	TokU8
	TokU16
	TokU32
	TokU64
	TokU128
	TokU256
	TokAddress
	TokSigner
	TokVector
	TokDatatype
	TokDatatypeInstantiation
	TokReference
	TokMutableReference
	TokTypeParameter
)

// SignatureToken is one element of the type language used in function
// signatures and field types. It is a closed tagged union; which fields are
// meaningful depends on Kind.
type SignatureToken struct {
	Kind TokenKind

	// Vector, Reference, MutableReference.
	Inner *SignatureToken

	// Datatype, DatatypeInstantiation.
	Datatype DatatypeHandleIndex
	TypeArgs []SignatureToken

	// TypeParameter.
	TypeParamIndex uint16
}

func VectorToken(inner SignatureToken) SignatureToken {
	return SignatureToken{Kind: TokVector, Inner: &inner}
}

func DatatypeToken(idx DatatypeHandleIndex) SignatureToken {
	return SignatureToken{Kind: TokDatatype, Datatype: idx}
}

func DatatypeInstantiationToken(idx DatatypeHandleIndex, args []SignatureToken) SignatureToken {
	return SignatureToken{Kind: TokDatatypeInstantiation, Datatype: idx, TypeArgs: args}
}

func ReferenceToken(inner SignatureToken) SignatureToken {
	return SignatureToken{Kind: TokReference, Inner: &inner}
}

func MutableReferenceToken(inner SignatureToken) SignatureToken {
	return SignatureToken{Kind: TokMutableReference, Inner: &inner}
}

func TypeParameterToken(idx uint16) SignatureToken {
	return SignatureToken{Kind: TokTypeParameter, TypeParamIndex: idx}
}

// Signature is a list of tokens: a function's parameters, its returns, or a
// locals/field list.
type Signature struct {
	Tokens []SignatureToken
}

// FunctionInstantiation pairs a generic function handle with the type
// arguments a CallGeneric instantiates it with.
type FunctionInstantiation struct {
	Handle        FunctionHandleIndex
	TypeArguments SignatureIndex
}

// CompiledModule is the decoded form the linker consumes. Every table is
// random-access by the small integer index types above; decoding raw bytes
// into this shape is explicitly someone else's job (see the modstore
// package's Decoder hook).
type CompiledModule struct {
	Address       Address
	Name          Identifier
	SelfHandleIdx ModuleHandleIndex
	Version       uint32

	ModuleHandles   []ModuleHandle
	DatatypeHandles []DatatypeHandle
	FunctionHandles []FunctionHandle
	StructDefs      []StructDefinition
	EnumDefs        []EnumDefinition
	FunctionDefs    []FunctionDefinition
	Signatures      []Signature
	Identifiers     []Identifier

	FunctionInstantiations []FunctionInstantiation

	// Friends lists the modules explicitly declared as friends of this
	// module (callers allowed to invoke its Friend-visibility functions).
	Friends []ModuleHandle
}

func (m *CompiledModule) SelfId() ModuleId {
	return ModuleId{Address: m.Address, Name: m.Name}
}

func (m *CompiledModule) ModuleHandleAt(i ModuleHandleIndex) ModuleHandle {
	return m.ModuleHandles[i]
}

func (m *CompiledModule) ModuleIdForHandle(h ModuleHandle) ModuleId {
	return ModuleId{Address: h.Address, Name: m.IdentifierAt(h.Name)}
}

func (m *CompiledModule) IdentifierAt(i IdentifierIndex) Identifier {
	return m.Identifiers[i]
}

func (m *CompiledModule) SignatureAt(i SignatureIndex) Signature {
	return m.Signatures[i]
}

func (m *CompiledModule) DatatypeHandleAt(i DatatypeHandleIndex) DatatypeHandle {
	return m.DatatypeHandles[i]
}

func (m *CompiledModule) FunctionHandleAt(i FunctionHandleIndex) FunctionHandle {
	return m.FunctionHandles[i]
}

func (m *CompiledModule) FunctionInstantiationAt(i FunctionInstantiationIndex) FunctionInstantiation {
	return m.FunctionInstantiations[i]
}

// ImmediateFriends returns the set of module ids this module has declared
// as friends, resolved through its own identifier pool. Keys are
// normalized so a caller can look one up with a plain map index rather
// than a linear Equal scan.
func (m *CompiledModule) ImmediateFriends() map[ModuleId]struct{} {
	out := make(map[ModuleId]struct{}, len(m.Friends))
	for _, fh := range m.Friends {
		out[m.ModuleIdForHandle(fh).Normalize()] = struct{}{}
	}
	return out
}
