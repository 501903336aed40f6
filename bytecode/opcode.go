package bytecode

// Opcode is one instruction in a function's code unit. The cross-module
// linker only ever inspects Call and CallGeneric (see verifyScriptVisibility in link);
// the rest of the set exists so a function body reads as real code, the
// same way the intra-module verifier this package used to carry treated a
// full instruction set rather than a two-member stub.
type Opcode uint8

const (
	OpNoop Opcode = iota
	OpLdConst
	OpLdTrue
	OpLdFalse
	OpCopyLoc
	OpMoveLoc
	OpStLoc
	OpPop
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe
	OpBranch
	OpBrTrue
	OpBrFalse
	OpCall
	OpCallGeneric
	OpPack
	OpUnpack
	OpPackGeneric
	OpUnpackGeneric
	OpReadRef
	OpWriteRef
	OpFreezeRef
	OpMutBorrowLoc
	OpImmBorrowLoc
	OpMutBorrowField
	OpImmBorrowField
	OpVecPack
	OpVecLen
	OpVecImmBorrow
	OpVecMutBorrow
	OpVecPushBack
	OpVecPopBack
	OpAbort
	OpRet
)

// Instruction is one entry in a function's code unit. Index is only
// meaningful for OpCall (a FunctionHandleIndex) and OpCallGeneric (a
// FunctionInstantiationIndex); every other opcode ignores it.
type Instruction struct {
	Op    Opcode
	Index uint16
}
