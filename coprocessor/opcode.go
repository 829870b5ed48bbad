// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package coprocessor

// opcode tags the operation that produced a handle
type opcode byte

const (
	opTrivialEncrypt opcode = iota + 1
	opVerify
	opAdd
	opSub
	opMul
	opDiv
	opDivScalar
	opLt
	opLe
	opGt
	opGe
	opEq
	opNe
	opAnd
	opOr
	opNot
	opSelect
)
