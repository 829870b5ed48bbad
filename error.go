// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cfmm

import (
	"fmt"
	"strings"
)

// Error codes returned by pool calls
const (
	CodeAborted int32 = iota + 1
	CodeUnauthorized
	CodeInvalidCapability
	CodeInvalidDirection
	CodeNotDeployed
	CodeAlreadyDeployed
)

// Error represents a pool error. Errors with the same code match under
// errors.Is regardless of message.
type Error struct {
	Code    int32
	Message string
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("cfmm error %d: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	// ErrAborted is returned when an encrypted business rule failed. The
	// failing rule is not disclosed.
	ErrAborted = &Error{Code: CodeAborted, Message: "call aborted"}

	ErrUnauthorized      = &Error{Code: CodeUnauthorized, Message: "caller is not the pool owner"}
	ErrInvalidCapability = &Error{Code: CodeInvalidCapability, Message: "invalid re-encryption capability"}
	ErrInvalidDirection  = &Error{Code: CodeInvalidDirection, Message: "invalid swap direction"}
	ErrNotDeployed       = &Error{Code: CodeNotDeployed, Message: "pool is not deployed"}
	ErrAlreadyDeployed   = &Error{Code: CodeAlreadyDeployed, Message: "pool is already deployed"}
)

// Kind names a business rule a call checks under encryption
type Kind uint8

const (
	InvalidAmount Kind = iota + 1
	Overflow
	InsufficientLiquidity
	NothingToWithdraw
	TransferFailed
)

func (k Kind) String() string {
	switch k {
	case InvalidAmount:
		return "InvalidAmount"
	case Overflow:
		return "Overflow"
	case InsufficientLiquidity:
		return "InsufficientLiquidity"
	case NothingToWithdraw:
		return "NothingToWithdraw"
	case TransferFailed:
		return "TransferFailed"
	default:
		return "Unknown"
	}
}

// abortError lists the rules that were checked, which is public
// information, and never which of them failed.
func abortError(kinds []Kind) error {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return &Error{
		Code:    CodeAborted,
		Message: "call aborted, checked " + strings.Join(names, ", "),
	}
}
