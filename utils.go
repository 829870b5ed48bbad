// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package cfmm

import (
	"errors"
	"math"
)

var (
	errAddOverflow = errors.New("addition would overflow int32")
	errMulOverflow = errors.New("multiplication would overflow int32")
)

// AddInt32 adds two non-negative int32 values and returns an error on overflow
func AddInt32(a, b int32) (int32, error) {
	if a > math.MaxInt32-b {
		return 0, errAddOverflow
	}
	return a + b, nil
}

// MulInt32 multiplies two non-negative int32 values and returns an error on
// overflow
func MulInt32(a, b int32) (int32, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > math.MaxInt32/b {
		return 0, errMulOverflow
	}
	return a * b, nil
}
