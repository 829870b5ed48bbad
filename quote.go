// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cfmm

// Quote is the plaintext outcome of a swap
type Quote struct {
	ReserveIn  int32
	ReserveOut int32
	GrossOut   int32
	Fee        int32
	NetOut     int32
}

// QuoteSwap prices a swap in plaintext with the same rules and truncation as
// Swap. Unlike Swap, a rejected trade reports the rule that failed.
func QuoteSwap(reserveIn, reserveOut, amountIn int32) (Quote, error) {
	if reserveIn < 0 || reserveOut < 0 {
		return Quote{}, abortError([]Kind{InsufficientLiquidity})
	}
	if amountIn <= 0 {
		return Quote{}, abortError([]Kind{InvalidAmount})
	}
	newIn, err := AddInt32(reserveIn, amountIn)
	if err != nil {
		return Quote{}, abortError([]Kind{Overflow})
	}
	k, err := MulInt32(reserveIn, reserveOut)
	if err != nil {
		return Quote{}, abortError([]Kind{Overflow})
	}

	// every operand is non-negative, so / already rounds down
	newOut := k / newIn
	gross := reserveOut - newOut
	if newOut < 1 || gross < 1 {
		return Quote{}, abortError([]Kind{InsufficientLiquidity})
	}
	fee := gross / FeeDivisor
	return Quote{
		ReserveIn:  newIn,
		ReserveOut: newOut,
		GrossOut:   gross,
		Fee:        fee,
		NetOut:     gross - fee,
	}, nil
}
