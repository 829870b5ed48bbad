// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cfmm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSwap(t *testing.T) {
	tests := []struct {
		name             string
		dir              Direction
		amountIn         int32
		expectedReserveA int32
		expectedReserveB int32
		expectedFeeA     int32
		expectedFeeB     int32
		expectedNetOut   int32
	}{
		{
			name:             "A to B",
			dir:              AToB,
			amountIn:         1000,
			expectedReserveA: 11000,
			expectedReserveB: 909,
			expectedFeeB:     4,
			expectedNetOut:   87,
		},
		{
			name:             "B to A",
			dir:              BToA,
			amountIn:         20,
			expectedReserveA: 9803,
			expectedReserveB: 1020,
			expectedFeeA:     9,
			expectedNetOut:   188,
		},
		{
			name:             "drain to one unit",
			dir:              AToB,
			amountIn:         10000*1000 - 10000,
			expectedReserveA: 10_000_000,
			expectedReserveB: 1,
			expectedFeeB:     49,
			expectedNetOut:   950,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			env := newTestEnv(t)
			require.NoError(env.addLiquidity(t, env.alice, 10000, 1000))

			in, out := tt.dir.Assets()
			trader := env.bob
			if tt.amountIn > 100000 {
				trader = env.alice
			}
			inBefore := env.balance(t, trader, env.token(in))
			outBefore := env.balance(t, trader, env.token(out))

			netOut, err := env.swap(t, trader, tt.dir, tt.amountIn)
			require.NoError(err)
			require.Equal(tt.expectedNetOut, env.decrypt(t, netOut))

			reserveA, reserveB := env.reserves(t)
			require.Equal(tt.expectedReserveA, reserveA)
			require.Equal(tt.expectedReserveB, reserveB)
			feeA, feeB := env.fees(t)
			require.Equal(tt.expectedFeeA, feeA)
			require.Equal(tt.expectedFeeB, feeB)

			require.Equal(inBefore-tt.amountIn, env.balance(t, trader, env.token(in)))
			require.Equal(outBefore+tt.expectedNetOut, env.balance(t, trader, env.token(out)))
		})
	}
}

func TestSwapAborts(t *testing.T) {
	tests := []struct {
		name      string
		liquidity bool
		dir       Direction
		amountIn  int32
		approve   int32
	}{
		{
			name:      "zero amount",
			liquidity: true,
			amountIn:  0,
		},
		{
			name:      "negative amount",
			liquidity: true,
			dir:       BToA,
			amountIn:  -1,
		},
		{
			name:     "empty pool",
			amountIn: 10,
		},
		{
			name:      "not approved",
			liquidity: true,
			amountIn:  1000,
			approve:   999,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			env := newTestEnv(t)
			var seedA, seedB int32
			if tt.liquidity {
				seedA, seedB = 10000, 1000
				require.NoError(env.addLiquidity(t, env.alice, seedA, seedB))
			}

			in, _ := tt.dir.Assets()
			approve := tt.amountIn
			if tt.approve != 0 {
				approve = tt.approve
			}
			env.approve(t, env.bob, env.token(in), approve)
			_, err := env.pool.Swap(env.state, env.bob.addr(), tt.dir, env.encrypt(t, tt.amountIn))
			require.ErrorIs(err, ErrAborted)

			reserveA, reserveB := env.reserves(t)
			require.Equal(seedA, reserveA)
			require.Equal(seedB, reserveB)
			feeA, feeB := env.fees(t)
			require.Zero(feeA)
			require.Zero(feeB)
			require.Equal(int32(100000), env.balance(t, env.bob, env.tokenA))
			require.Equal(int32(100000), env.balance(t, env.bob, env.tokenB))
		})
	}
}

func TestSwapDrainOneMoreUnitAborts(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	require.NoError(env.addLiquidity(t, env.alice, 10000, 1000))

	_, err := env.swap(t, env.alice, AToB, 10000*1000-10000+1)
	require.ErrorIs(err, ErrAborted)

	reserveA, reserveB := env.reserves(t)
	require.Equal(int32(10000), reserveA)
	require.Equal(int32(1000), reserveB)
}

func TestSwapInvalidDirection(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.pool.Swap(env.state, env.bob.addr(), Direction(7), env.encrypt(t, 1))
	require.ErrorIs(t, err, ErrInvalidDirection)

	_, err = ParseDirection("sideways")
	require.ErrorIs(t, err, ErrInvalidDirection)
	dir, err := ParseDirection("BtoA")
	require.NoError(t, err)
	require.Equal(t, BToA, dir)
}

func TestSwapConfidential(t *testing.T) {
	tests := []struct {
		name             string
		isAToB           bool
		amountIn         int32
		expectedReserveA int32
		expectedReserveB int32
		expectedFeeA     int32
		expectedFeeB     int32
		expectedOutA     int32
		expectedOutB     int32
	}{
		{
			name:             "A to B",
			isAToB:           true,
			amountIn:         1000,
			expectedReserveA: 11000,
			expectedReserveB: 909,
			expectedFeeB:     4,
			expectedOutB:     87,
		},
		{
			name:             "B to A",
			isAToB:           false,
			amountIn:         20,
			expectedReserveA: 9803,
			expectedReserveB: 1020,
			expectedFeeA:     9,
			expectedOutA:     188,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			env := newTestEnv(t)
			require.NoError(env.addLiquidity(t, env.alice, 10000, 1000))

			// the trader approves the input side only
			in := env.tokenB
			if tt.isAToB {
				in = env.tokenA
			}
			env.approve(t, env.bob, in, tt.amountIn)

			outA, outB, err := env.pool.SwapConfidential(
				env.state,
				env.bob.addr(),
				env.encryptBool(t, tt.isAToB),
				env.encrypt(t, tt.amountIn),
			)
			require.NoError(err)
			require.Equal(tt.expectedOutA, env.decrypt(t, outA))
			require.Equal(tt.expectedOutB, env.decrypt(t, outB))

			reserveA, reserveB := env.reserves(t)
			require.Equal(tt.expectedReserveA, reserveA)
			require.Equal(tt.expectedReserveB, reserveB)
			feeA, feeB := env.fees(t)
			require.Equal(tt.expectedFeeA, feeA)
			require.Equal(tt.expectedFeeB, feeB)
		})
	}
}

func TestSwapConfidentialAborts(t *testing.T) {
	require := require.New(t)
	env := newTestEnv(t)
	require.NoError(env.addLiquidity(t, env.alice, 10000, 1000))

	// approved on the wrong side
	env.approve(t, env.bob, env.tokenB, 1000)
	_, _, err := env.pool.SwapConfidential(env.state, env.bob.addr(), env.encryptBool(t, true), env.encrypt(t, 1000))
	require.ErrorIs(err, ErrAborted)

	// direction must be an encrypted boolean
	_, _, err = env.pool.SwapConfidential(env.state, env.bob.addr(), env.encrypt(t, 1), env.encrypt(t, 10))
	require.Error(err)
	require.NotErrorIs(err, ErrAborted)

	reserveA, reserveB := env.reserves(t)
	require.Equal(int32(10000), reserveA)
	require.Equal(int32(1000), reserveB)
}

// TestSwapMatchesQuote checks the encrypted swap against the plaintext
// quote and the product invariant for random pools and trades.
func TestSwapMatchesQuote(t *testing.T) {
	env := newTestEnv(t)

	rapid.Check(t, func(rt *rapid.T) {
		reserveA := rapid.Int32Range(1, 46340).Draw(rt, "reserveA")
		reserveB := rapid.Int32Range(1, 46340).Draw(rt, "reserveB")
		amountIn := rapid.Int32Range(1, 50000).Draw(rt, "amountIn")
		dir := Direction(rapid.IntRange(0, 1).Draw(rt, "dir"))

		pool, err := Deploy(env.state, env.alice.addr(), env.poolConfig())
		require.NoError(rt, err)
		env.pool = pool
		require.NoError(rt, env.addLiquidity(rt, env.alice, reserveA, reserveB))

		reserveIn, reserveOut := reserveA, reserveB
		if dir == BToA {
			reserveIn, reserveOut = reserveB, reserveA
		}
		quote, quoteErr := QuoteSwap(reserveIn, reserveOut, amountIn)

		netOut, err := env.swap(rt, env.alice, dir, amountIn)
		if quoteErr != nil {
			require.ErrorIs(rt, err, ErrAborted)
			return
		}
		require.NoError(rt, err)
		require.Equal(rt, quote.NetOut, env.decrypt(rt, netOut))

		gotA, gotB := env.reserves(rt)
		newIn, newOut := gotA, gotB
		if dir == BToA {
			newIn, newOut = gotB, gotA
		}
		require.Equal(rt, quote.ReserveIn, newIn)
		require.Equal(rt, quote.ReserveOut, newOut)

		// k never grows and shrinks by less than one unit of the input reserve
		k := int64(reserveA) * int64(reserveB)
		kAfter := int64(gotA) * int64(gotB)
		require.LessOrEqual(rt, kAfter, k)
		require.Less(rt, k-kAfter, int64(newIn))
	})
}
