// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"testing"
	"time"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/cfmm/backend"
	"github.com/luxfi/cfmm/coprocessor"
	"github.com/luxfi/cfmm/crypto/fhe"
	"github.com/luxfi/cfmm/signer"
)

type account struct {
	signer *signer.LocalSigner
	keys   *fhe.Keypair
}

func (a *account) addr() common.Address { return a.signer.Address() }

type fixture struct {
	state *backend.MemoryBackend
	cop   *coprocessor.Coprocessor
	token *EncryptedERC20
	alice *account
	bob   *account
}

func newAccount(t *testing.T) *account {
	t.Helper()

	s, err := signer.GenerateLocalSigner()
	require.NoError(t, err)
	kp, err := fhe.GenerateKeypair()
	require.NoError(t, err)
	return &account{signer: s, keys: kp}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	require := require.New(t)

	cop, err := coprocessor.New(log.NewNoOpLogger())
	require.NoError(err)

	f := &fixture{
		state: backend.NewMemoryBackend(),
		cop:   cop,
		alice: newAccount(t),
		bob:   newAccount(t),
	}
	f.token, err = Deploy(f.state, f.alice.addr(), Config{
		Name:      "Naraggara",
		Symbol:    "NARA",
		ChainID:   ids.ID{0x01},
		Evaluator: cop,
		Verifier:  signer.NewVerifier(time.Minute),
		Log:       log.NewNoOpLogger(),
	})
	require.NoError(err)
	return f
}

func (f *fixture) encrypt(t *testing.T, v int32) fhe.Handle {
	t.Helper()

	h, err := f.cop.Verify(f.cop.EncryptInput(v), fhe.Int32)
	require.NoError(t, err)
	return h
}

func (f *fixture) balance(t *testing.T, a *account) int32 {
	t.Helper()
	require := require.New(t)

	sig, err := a.signer.SignCapability(f.token.Domain(), a.keys.PublicKey())
	require.NoError(err)
	envelope, err := f.token.BalanceOf(f.state, a.addr(), a.keys.PublicKey(), sig)
	require.NoError(err)
	v, err := a.keys.DecryptInt32(envelope, f.cop.Attester())
	require.NoError(err)
	return v
}

func (f *fixture) decrypt(t *testing.T, h fhe.Handle) int32 {
	t.Helper()

	kp, err := fhe.GenerateKeypair()
	require.NoError(t, err)
	envelope, err := f.cop.Reencrypt(h, kp.PublicKey())
	require.NoError(t, err)
	v, err := kp.DecryptInt32(envelope, f.cop.Attester())
	require.NoError(t, err)
	return v
}

func TestMint(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.token.Mint(f.state, f.alice.addr(), f.encrypt(t, 100000)))
	require.Equal(t, int32(100000), f.balance(t, f.alice))

	err := f.token.Mint(f.state, f.bob.addr(), f.encrypt(t, 1))
	require.ErrorIs(t, err, ErrNotOwner)

	tests := []struct {
		name   string
		amount int32
	}{
		{name: "zero", amount: 0},
		{name: "negative", amount: -5},
		{name: "supply overflow", amount: 2147483647 - 100000 + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.token.Mint(f.state, f.alice.addr(), f.encrypt(t, tt.amount))
			require.ErrorIs(t, err, ErrMintFailed)
			require.Equal(t, int32(100000), f.balance(t, f.alice))
		})
	}
}

func TestTransfer(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	require.NoError(f.token.Mint(f.state, f.alice.addr(), f.encrypt(t, 1000)))

	moved, err := f.token.Transfer(f.state, f.alice.addr(), f.bob.addr(), f.encrypt(t, 400))
	require.NoError(err)
	require.Equal(int32(400), f.decrypt(t, moved))
	require.Equal(int32(600), f.balance(t, f.alice))
	require.Equal(int32(400), f.balance(t, f.bob))

	// uncovered and negative transfers move nothing
	for _, amount := range []int32{601, -10} {
		moved, err = f.token.Transfer(f.state, f.alice.addr(), f.bob.addr(), f.encrypt(t, amount))
		require.NoError(err)
		require.Zero(f.decrypt(t, moved))
		require.Equal(int32(600), f.balance(t, f.alice))
		require.Equal(int32(400), f.balance(t, f.bob))
	}

	// self transfer keeps the balance
	_, err = f.token.Transfer(f.state, f.bob.addr(), f.bob.addr(), f.encrypt(t, 100))
	require.NoError(err)
	require.Equal(int32(400), f.balance(t, f.bob))
}

func TestTransferFrom(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.token.Mint(f.state, f.alice.addr(), f.encrypt(t, 1000)))
	spender := common.HexToAddress("0x5e")

	tests := []struct {
		name             string
		allowance        int32
		amount           int32
		expectedMoved    int32
		expectedAllowed  int32
		expectedBalanceA int32
	}{
		{
			name:             "covered",
			allowance:        500,
			amount:           300,
			expectedMoved:    300,
			expectedAllowed:  200,
			expectedBalanceA: 700,
		},
		{
			name:             "allowance too small",
			allowance:        100,
			amount:           300,
			expectedMoved:    0,
			expectedAllowed:  100,
			expectedBalanceA: 700,
		},
		{
			name:             "balance too small",
			allowance:        5000,
			amount:           701,
			expectedMoved:    0,
			expectedAllowed:  5000,
			expectedBalanceA: 700,
		},
		{
			name:             "exact",
			allowance:        700,
			amount:           700,
			expectedMoved:    700,
			expectedAllowed:  0,
			expectedBalanceA: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			require.NoError(f.token.Approve(f.state, f.alice.addr(), spender, f.encrypt(t, tt.allowance)))
			moved, err := f.token.TransferFrom(f.state, spender, f.alice.addr(), f.bob.addr(), f.encrypt(t, tt.amount))
			require.NoError(err)
			require.Equal(tt.expectedMoved, f.decrypt(t, moved))
			require.Equal(tt.expectedBalanceA, f.balance(t, f.alice))

			sig, err := f.alice.signer.SignCapability(f.token.Domain(), f.alice.keys.PublicKey())
			require.NoError(err)
			envelope, err := f.token.Allowance(f.state, f.alice.addr(), spender, f.alice.keys.PublicKey(), sig)
			require.NoError(err)
			allowed, err := f.alice.keys.DecryptInt32(envelope, f.cop.Attester())
			require.NoError(err)
			require.Equal(tt.expectedAllowed, allowed)
		})
	}
}

func TestBalanceOfRequiresOwnCapability(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	// bob signs for his key, alice presents it
	sig, err := f.bob.signer.SignCapability(f.token.Domain(), f.bob.keys.PublicKey())
	require.NoError(err)
	_, err = f.token.BalanceOf(f.state, f.alice.addr(), f.bob.keys.PublicKey(), sig)
	require.ErrorIs(err, signer.ErrSignerMismatch)

	// an uninitialized balance reads as zero
	require.Zero(f.balance(t, f.bob))
}

func TestTotalSupply(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)
	require.NoError(f.token.Mint(f.state, f.alice.addr(), f.encrypt(t, 42)))

	sig, err := f.alice.signer.SignCapability(f.token.Domain(), f.alice.keys.PublicKey())
	require.NoError(err)
	envelope, err := f.token.TotalSupply(f.state, f.alice.addr(), f.alice.keys.PublicKey(), sig)
	require.NoError(err)
	supply, err := f.alice.keys.DecryptInt32(envelope, f.cop.Attester())
	require.NoError(err)
	require.Equal(int32(42), supply)

	_, err = f.token.TotalSupply(f.state, f.bob.addr(), f.bob.keys.PublicKey(), sig)
	require.ErrorIs(err, ErrNotOwner)
	require.Equal(f.alice.addr(), f.token.Owner(f.state))
}
