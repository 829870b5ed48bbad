// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package precompile

import (
	"strings"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/accounts/abi"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/cfmm"
	"github.com/luxfi/cfmm/backend"
	"github.com/luxfi/cfmm/coprocessor"
	"github.com/luxfi/cfmm/crypto/fhe"
	"github.com/luxfi/cfmm/signer"
	"github.com/luxfi/cfmm/token"
)

const gasLimit = 10_000_000

type fixture struct {
	state    *backend.MemoryBackend
	cop      *coprocessor.Coprocessor
	contract *Contract
	pool     *cfmm.Pool
	tokens   [2]*token.EncryptedERC20
	owner    *signer.LocalSigner
	keys     *fhe.Keypair
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	require := require.New(t)

	cop, err := coprocessor.New(log.NewNoOpLogger())
	require.NoError(err)
	owner, err := signer.GenerateLocalSigner()
	require.NoError(err)
	keys, err := fhe.GenerateKeypair()
	require.NoError(err)

	chainID := ids.ID{0x01}
	verifier := signer.NewVerifier(time.Minute)
	f := &fixture{
		state: backend.NewMemoryBackend(),
		cop:   cop,
		owner: owner,
		keys:  keys,
	}
	for i, name := range []string{"Naraggara", "Margaron"} {
		tok, err := token.Deploy(f.state, owner.Address(), token.Config{
			Name:      name,
			Symbol:    strings.ToUpper(name[:4]),
			ChainID:   chainID,
			Evaluator: cop,
			Verifier:  verifier,
			Log:       log.NewNoOpLogger(),
		})
		require.NoError(err)
		require.NoError(tok.Mint(f.state, owner.Address(), f.encrypt(t, 1_000_000)))
		f.tokens[i] = tok
	}
	f.pool, err = cfmm.Deploy(f.state, owner.Address(), cfmm.Config{
		ChainID:   chainID,
		TokenA:    f.tokens[0],
		TokenB:    f.tokens[1],
		Evaluator: cop,
		Verifier:  verifier,
		Log:       log.NewNoOpLogger(),
	})
	require.NoError(err)
	f.contract = NewContract(f.pool, cop, log.NewNoOpLogger())
	return f
}

func (f *fixture) encrypt(t *testing.T, v int32) fhe.Handle {
	h, err := f.cop.Verify(f.cop.EncryptInput(v), fhe.Int32)
	require.NoError(t, err)
	return h
}

func (f *fixture) approve(t *testing.T, amountA, amountB int32) {
	require.NoError(t, f.tokens[0].Approve(f.state, f.owner.Address(), f.pool.Address(), f.encrypt(t, amountA)))
	require.NoError(t, f.tokens[1].Approve(f.state, f.owner.Address(), f.pool.Address(), f.encrypt(t, amountB)))
}

func (f *fixture) call(t *testing.T, signature string, args interface{}) ([]byte, error) {
	input, err := Pack(signature, args)
	require.NoError(t, err)
	ret, _, err := f.contract.Run(f.state, f.owner.Address(), input, gasLimit, nil, false)
	return ret, err
}

func (f *fixture) discloseArgs(t *testing.T) *DiscloseArgs {
	sig, err := f.owner.SignCapability(f.pool.Domain(), f.keys.PublicKey())
	require.NoError(t, err)
	return &DiscloseArgs{PublicKey: common.BytesToHash(f.keys.PublicKey()), Signature: sig}
}

func (f *fixture) open(t *testing.T, envelope []byte) int32 {
	v, err := f.keys.DecryptInt32(envelope, f.cop.Attester())
	require.NoError(t, err)
	return v
}

func TestSelectorsMatchABI(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(ABI))
	require.NoError(t, err)

	sigs := []string{
		AddLiquiditySig, SwapSig, SwapConfidentialSig, WithdrawFeeSig,
		GetReserveASig, GetReserveBSig, GetConstantProductSig, GetFeeBalancesSig, OwnerSig,
	}
	require.Len(t, parsed.Methods, len(sigs))
	for _, sig := range sigs {
		name := sig[:strings.IndexByte(sig, '(')]
		method, ok := parsed.Methods[name]
		require.True(t, ok, name)
		require.Equal(t, sig, method.Sig)

		input, err := Pack(sig, nil)
		require.NoError(t, err)
		require.Equal(t, method.ID, input)

		fn, ok := functions[[4]byte(input)]
		require.True(t, ok, name)
		require.Equal(t, name, fn.name)
		require.Equal(t, method.IsConstant(), !fn.mutating, name)
	}
}

func TestRoundTrip(t *testing.T) {
	require := require.New(t)
	f := newFixture(t)

	f.approve(t, 10000, 1000)
	_, err := f.call(t, AddLiquiditySig, &AddLiquidityArgs{
		AmountA: f.cop.EncryptInput(10000),
		AmountB: f.cop.EncryptInput(1000),
	})
	require.NoError(err)

	f.approve(t, 1000, 0)
	ret, err := f.call(t, SwapSig, &SwapArgs{Direction: uint8(cfmm.AToB), AmountIn: f.cop.EncryptInput(1000)})
	require.NoError(err)
	netOut, err := UnpackHandle(ret)
	require.NoError(err)
	require.NotEqual(fhe.Handle{}, netOut)

	f.approve(t, 0, 20)
	ret, err = f.call(t, SwapConfidentialSig, &SwapConfidentialArgs{
		IsAToB:   f.cop.EncryptBoolInput(false),
		AmountIn: f.cop.EncryptInput(20),
	})
	require.NoError(err)
	outs, err := UnpackSwapConfidential(ret)
	require.NoError(err)
	require.NotEqual(outs.OutA, outs.OutB)

	// 10000/1000 -> 11000/909 -> 10763/929
	ret, err = f.call(t, GetReserveASig, f.discloseArgs(t))
	require.NoError(err)
	envelope, err := UnpackEnvelope(ret)
	require.NoError(err)
	require.Equal(int32(10763), f.open(t, envelope))

	ret, err = f.call(t, GetReserveBSig, f.discloseArgs(t))
	require.NoError(err)
	envelope, err = UnpackEnvelope(ret)
	require.NoError(err)
	require.Equal(int32(929), f.open(t, envelope))

	ret, err = f.call(t, GetConstantProductSig, f.discloseArgs(t))
	require.NoError(err)
	envelope, err = UnpackEnvelope(ret)
	require.NoError(err)
	require.Equal(int32(10763*929), f.open(t, envelope))

	ret, err = f.call(t, GetFeeBalancesSig, f.discloseArgs(t))
	require.NoError(err)
	fees, err := UnpackFeeBalances(ret)
	require.NoError(err)
	require.Equal(int32(11), f.open(t, fees.FeeA))
	require.Equal(int32(4), f.open(t, fees.FeeB))

	_, err = f.call(t, WithdrawFeeSig, &WithdrawFeeArgs{To: common.HexToAddress("0xc0ffee")})
	require.NoError(err)

	ret, err = f.call(t, OwnerSig, nil)
	require.NoError(err)
	owner, err := UnpackOwner(ret)
	require.NoError(err)
	require.Equal(f.owner.Address(), owner)
}

func TestRunRejects(t *testing.T) {
	f := newFixture(t)
	addLiquidity, err := Pack(AddLiquiditySig, &AddLiquidityArgs{
		AmountA: f.cop.EncryptInput(1),
		AmountB: f.cop.EncryptInput(1),
	})
	require.NoError(t, err)
	owner, err := Pack(OwnerSig, nil)
	require.NoError(t, err)

	tests := []struct {
		name        string
		input       []byte
		gas         uint64
		value       *uint256.Int
		readOnly    bool
		expectedErr error
	}{
		{
			name:        "short input",
			input:       []byte{0x01},
			gas:         gasLimit,
			expectedErr: ErrUnknownSelector,
		},
		{
			name:        "unknown selector",
			input:       []byte{0xde, 0xad, 0xbe, 0xef},
			gas:         gasLimit,
			expectedErr: ErrUnknownSelector,
		},
		{
			name:        "out of gas",
			input:       addLiquidity,
			gas:         AddLiquidityGas - 1,
			expectedErr: ErrOutOfGas,
		},
		{
			name:        "value attached",
			input:       owner,
			gas:         gasLimit,
			value:       uint256.NewInt(1),
			expectedErr: ErrNonPayable,
		},
		{
			name:        "write in static call",
			input:       addLiquidity,
			gas:         gasLimit,
			readOnly:    true,
			expectedErr: ErrWriteProtection,
		},
		{
			name:        "garbage arguments",
			input:       append(append([]byte{}, addLiquidity[:4]...), 0xff),
			gas:         gasLimit,
			expectedErr: ErrInvalidArguments,
		},
		{
			name: "forged input",
			input: func() []byte {
				b, err := Pack(AddLiquiditySig, &AddLiquidityArgs{AmountA: []byte{0x02, 0x01}, AmountB: []byte{0x02}})
				require.NoError(t, err)
				return b
			}(),
			gas:         gasLimit,
			expectedErr: ErrInvalidArguments,
		},
		{
			name: "business rule",
			input: func() []byte {
				b, err := Pack(SwapSig, &SwapArgs{AmountIn: f.cop.EncryptInput(0)})
				require.NoError(t, err)
				return b
			}(),
			gas:         gasLimit,
			expectedErr: cfmm.ErrAborted,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ret, left, err := f.contract.Run(f.state, f.owner.Address(), tt.input, tt.gas, tt.value, tt.readOnly)
			require.ErrorIs(t, err, tt.expectedErr)
			require.Nil(t, ret)
			require.Zero(t, left)
		})
	}
}

func TestReadOnlyDisclosure(t *testing.T) {
	f := newFixture(t)
	input, err := Pack(GetReserveASig, f.discloseArgs(t))
	require.NoError(t, err)

	ret, left, err := f.contract.Run(f.state, f.owner.Address(), input, gasLimit, uint256.NewInt(0), true)
	require.NoError(t, err)
	require.Equal(t, uint64(gasLimit-DiscloseGas), left)
	envelope, err := UnpackEnvelope(ret)
	require.NoError(t, err)
	require.Zero(t, f.open(t, envelope))
	require.Equal(t, uint64(DiscloseGas), f.contract.RequiredGas(input))
}
