// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package precompile

import (
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/rlp"

	"github.com/luxfi/cfmm/crypto"
	"github.com/luxfi/cfmm/crypto/fhe"
)

// Pack builds the call data for [signature]. A nil [args] packs the
// selector alone.
func Pack(signature string, args interface{}) ([]byte, error) {
	sel := crypto.Selector(signature)
	if args == nil {
		return sel[:], nil
	}
	body, err := rlp.EncodeToBytes(args)
	if err != nil {
		return nil, err
	}
	return append(sel[:], body...), nil
}

// UnpackHandle decodes the result of swap
func UnpackHandle(ret []byte) (fhe.Handle, error) {
	var h fhe.Handle
	return h, rlp.DecodeBytes(ret, &h)
}

// UnpackEnvelope decodes the result of a single-value disclosure
func UnpackEnvelope(ret []byte) ([]byte, error) {
	var envelope []byte
	return envelope, rlp.DecodeBytes(ret, &envelope)
}

func UnpackFeeBalances(ret []byte) (FeeBalancesResult, error) {
	var r FeeBalancesResult
	return r, rlp.DecodeBytes(ret, &r)
}

func UnpackSwapConfidential(ret []byte) (SwapConfidentialResult, error) {
	var r SwapConfidentialResult
	return r, rlp.DecodeBytes(ret, &r)
}

func UnpackOwner(ret []byte) (common.Address, error) {
	var owner common.Address
	return owner, rlp.DecodeBytes(ret, &owner)
}

// ABI describes the precompile's interface. Arguments are RLP encoded after
// the selector rather than ABI encoded.
const ABI = `[
	{
		"inputs": [
			{"internalType": "bytes", "name": "encryptedAmountA", "type": "bytes"},
			{"internalType": "bytes", "name": "encryptedAmountB", "type": "bytes"}
		],
		"name": "addLiquidity",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint8", "name": "direction", "type": "uint8"},
			{"internalType": "bytes", "name": "encryptedAmountIn", "type": "bytes"}
		],
		"name": "swap",
		"outputs": [{"internalType": "bytes32", "name": "netOut", "type": "bytes32"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "bytes", "name": "encryptedIsAToB", "type": "bytes"},
			{"internalType": "bytes", "name": "encryptedAmountIn", "type": "bytes"}
		],
		"name": "swapConfidential",
		"outputs": [
			{"internalType": "bytes32", "name": "outA", "type": "bytes32"},
			{"internalType": "bytes32", "name": "outB", "type": "bytes32"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "address", "name": "to", "type": "address"}],
		"name": "withdrawFee",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "bytes32", "name": "publicKey", "type": "bytes32"},
			{"internalType": "bytes", "name": "signature", "type": "bytes"}
		],
		"name": "getReserveA",
		"outputs": [{"internalType": "bytes", "name": "reencrypted", "type": "bytes"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "bytes32", "name": "publicKey", "type": "bytes32"},
			{"internalType": "bytes", "name": "signature", "type": "bytes"}
		],
		"name": "getReserveB",
		"outputs": [{"internalType": "bytes", "name": "reencrypted", "type": "bytes"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "bytes32", "name": "publicKey", "type": "bytes32"},
			{"internalType": "bytes", "name": "signature", "type": "bytes"}
		],
		"name": "getConstantProduct",
		"outputs": [{"internalType": "bytes", "name": "reencrypted", "type": "bytes"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "bytes32", "name": "publicKey", "type": "bytes32"},
			{"internalType": "bytes", "name": "signature", "type": "bytes"}
		],
		"name": "getFeeBalances",
		"outputs": [
			{"internalType": "bytes", "name": "feeA", "type": "bytes"},
			{"internalType": "bytes", "name": "feeB", "type": "bytes"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "owner",
		"outputs": [{"internalType": "address", "name": "", "type": "address"}],
		"stateMutability": "view",
		"type": "function"
	}
]`
