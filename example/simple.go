// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/cfmm"
	"github.com/luxfi/cfmm/backend"
	"github.com/luxfi/cfmm/coprocessor"
	"github.com/luxfi/cfmm/crypto/fhe"
	"github.com/luxfi/cfmm/signer"
	"github.com/luxfi/cfmm/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := log.NewNoOpLogger()
	st := backend.NewMemoryBackend()
	cop, err := coprocessor.New(logger)
	if err != nil {
		return err
	}
	owner, err := signer.GenerateLocalSigner()
	if err != nil {
		return err
	}
	verifier := signer.NewVerifier(signer.DefaultRecoveryTTL)
	encrypt := func(v int32) fhe.Handle {
		h, _ := cop.Verify(cop.EncryptInput(v), fhe.Int32)
		return h
	}

	var tokens [2]*token.EncryptedERC20
	for i, symbol := range []string{"NARA", "MARG"} {
		tokens[i], err = token.Deploy(st, owner.Address(), token.Config{
			Name:      symbol,
			Symbol:    symbol,
			ChainID:   ids.Empty,
			Evaluator: cop,
			Verifier:  verifier,
			Log:       logger,
		})
		if err != nil {
			return err
		}
		if err := tokens[i].Mint(st, owner.Address(), encrypt(1_000_000)); err != nil {
			return err
		}
	}

	pool, err := cfmm.Deploy(st, owner.Address(), cfmm.Config{
		ChainID:   ids.Empty,
		TokenA:    tokens[0],
		TokenB:    tokens[1],
		Evaluator: cop,
		Verifier:  verifier,
		Log:       logger,
	})
	if err != nil {
		return err
	}

	// provide 10000 A and 1000 B, then sell 1000 A
	for i, amount := range []int32{11000, 1000} {
		if err := tokens[i].Approve(st, owner.Address(), pool.Address(), encrypt(amount)); err != nil {
			return err
		}
	}
	if err := pool.AddLiquidity(st, owner.Address(), encrypt(10000), encrypt(1000)); err != nil {
		return err
	}
	if _, err := pool.Swap(st, owner.Address(), cfmm.AToB, encrypt(1000)); err != nil {
		return err
	}

	keys, err := fhe.GenerateKeypair()
	if err != nil {
		return err
	}
	sig, err := owner.SignCapability(pool.Domain(), keys.PublicKey())
	if err != nil {
		return err
	}
	for _, get := range []struct {
		name string
		fn   func(backend.StateDB, common.Address, []byte, []byte) ([]byte, error)
	}{
		{"reserve A", pool.GetReserveA},
		{"reserve B", pool.GetReserveB},
		{"k", pool.GetConstantProduct},
	} {
		envelope, err := get.fn(st, owner.Address(), keys.PublicKey(), sig)
		if err != nil {
			return err
		}
		v, err := keys.DecryptInt32(envelope, cop.Attester())
		if err != nil {
			return err
		}
		fmt.Printf("%-9s %d\n", get.name, v)
	}
	return nil
}
