// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cfmm

import (
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/cfmm/backend"
	"github.com/luxfi/cfmm/crypto/fhe"
)

// GetReserveA re-encrypts reserve A under [publicKey] for the owner
func (p *Pool) GetReserveA(st backend.StateDB, caller common.Address, publicKey, sig []byte) ([]byte, error) {
	out, err := p.disclose(st, MethodGetReserveA, caller, publicKey, sig, func(*fhe.Circuit) []fhe.Handle {
		return []fhe.Handle{p.load(st, slotReserveA)}
	})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// GetReserveB re-encrypts reserve B under [publicKey] for the owner
func (p *Pool) GetReserveB(st backend.StateDB, caller common.Address, publicKey, sig []byte) ([]byte, error) {
	out, err := p.disclose(st, MethodGetReserveB, caller, publicKey, sig, func(*fhe.Circuit) []fhe.Handle {
		return []fhe.Handle{p.load(st, slotReserveB)}
	})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// GetConstantProduct re-encrypts reserveA * reserveB, computed on each call
func (p *Pool) GetConstantProduct(st backend.StateDB, caller common.Address, publicKey, sig []byte) ([]byte, error) {
	out, err := p.disclose(st, MethodGetConstantProduct, caller, publicKey, sig, func(c *fhe.Circuit) []fhe.Handle {
		return []fhe.Handle{c.Mul(p.load(st, slotReserveA), p.load(st, slotReserveB))}
	})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// GetFeeBalances re-encrypts both fee balances, A first
func (p *Pool) GetFeeBalances(st backend.StateDB, caller common.Address, publicKey, sig []byte) ([]byte, []byte, error) {
	out, err := p.disclose(st, MethodGetFeeBalances, caller, publicKey, sig, func(*fhe.Circuit) []fhe.Handle {
		return []fhe.Handle{p.load(st, slotFeeA), p.load(st, slotFeeB)}
	})
	if err != nil {
		return nil, nil, err
	}
	return out[0], out[1], nil
}

// disclose checks that the transaction sender is the owner and that [sig]
// is the owner's capability for this pool and [publicKey], then re-encrypts
// the handles produced by [read].
func (p *Pool) disclose(
	st backend.StateDB,
	method Method,
	caller common.Address,
	publicKey, sig []byte,
	read func(*fhe.Circuit) []fhe.Handle,
) ([][]byte, error) {
	var out [][]byte
	err := p.call(st, method, caller, func() error {
		if err := p.requireOwner(st, caller); err != nil {
			return err
		}
		if err := p.verifier.Authorize(p.domain, publicKey, sig, caller); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCapability, err)
		}

		c := fhe.NewCircuit(p.fhe)
		handles := read(c)
		if err := c.Err(); err != nil {
			return err
		}
		out = make([][]byte, len(handles))
		for i, h := range handles {
			envelope, err := p.fhe.Reencrypt(h, publicKey)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidCapability, err)
			}
			out[i] = envelope
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
