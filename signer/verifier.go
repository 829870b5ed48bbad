// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package signer

import (
	"fmt"
	"time"

	"github.com/luxfi/geth/common"

	"github.com/luxfi/cfmm/cache"
	"github.com/luxfi/cfmm/crypto"
)

// DefaultRecoveryTTL is how long a recovered signer stays cached
const DefaultRecoveryTTL = 5 * time.Minute

// Verifier checks capability signatures. Signer recovery is deterministic in
// (digest, signature), so recovered addresses are cached; the authorization
// decision itself is made against the expected account on every call.
type Verifier struct {
	recovered *cache.TTLCache[common.Hash, common.Address]
}

// NewVerifier creates a verifier caching recoveries for [ttl]
func NewVerifier(ttl time.Duration) *Verifier {
	return &Verifier{
		recovered: cache.NewTTLCache[common.Hash, common.Address](ttl),
	}
}

// Recover returns the account that signed the capability for [publicKey]
// in [domain]
func (v *Verifier) Recover(domain Domain, publicKey, sig []byte) (common.Address, error) {
	digest, err := Digest(domain, publicKey)
	if err != nil {
		return common.Address{}, err
	}
	key := crypto.Keccak256Hash(digest[:], sig)
	return v.recovered.Get(key, func(common.Hash) (common.Address, error) {
		return RecoverAddress(digest, sig)
	}, false)
}

// Authorize returns nil iff [sig] is [account]'s capability for [publicKey]
// in [domain]
func (v *Verifier) Authorize(domain Domain, publicKey, sig []byte, account common.Address) error {
	signer, err := v.Recover(domain, publicKey, sig)
	if err != nil {
		return err
	}
	if signer != account {
		return fmt.Errorf("%w: signed by %s, expected %s", ErrSignerMismatch, signer, account)
	}
	return nil
}
