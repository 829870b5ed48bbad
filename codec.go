// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package cfmm

import (
	"fmt"

	"github.com/luxfi/geth/rlp"
)

// CodecVersion is the only supported encoding version
const CodecVersion uint16 = 0

// CodecImpl serializes pool state exports and call payloads with RLP
type CodecImpl struct{}

// Codec is the default codec instance
var Codec = &CodecImpl{}

// Marshal serializes the value
func (c *CodecImpl) Marshal(version uint16, v interface{}) ([]byte, error) {
	if version != CodecVersion {
		return nil, fmt.Errorf("unsupported codec version %d", version)
	}
	return rlp.EncodeToBytes(v)
}

// Unmarshal deserializes the bytes
func (c *CodecImpl) Unmarshal(b []byte, v interface{}) (uint16, error) {
	if err := rlp.DecodeBytes(b, v); err != nil {
		return CodecVersion, fmt.Errorf("failed to decode: %w", err)
	}
	return CodecVersion, nil
}
