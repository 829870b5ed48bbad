// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/cfmm/config"
)

func newTestConfig(t *testing.T, hidden bool) config.Config {
	cfg := config.Config{
		HiddenDirection: hidden,
		GasLimit:        30_000_000,
		Accounts:        []string{"alice", "bob", "carol"},
		Steps: []config.Step{
			{Action: config.ActionMint, Account: "alice", Token: "A", Amount: 20_000_000},
			{Action: config.ActionMint, Account: "alice", Token: "B", Amount: "20000000"},
			{Action: config.ActionMint, Account: "bob", Token: "A", Amount: 1},
			{Action: config.ActionTransfer, Account: "alice", Token: "A", To: "bob", Amount: 100000},
			{Action: config.ActionApprove, Account: "alice", Token: "A", Amount: 10000},
			{Action: config.ActionApprove, Account: "alice", Token: "B", Amount: 1000},
			{Action: config.ActionAddLiquidity, Account: "alice", Amount: 10000, AmountB: 1000},
			{Action: config.ActionApprove, Account: "bob", Token: "A", Amount: 1000},
			{Action: config.ActionSwap, Account: "bob", Direction: "AtoB", Amount: 1000},
			{Action: config.ActionSwap, Account: "bob", Direction: "AtoB", Amount: 1000},
			{Action: config.ActionReserves, Account: "alice"},
			{Action: config.ActionFees, Account: "alice"},
			{Action: config.ActionReserves, Account: "bob"},
			{Action: config.ActionWithdrawFee, Account: "alice", To: "carol"},
			{Action: config.ActionBalance, Account: "carol", Token: "B"},
			{Action: config.ActionBalance, Account: "bob", Token: "B"},
		},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func runSession(t *testing.T, cfg config.Config) []string {
	var out bytes.Buffer
	s, err := newSession(cfg, log.NewNoOpLogger(), &out)
	require.NoError(t, err)
	require.NoError(t, s.run())
	return strings.Split(strings.TrimSpace(out.String()), "\n")
}

func TestSession(t *testing.T) {
	for _, hidden := range []bool{false, true} {
		lines := runSession(t, newTestConfig(t, hidden))
		// deployment banner plus one line per step
		require.Len(t, lines, 17)

		require.Contains(t, lines[3], "rejected")
		require.Contains(t, lines[10], "rejected") // allowance spent by the first swap
		require.Contains(t, lines[11], "reserveA=11000 reserveB=909 k=9999000")
		require.Contains(t, lines[12], "feeA=0 feeB=4")
		require.Contains(t, lines[13], "rejected")
		require.Contains(t, lines[15], "4 MARG")
		require.Contains(t, lines[16], "87 MARG")
	}
}

func TestSessionRejectsUnknownDirection(t *testing.T) {
	cfg := config.Config{
		GasLimit: 30_000_000,
		Accounts: []string{"alice"},
		Steps: []config.Step{
			{Action: config.ActionSwap, Account: "alice", Direction: "sideways", Amount: 1},
		},
	}
	require.NoError(t, cfg.Validate())

	lines := runSession(t, cfg)
	require.Contains(t, lines[1], "rejected")
}
