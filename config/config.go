// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/luxfi/ids"
	"github.com/luxfi/math/set"
	"github.com/spf13/cast"
)

const (
	defaultGasLimit = 30_000_000
)

var defaultAccounts = []string{"alice", "bob", "carol"}

// Step actions
const (
	ActionMint         = "mint"
	ActionApprove      = "approve"
	ActionTransfer     = "transfer"
	ActionAddLiquidity = "add-liquidity"
	ActionSwap         = "swap"
	ActionWithdrawFee  = "withdraw-fee"
	ActionReserves     = "reserves"
	ActionFees         = "fees"
	ActionBalance      = "balance"
)

var actions = set.Of(
	ActionMint,
	ActionApprove,
	ActionTransfer,
	ActionAddLiquidity,
	ActionSwap,
	ActionWithdrawFee,
	ActionReserves,
	ActionFees,
	ActionBalance,
)

var (
	errNoAccounts     = errors.New("at least one account is required")
	errZeroGasLimit   = errors.New("gas-limit must be positive")
	errUnknownAccount = errors.New("unknown account")
	errUnknownAction  = errors.New("unknown action")
	errUnknownToken   = errors.New("token must be A or B")
	errInvalidAmount  = errors.New("invalid amount")
)

// Config is the session run by `cfmm run`. The first account deploys both
// tokens and the pool.
type Config struct {
	Quiet           bool     `mapstructure:"quiet" json:"quiet"`
	HiddenDirection bool     `mapstructure:"hidden-direction" json:"hidden-direction"`
	ChainID         string   `mapstructure:"chain-id" json:"chain-id"`
	GasLimit        uint64   `mapstructure:"gas-limit" json:"gas-limit"`
	Accounts        []string `mapstructure:"accounts" json:"accounts"`
	Steps           []Step   `mapstructure:"steps" json:"steps"`

	// convenience fields
	chainID ids.ID
}

// Step is one scripted action. Amounts may be JSON numbers or strings.
type Step struct {
	Action    string      `mapstructure:"action" json:"action"`
	Account   string      `mapstructure:"account" json:"account"`
	Token     string      `mapstructure:"token" json:"token,omitempty"`
	To        string      `mapstructure:"to" json:"to,omitempty"`
	Direction string      `mapstructure:"direction" json:"direction,omitempty"`
	Amount    interface{} `mapstructure:"amount" json:"amount,omitempty"`
	AmountB   interface{} `mapstructure:"amount-b" json:"amount-b,omitempty"`

	amount  int32
	amountB int32
}

// Validate checks the session and parses amounts and the chain ID
func (c *Config) Validate() error {
	if len(c.Accounts) == 0 {
		return errNoAccounts
	}
	if c.GasLimit == 0 {
		return errZeroGasLimit
	}
	if c.ChainID != "" {
		chainID, err := ids.FromString(c.ChainID)
		if err != nil {
			return fmt.Errorf("invalid chain-id %q: %w", c.ChainID, err)
		}
		c.chainID = chainID
	}
	accounts := set.Of(c.Accounts...)
	for i := range c.Steps {
		if err := c.Steps[i].validate(accounts); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (s *Step) validate(accounts set.Set[string]) error {
	if !actions.Contains(s.Action) {
		return fmt.Errorf("%w %q", errUnknownAction, s.Action)
	}
	if !accounts.Contains(s.Account) {
		return fmt.Errorf("%w %q", errUnknownAccount, s.Account)
	}
	switch s.Action {
	case ActionMint, ActionApprove, ActionBalance:
		if _, err := s.TokenIndex(); err != nil {
			return err
		}
	case ActionTransfer:
		if _, err := s.TokenIndex(); err != nil {
			return err
		}
		if !accounts.Contains(s.To) {
			return fmt.Errorf("%w %q", errUnknownAccount, s.To)
		}
	case ActionWithdrawFee:
		if !accounts.Contains(s.To) {
			return fmt.Errorf("%w %q", errUnknownAccount, s.To)
		}
	}
	switch s.Action {
	case ActionMint, ActionApprove, ActionTransfer, ActionSwap:
		amount, err := parseAmount(s.Amount)
		if err != nil {
			return err
		}
		s.amount = amount
	case ActionAddLiquidity:
		amountA, err := parseAmount(s.Amount)
		if err != nil {
			return err
		}
		amountB, err := parseAmount(s.AmountB)
		if err != nil {
			return err
		}
		s.amount, s.amountB = amountA, amountB
	}
	return nil
}

// TokenIndex returns 0 for token A and 1 for token B
func (s *Step) TokenIndex() (int, error) {
	switch strings.ToUpper(s.Token) {
	case "A":
		return 0, nil
	case "B":
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownToken, s.Token)
	}
}

// parseAmount rejects values outside the int32 range rather than wrapping
func parseAmount(v interface{}) (int32, error) {
	amount, err := cast.ToInt64E(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errInvalidAmount, err)
	}
	if amount < math.MinInt32 || amount > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d is out of the int32 range", errInvalidAmount, amount)
	}
	return int32(amount), nil
}

// GetChainID returns the parsed chain ID, ids.Empty if unset
func (c *Config) GetChainID() ids.ID {
	return c.chainID
}

// GetAmount returns the step's first amount
func (s *Step) GetAmount() int32 {
	return s.amount
}

// GetAmountB returns the second amount of an add-liquidity step
func (s *Step) GetAmountB() int32 {
	return s.amountB
}
