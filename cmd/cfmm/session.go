// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/cfmm"
	"github.com/luxfi/cfmm/backend"
	"github.com/luxfi/cfmm/config"
	"github.com/luxfi/cfmm/coprocessor"
	"github.com/luxfi/cfmm/crypto/fhe"
	"github.com/luxfi/cfmm/precompile"
	"github.com/luxfi/cfmm/signer"
	"github.com/luxfi/cfmm/token"
)

var tokenNames = [2][2]string{
	{"Naraggara", "NARA"},
	{"Margaron", "MARG"},
}

type account struct {
	name   string
	signer *signer.LocalSigner
	keys   *fhe.Keypair
}

func (a *account) addr() common.Address { return a.signer.Address() }

// session is an in-memory chain with two tokens, one pool and a set of
// named accounts
type session struct {
	cfg      config.Config
	log      log.Logger
	out      io.Writer
	state    *backend.MemoryBackend
	cop      *coprocessor.Coprocessor
	tokens   [2]*token.EncryptedERC20
	pool     *cfmm.Pool
	contract *precompile.Contract
	accounts map[string]*account
}

func newSession(cfg config.Config, logger log.Logger, out io.Writer) (*session, error) {
	cop, err := coprocessor.New(logger)
	if err != nil {
		return nil, err
	}
	s := &session{
		cfg:      cfg,
		log:      logger,
		out:      out,
		state:    backend.NewMemoryBackend(),
		cop:      cop,
		accounts: make(map[string]*account, len(cfg.Accounts)),
	}
	for _, name := range cfg.Accounts {
		sk, err := signer.GenerateLocalSigner()
		if err != nil {
			return nil, err
		}
		keys, err := fhe.GenerateKeypair()
		if err != nil {
			return nil, err
		}
		s.accounts[name] = &account{name: name, signer: sk, keys: keys}
	}

	deployer := s.accounts[cfg.Accounts[0]].addr()
	verifier := signer.NewVerifier(signer.DefaultRecoveryTTL)
	for i, names := range tokenNames {
		s.tokens[i], err = token.Deploy(s.state, deployer, token.Config{
			Name:      names[0],
			Symbol:    names[1],
			ChainID:   cfg.GetChainID(),
			Evaluator: cop,
			Verifier:  verifier,
			Log:       logger,
		})
		if err != nil {
			return nil, err
		}
	}
	s.pool, err = cfmm.Deploy(s.state, deployer, cfmm.Config{
		ChainID:   cfg.GetChainID(),
		TokenA:    s.tokens[0],
		TokenB:    s.tokens[1],
		Evaluator: cop,
		Verifier:  verifier,
		Log:       logger,
		Metrics:   cfmm.NewMetrics(prometheus.NewRegistry()),
	})
	if err != nil {
		return nil, err
	}
	s.contract = precompile.NewContract(s.pool, cop, logger)

	fmt.Fprintf(out, "pool %s owned by %s (%s)\n", s.pool.Address(), cfg.Accounts[0], deployer)
	return s, nil
}

// run executes every step. Rejected pool calls are printed; any other
// failure stops the session.
func (s *session) run() error {
	for i := range s.cfg.Steps {
		step := &s.cfg.Steps[i]
		result, err := s.step(step)
		switch {
		case err == nil:
			fmt.Fprintf(s.out, "%3d %-14s %-8s %s\n", i, step.Action, step.Account, result)
		case rejected(err):
			fmt.Fprintf(s.out, "%3d %-14s %-8s rejected: %s\n", i, step.Action, step.Account, err)
		default:
			return fmt.Errorf("step %d (%s): %w", i, step.Action, err)
		}
	}
	return nil
}

// rejected reports whether a contract refused the call, as opposed to the
// session itself failing
func rejected(err error) bool {
	var poolErr *cfmm.Error
	return errors.As(err, &poolErr) ||
		errors.Is(err, token.ErrNotOwner) ||
		errors.Is(err, token.ErrMintFailed)
}

func (s *session) step(step *config.Step) (string, error) {
	acct := s.accounts[step.Account]
	switch step.Action {
	case config.ActionMint:
		tok, err := s.token(step)
		if err != nil {
			return "", err
		}
		amount, err := s.encrypt(step.GetAmount())
		if err != nil {
			return "", err
		}
		if err := tok.Mint(s.state, acct.addr(), amount); err != nil {
			return "", err
		}
		return fmt.Sprintf("minted %d %s", step.GetAmount(), tok.Symbol()), nil

	case config.ActionApprove:
		tok, err := s.token(step)
		if err != nil {
			return "", err
		}
		amount, err := s.encrypt(step.GetAmount())
		if err != nil {
			return "", err
		}
		if err := tok.Approve(s.state, acct.addr(), s.pool.Address(), amount); err != nil {
			return "", err
		}
		return fmt.Sprintf("approved pool for %d %s", step.GetAmount(), tok.Symbol()), nil

	case config.ActionTransfer:
		tok, err := s.token(step)
		if err != nil {
			return "", err
		}
		amount, err := s.encrypt(step.GetAmount())
		if err != nil {
			return "", err
		}
		to := s.accounts[step.To]
		if _, err := tok.Transfer(s.state, acct.addr(), to.addr(), amount); err != nil {
			return "", err
		}
		// an unfunded transfer moves zero without failing
		return fmt.Sprintf("sent up to %d %s to %s", step.GetAmount(), tok.Symbol(), to.name), nil

	case config.ActionAddLiquidity:
		_, err := s.call(acct, precompile.AddLiquiditySig, &precompile.AddLiquidityArgs{
			AmountA: s.cop.EncryptInput(step.GetAmount()),
			AmountB: s.cop.EncryptInput(step.GetAmountB()),
		})
		if err != nil {
			return "", err
		}
		return "liquidity added", nil

	case config.ActionSwap:
		return s.swap(acct, step)

	case config.ActionWithdrawFee:
		to := s.accounts[step.To]
		if _, err := s.call(acct, precompile.WithdrawFeeSig, &precompile.WithdrawFeeArgs{To: to.addr()}); err != nil {
			return "", err
		}
		return "fees paid to " + to.name, nil

	case config.ActionReserves:
		a, err := s.disclose(acct, precompile.GetReserveASig)
		if err != nil {
			return "", err
		}
		b, err := s.disclose(acct, precompile.GetReserveBSig)
		if err != nil {
			return "", err
		}
		k, err := s.disclose(acct, precompile.GetConstantProductSig)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("reserveA=%d reserveB=%d k=%d", a, b, k), nil

	case config.ActionFees:
		args, err := s.capability(acct)
		if err != nil {
			return "", err
		}
		ret, err := s.call(acct, precompile.GetFeeBalancesSig, args)
		if err != nil {
			return "", err
		}
		fees, err := precompile.UnpackFeeBalances(ret)
		if err != nil {
			return "", err
		}
		feeA, err := acct.keys.DecryptInt32(fees.FeeA, s.cop.Attester())
		if err != nil {
			return "", err
		}
		feeB, err := acct.keys.DecryptInt32(fees.FeeB, s.cop.Attester())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("feeA=%d feeB=%d", feeA, feeB), nil

	case config.ActionBalance:
		tok, err := s.token(step)
		if err != nil {
			return "", err
		}
		sig, err := acct.signer.SignCapability(tok.Domain(), acct.keys.PublicKey())
		if err != nil {
			return "", err
		}
		envelope, err := tok.BalanceOf(s.state, acct.addr(), acct.keys.PublicKey(), sig)
		if err != nil {
			return "", err
		}
		balance, err := acct.keys.DecryptInt32(envelope, s.cop.Attester())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d %s", balance, tok.Symbol()), nil

	default:
		return "", fmt.Errorf("unknown action %q", step.Action)
	}
}

func (s *session) swap(acct *account, step *config.Step) (string, error) {
	dir, err := cfmm.ParseDirection(step.Direction)
	if err != nil {
		return "", err
	}
	if !s.cfg.HiddenDirection {
		if _, err := s.call(acct, precompile.SwapSig, &precompile.SwapArgs{
			Direction: uint8(dir),
			AmountIn:  s.cop.EncryptInput(step.GetAmount()),
		}); err != nil {
			return "", err
		}
		return fmt.Sprintf("swapped %d %s", step.GetAmount(), dir), nil
	}

	if _, err := s.call(acct, precompile.SwapConfidentialSig, &precompile.SwapConfidentialArgs{
		IsAToB:   s.cop.EncryptBoolInput(dir == cfmm.AToB),
		AmountIn: s.cop.EncryptInput(step.GetAmount()),
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("swapped %d in a hidden direction", step.GetAmount()), nil
}

func (s *session) token(step *config.Step) (*token.EncryptedERC20, error) {
	i, err := step.TokenIndex()
	if err != nil {
		return nil, err
	}
	return s.tokens[i], nil
}

// encrypt imports a user input for a direct token call
func (s *session) encrypt(v int32) (fhe.Handle, error) {
	return s.cop.Verify(s.cop.EncryptInput(v), fhe.Int32)
}

func (s *session) call(acct *account, signature string, args interface{}) ([]byte, error) {
	input, err := precompile.Pack(signature, args)
	if err != nil {
		return nil, err
	}
	ret, _, err := s.contract.Run(s.state, acct.addr(), input, s.cfg.GasLimit, nil, false)
	return ret, err
}

func (s *session) capability(acct *account) (*precompile.DiscloseArgs, error) {
	sig, err := acct.signer.SignCapability(s.pool.Domain(), acct.keys.PublicKey())
	if err != nil {
		return nil, err
	}
	return &precompile.DiscloseArgs{
		PublicKey: common.BytesToHash(acct.keys.PublicKey()),
		Signature: sig,
	}, nil
}

func (s *session) disclose(acct *account, signature string) (int32, error) {
	args, err := s.capability(acct)
	if err != nil {
		return 0, err
	}
	ret, err := s.call(acct, signature, args)
	if err != nil {
		return 0, err
	}
	envelope, err := precompile.UnpackEnvelope(ret)
	if err != nil {
		return 0, err
	}
	return acct.keys.DecryptInt32(envelope, s.cop.Attester())
}
