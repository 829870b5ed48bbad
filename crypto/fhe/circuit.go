// Copyright (C) 2019-2025, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package fhe

// Circuit chains Evaluator calls and keeps the first error. Once an
// operation has failed every later operation returns the zero handle, so a
// sequence of primitives can be written straight through and checked once
// with Err.
type Circuit struct {
	eval Evaluator
	err  error
}

// NewCircuit starts a circuit over [eval]
func NewCircuit(eval Evaluator) *Circuit {
	return &Circuit{eval: eval}
}

// Err returns the first error raised by the circuit
func (c *Circuit) Err() error {
	return c.err
}

// Evaluator returns the underlying evaluator
func (c *Circuit) Evaluator() Evaluator {
	return c.eval
}

func (c *Circuit) Const(v int32) Handle {
	return c.eval.TrivialEncrypt(v)
}

func (c *Circuit) ConstBool(v bool) Handle {
	return c.eval.TrivialEncryptBool(v)
}

// Load reads a storage word, treating an unset slot as zero
func (c *Circuit) Load(h Handle) Handle {
	return OrZero(c.eval, h)
}

func (c *Circuit) Add(a, b Handle) Handle { return c.apply(c.eval.Add, a, b) }
func (c *Circuit) Sub(a, b Handle) Handle { return c.apply(c.eval.Sub, a, b) }
func (c *Circuit) Mul(a, b Handle) Handle { return c.apply(c.eval.Mul, a, b) }
func (c *Circuit) Div(a, b Handle) Handle { return c.apply(c.eval.Div, a, b) }
func (c *Circuit) Lt(a, b Handle) Handle { return c.apply(c.eval.Lt, a, b) }
func (c *Circuit) Le(a, b Handle) Handle { return c.apply(c.eval.Le, a, b) }
func (c *Circuit) Gt(a, b Handle) Handle { return c.apply(c.eval.Gt, a, b) }
func (c *Circuit) Ge(a, b Handle) Handle { return c.apply(c.eval.Ge, a, b) }
func (c *Circuit) Eq(a, b Handle) Handle { return c.apply(c.eval.Eq, a, b) }
func (c *Circuit) Ne(a, b Handle) Handle { return c.apply(c.eval.Ne, a, b) }
func (c *Circuit) And(a, b Handle) Handle { return c.apply(c.eval.And, a, b) }
func (c *Circuit) Or(a, b Handle) Handle { return c.apply(c.eval.Or, a, b) }

func (c *Circuit) DivScalar(a Handle, d int32) Handle {
	if c.err != nil {
		return Handle{}
	}
	h, err := c.eval.DivScalar(a, d)
	c.err = err
	return h
}

func (c *Circuit) Not(a Handle) Handle {
	if c.err != nil {
		return Handle{}
	}
	h, err := c.eval.Not(a)
	c.err = err
	return h
}

func (c *Circuit) Select(cond, ifTrue, ifFalse Handle) Handle {
	if c.err != nil {
		return Handle{}
	}
	h, err := c.eval.Select(cond, ifTrue, ifFalse)
	c.err = err
	return h
}

// Fail records [err] unless an earlier error is already held
func (c *Circuit) Fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *Circuit) apply(op func(a, b Handle) (Handle, error), a, b Handle) Handle {
	if c.err != nil {
		return Handle{}
	}
	h, err := op(a, b)
	c.err = err
	return h
}
