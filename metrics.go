// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package cfmm

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Method identifies a pool entry point in logs and metrics
type Method uint8

const (
	MethodAddLiquidity Method = iota
	MethodSwap
	MethodSwapConfidential
	MethodWithdrawFee
	MethodGetReserveA
	MethodGetReserveB
	MethodGetConstantProduct
	MethodGetFeeBalances
)

var methodNames = [...]string{
	MethodAddLiquidity:       "addLiquidity",
	MethodSwap:               "swap",
	MethodSwapConfidential:   "swapConfidential",
	MethodWithdrawFee:        "withdrawFee",
	MethodGetReserveA:        "getReserveA",
	MethodGetReserveB:        "getReserveB",
	MethodGetConstantProduct: "getConstantProduct",
	MethodGetFeeBalances:     "getFeeBalances",
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return "unknown"
}

// Call outcomes
const (
	OutcomeCommitted    = "committed"
	OutcomeAborted      = "aborted"
	OutcomeUnauthorized = "unauthorized"
	OutcomeFailed       = "failed"
)

type Metrics struct {
	callCount     *prometheus.CounterVec
	callLatencyMS *prometheus.GaugeVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := Metrics{
		callCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cfmm_call_count",
				Help: "Number of pool calls by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		callLatencyMS: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cfmm_call_latency_ms",
				Help: "Latency of the last pool call in milliseconds",
			},
			[]string{"method"},
		),
	}

	registerer.MustRegister(m.callCount)
	registerer.MustRegister(m.callLatencyMS)

	return &m
}

func (m *Metrics) observe(method Method, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.callCount.WithLabelValues(method.String(), outcome(err)).Inc()
	m.callLatencyMS.WithLabelValues(method.String()).Set(float64(elapsed.Milliseconds()))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeCommitted
	case errors.Is(err, ErrAborted):
		return OutcomeAborted
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCapability):
		return OutcomeUnauthorized
	default:
		return OutcomeFailed
	}
}
