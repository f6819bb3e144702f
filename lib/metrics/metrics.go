package metrics

import prom "github.com/prometheus/client_golang/prometheus"

const (
	Namespace = "xminter"

	SubsystemContract = "contract"
	SubsystemBalance  = "balance"
	SubsystemEvent    = "event"

	LabelContractName   = "contract_name"
	LabelContractMethod = "contract_method"
	LabelOutcome        = "outcome"
	LabelCollection     = "collection"
	LabelReason         = "reason"
)

// dispatch outcomes
const (
	OutcomeOK          = "ok"
	OutcomeUnsupported = "unsupported"
	OutcomeError       = "error"
)

// refresh outcomes
const (
	OutcomeApplied = "applied"
	OutcomeStale   = "stale"
	OutcomeFailed  = "failed"
)

// block event outcomes
const (
	OutcomePublished = "published"
	OutcomeDuplicate = "duplicate"
	OutcomeDropped   = "dropped"
)

// contract
var (
	ContractInvokeCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemContract,
			Name:      "invoke_total",
			Help:      "Total number of dispatched contract calls.",
		},
		[]string{LabelContractName, LabelContractMethod, LabelOutcome})
	ContractInvokeHistogram = prom.NewHistogramVec(
		prom.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemContract,
			Name:      "invoke_seconds",
			Help:      "Histogram of dispatched contract call latency.",
			Buckets:   prom.DefBuckets,
		},
		[]string{LabelContractName, LabelContractMethod})
)

// balance
var (
	BalanceRefreshCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemBalance,
			Name:      "refresh_total",
			Help:      "Total number of completed balance reads by outcome.",
		},
		[]string{LabelCollection, LabelOutcome})
	BalanceRefreshHistogram = prom.NewHistogramVec(
		prom.HistogramOpts{
			Namespace: Namespace,
			Subsystem: SubsystemBalance,
			Name:      "refresh_seconds",
			Help:      "Histogram of balance read latency.",
			Buckets:   prom.DefBuckets,
		},
		[]string{LabelCollection})
	BalanceSkipCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemBalance,
			Name:      "skip_total",
			Help:      "Total number of refresh triggers that issued no read.",
		},
		[]string{LabelReason})
	BalanceInflightGauge = prom.NewGauge(
		prom.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SubsystemBalance,
			Name:      "inflight",
			Help:      "Number of balance reads in flight.",
		})
)

// event
var (
	BlockEventCounter = prom.NewCounterVec(
		prom.CounterOpts{
			Namespace: Namespace,
			Subsystem: SubsystemEvent,
			Name:      "block_total",
			Help:      "Total number of block notifications by outcome.",
		},
		[]string{LabelOutcome})
)

func RegisterMetrics() {
	// contract
	prom.MustRegister(ContractInvokeCounter)
	prom.MustRegister(ContractInvokeHistogram)
	// balance
	prom.MustRegister(BalanceRefreshCounter)
	prom.MustRegister(BalanceRefreshHistogram)
	prom.MustRegister(BalanceSkipCounter)
	prom.MustRegister(BalanceInflightGauge)
	// event
	prom.MustRegister(BlockEventCounter)
}
