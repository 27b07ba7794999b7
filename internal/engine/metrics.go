package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	potsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esusu_pots_created_total",
		Help: "Number of pots created.",
	})
	depositsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esusu_deposits_amount_total",
		Help: "Total principal accepted into escrow, in smallest currency units.",
	})
	cyclesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esusu_cycles_completed_total",
		Help: "Number of cycles settled.",
	})
	interestDistributed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esusu_interest_distributed_total",
		Help: "Total interest paid out to non-winners, in smallest currency units.",
	})
	awaitingRandomness = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "esusu_awaiting_randomness_cycles",
		Help: "Cycles currently waiting on an oracle fulfillment.",
	})
)
