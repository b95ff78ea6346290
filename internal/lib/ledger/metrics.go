package ledger

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

const subsystem = "gemfarm"

var (
	opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "operations_total",
		Help:      "Ledger operations by operation and result",
	}, []string{"op", "result"})

	compensationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "custody_compensation_failures_total",
		Help:      "Custody moves that could not be reversed after a failed operation",
	})
)

func recordOp(op string, err error) {
	result := "ok"
	if err != nil {
		var se *staking.Error
		if errors.As(err, &se) {
			result = se.Name
		} else {
			result = "error"
		}
	}
	opsTotal.WithLabelValues(op, result).Inc()
}

var (
	promRunningReceipts = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: subsystem,
		Name:      "running_receipts",
	}, []string{"farm"})
	promAttachedObjects = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: subsystem,
		Name:      "attached_objects",
	}, []string{"farm"})
	promRewardRate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: subsystem,
		Name:      "reward_rate",
		Help:      "Sum of farmer reward rates per second",
	}, []string{"farm"})
	promPendingRewards = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: subsystem,
		Name:      "pending_rewards",
	}, []string{"farm"})
	promRewardAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: subsystem,
		Name:      "reward_available",
	}, []string{"farm"})
	promRewardReserved = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: subsystem,
		Name:      "reward_reserved",
	}, []string{"farm"})
	promCustodyShortfall = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Subsystem: subsystem,
		Name:      "custody_shortfall_assets",
		Help:      "Assets the vault holds less of than the ledger expects",
	}, []string{"farm"})
)

func PublishStats(farm staking.FarmID, stats FarmStats) {
	label := strconv.FormatUint(uint64(farm), 10)
	promRunningReceipts.WithLabelValues(label).Set(float64(stats.RunningReceipts))
	promAttachedObjects.WithLabelValues(label).Set(float64(stats.Objects))
	promRewardRate.WithLabelValues(label).Set(float64(stats.TotalRate))
	promPendingRewards.WithLabelValues(label).Set(float64(stats.PendingRewards))
	promRewardAvailable.WithLabelValues(label).Set(float64(stats.Available))
	promRewardReserved.WithLabelValues(label).Set(float64(stats.Reserved))
}

func PublishShortfall(farm staking.FarmID, assets int) {
	promCustodyShortfall.WithLabelValues(strconv.FormatUint(uint64(farm), 10)).Set(float64(assets))
}
