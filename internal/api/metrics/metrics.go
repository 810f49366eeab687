// Package metrics defines the custom Prometheus collectors of the FINT API.
// It is the single source of truth for metric names, labels, and help
// strings.
//
// Call Register once per registry at startup, before the HTTP server starts.
// HTTP request metrics come from echoprometheus and are not declared here.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fint"

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts authenticator calls.
// Labels:
//   - operation: "register", "login" or "authenticate"
//   - result: "success" or "failure"
var AuthAttemptsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of register, login and token authentication attempts.",
	},
	[]string{"operation", "result"},
)

// ── Transaction metrics ───────────────────────────────────────────────────────

// TransactionOperationsTotal counts transaction use-case calls.
// Labels:
//   - operation: "create", "list", "update", "delete", "summary", "balance"
//   - result: "success" or "failure"
var TransactionOperationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transaction_operations_total",
		Help:      "Total number of transaction operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// IdempotentReplaysTotal counts creates answered from an earlier
// Idempotency-Key instead of inserting a new row.
var IdempotentReplaysTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of transaction creates replayed from an idempotency key.",
	},
)

// Register adds every collector to reg. A collector that is already
// registered with reg is not an error.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		AuthAttemptsTotal,
		TransactionOperationsTotal,
		IdempotentReplaysTotal,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	return nil
}

// Result maps an error to the result label.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
