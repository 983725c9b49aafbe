package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var once sync.Once

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			codeClaims, codeClaimConflicts, codePoolExhaustions,
			codeActivations, codeReaped,
			httpRequests, httpLatencyMs,
		)
	})
}
