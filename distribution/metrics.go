package distribution

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sib-utrecht/portal"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "distribution",
		Name:      "requests_total",
		Help:      "Code distribution requests, by outcome",
	}, []string{"outcome"})

	codesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "portal",
		Subsystem: "distribution",
		Name:      "codes_issued_total",
		Help:      "TOTP codes handed out",
	})
)

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var notFound *NotFoundError
	var forbidden *ForbiddenError
	switch {
	case errors.Is(err, portal.ErrUnauthorized):
		return "unauthorized"
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &forbidden):
		return "forbidden"
	default:
		return "error"
	}
}
