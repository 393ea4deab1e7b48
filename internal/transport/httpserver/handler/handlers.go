package handler

import (
	coupledomain "cozy-dates-go/internal/domain/couple"
	profiledomain "cozy-dates-go/internal/domain/profile"
	"cozy-dates-go/internal/metrics"
	"cozy-dates-go/pkg/logger"
)

type Handlers struct {
	Couples  *coupledomain.Service
	Profiles *profiledomain.Service
	metrics  *metrics.Metrics
	log      logger.Logger
}

// New accepts a nil metrics, in which case nothing is recorded.
func New(couples *coupledomain.Service, profiles *profiledomain.Service, m *metrics.Metrics, log logger.Logger) *Handlers {
	return &Handlers{
		Couples:  couples,
		Profiles: profiles,
		metrics:  m,
		log:      log,
	}
}
