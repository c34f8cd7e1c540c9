package controller

import (
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"example.com/fan-control/core/fuzzy"
)

func NewWithSystem(log *zap.Logger, sys *fuzzy.System) *Controller {
	return newController(log, sys)
}

func ModeCount(m Mode) float64 {
	return testutil.ToFloat64(ctlMetrics.reqs.WithLabelValues(m.String()))
}
