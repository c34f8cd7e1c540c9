package controller

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"example.com/fan-control/base/floats"
	"example.com/fan-control/base/metrics"
	"example.com/fan-control/base/zaplog"

	"example.com/fan-control/core/fuzzy"
)

const (
	VarTemperature = "temperature"
	VarSpeed       = "speed"

	TemperatureMin = 0.0
	TemperatureMax = 40.0
	SpeedMin       = 0.0
	SpeedMax       = 3000.0

	// Below and above these temperatures the rule base is bypassed.
	lowOverrideLimit  = 5.0
	highOverrideLimit = 35.0

	lowOverrideRPMPerDegree = 40.0
	highOverrideBaseRPM     = 2500.0
	highOverrideSpanRPM     = 500.0
)

type Mode int

const (
	ModeInference Mode = iota
	ModeLowOverride
	ModeHighOverride
	ModeFallback
)

var modeNames = [...]string{
	ModeInference:    "inference",
	ModeLowOverride:  "low_override",
	ModeHighOverride: "high_override",
	ModeFallback:     "fallback",
}

func (m Mode) String() string {
	if m < ModeInference || m > ModeFallback {
		return "unknown"
	}
	return modeNames[m]
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Result is the response record for one processed temperature.
type Result struct {
	SpeedRPM     int  `json:"speed_rpm"`
	SpeedPercent int  `json:"speed_percent"`
	Mode         Mode `json:"mode"`
}

var ctlMetrics = struct {
	reqs        *prometheus.CounterVec
	evalSeconds prometheus.Histogram
}{
	reqs: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: metrics.ControllerReqsN,
		Help: metrics.ControllerReqsH,
	}, []string{"mode"}),
	evalSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    metrics.ControllerEvalSecondsN,
		Help:    metrics.ControllerEvalSecondsH,
		Buckets: prometheus.ExponentialBuckets(1e-6, 2, 16),
	}),
}

// A Controller maps a room temperature to a fan speed. It holds no mutable
// state and may be shared by concurrent callers.
type Controller struct {
	log *zap.Logger
	sys *fuzzy.System
}

// New assembles the temperature to fan speed inference system.
func New(log *zap.Logger, opts ...fuzzy.Option) (*Controller, error) {
	sys, err := newFanSystem(opts...)
	if err != nil {
		return nil, err
	}
	return newController(log, sys), nil
}

func newController(log *zap.Logger, sys *fuzzy.System) *Controller {
	if log == nil {
		log = zaplog.Logger()
	}
	return &Controller{log: log, sys: sys}
}

func (c *Controller) System() *fuzzy.System { return c.sys }

// Infer evaluates the rule base at temperature without clamping and without
// the boundary overrides applied by Process.
func (c *Controller) Infer(temperature float64) (float64, error) {
	t0 := time.Now()
	res := c.sys.Evaluate(map[string]float64{VarTemperature: temperature})
	ctlMetrics.evalSeconds.Observe(time.Since(t0).Seconds())
	return fuzzy.Result(res, VarSpeed)
}

// Process clamps temperature to [TemperatureMin, TemperatureMax] and computes
// the fan speed for it.
//
// At or below 5 °C and at or above 35 °C the speed follows a fixed linear
// ramp (0-200 RPM and 2500-3000 RPM) instead of the rule base. These values
// deliberately differ from what centroid defuzzification yields there; Infer
// exposes the pure inference result.
func (c *Controller) Process(temperature float64) Result {
	t := floats.Clamp(temperature, TemperatureMin, TemperatureMax)
	switch {
	case t <= lowOverrideLimit:
		return c.result(t*lowOverrideRPMPerDegree, ModeLowOverride)
	case t >= highOverrideLimit:
		return c.result(highOverrideBaseRPM+
			(t-highOverrideLimit)/(TemperatureMax-highOverrideLimit)*highOverrideSpanRPM,
			ModeHighOverride)
	}
	speed, err := c.Infer(t)
	if err != nil {
		c.log.Warn("fuzzy evaluation failed, using linear default",
			zap.Float64("temperature", t), zap.Error(err))
		return c.result(t/TemperatureMax*SpeedMax, ModeFallback)
	}
	return c.result(speed, ModeInference)
}

func (c *Controller) result(speed float64, mode Mode) Result {
	rpm := floats.Round(floats.Clamp(speed, SpeedMin, SpeedMax))
	r := Result{
		SpeedRPM:     int(rpm),
		SpeedPercent: int(floats.Round(rpm / SpeedMax * 100)),
		Mode:         mode,
	}
	ctlMetrics.reqs.WithLabelValues(mode.String()).Inc()
	c.log.Debug("processed temperature",
		zap.Stringer("mode", mode),
		zap.Float64("speed", speed),
		zap.Int("rpm", r.SpeedRPM),
		zap.Int("percent", r.SpeedPercent),
	)
	return r
}
