package benchmark

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"example.com/fan-control/base/zaplog"
	"example.com/fan-control/core/controller"
)

const (
	minLatencyNanos = 1
	maxLatencyNanos = 1_000_000_000
	sigFigs         = 3
)

type Config struct {
	NumGoroutine  int
	NumRequests   int
	SweepSteps    int
	PercentileOut io.Writer
}

type Report struct {
	Requests int64
	Elapsed  time.Duration
	Latency  *hdrhistogram.Histogram
}

func (r Report) String() string {
	rate := float64(r.Requests) / r.Elapsed.Seconds()
	return fmt.Sprintf("%s requests in %s (%s req/s), p50 %s, p99 %s, max %s",
		humanize.Comma(r.Requests),
		r.Elapsed.Round(time.Millisecond),
		humanize.Commaf(float64(int64(rate))),
		time.Duration(r.Latency.ValueAtQuantile(50)),
		time.Duration(r.Latency.ValueAtQuantile(99)),
		time.Duration(r.Latency.Max()),
	)
}

// Run processes a sweep of temperatures across the controller's input domain
// from NumGoroutine goroutines and records the latency of every call.
func Run(log *zap.Logger, ctl *controller.Controller, cfg Config) (Report, error) {
	if cfg.NumGoroutine < 1 || cfg.NumRequests < 1 || cfg.SweepSteps < 1 {
		return Report{}, fmt.Errorf("invalid benchmark configuration: %+v", cfg)
	}
	if log == nil {
		log = zaplog.Logger()
	}
	var mu sync.Mutex
	total := hdrhistogram.New(minLatencyNanos, maxLatencyNanos, sigFigs)
	errs := make([]error, cfg.NumGoroutine)
	sg := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(cfg.NumGoroutine)
	for i := 0; i != cfg.NumGoroutine; i++ {
		go func(i int) {
			defer wg.Done()
			hg := hdrhistogram.New(minLatencyNanos, maxLatencyNanos, sigFigs)
			<-sg
			span := controller.TemperatureMax - controller.TemperatureMin
			for j := 0; j != cfg.NumRequests; j++ {
				t := controller.TemperatureMin +
					span*float64((i+j)%(cfg.SweepSteps+1))/float64(cfg.SweepSteps)
				t0 := time.Now()
				_ = ctl.Process(t)
				err := hg.RecordValue(time.Since(t0).Nanoseconds())
				if err != nil {
					errs[i] = err
					return
				}
			}
			mu.Lock()
			defer mu.Unlock()
			total.Merge(hg)
		}(i)
	}
	t0 := time.Now()
	close(sg)
	wg.Wait()
	elapsed := time.Since(t0)
	for _, err := range errs {
		if err != nil {
			log.Info("failed to record histogram value", zap.Error(err))
			return Report{}, err
		}
	}
	if cfg.PercentileOut != nil {
		total.PercentilesPrint(cfg.PercentileOut, 1, 1000.0)
	}
	return Report{
		Requests: total.TotalCount(),
		Elapsed:  elapsed,
		Latency:  total,
	}, nil
}
