// Fuzzy fan speed service

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"example.com/fan-control/base/zaplog"

	"example.com/fan-control/benchmark"

	"example.com/fan-control/core/config"
	"example.com/fan-control/core/controller"
	"example.com/fan-control/core/fuzzy"
	"example.com/fan-control/core/server"
)

var (
	log *zap.Logger
)

func initLogger(verbose bool) {
	c := zap.NewDevelopmentConfig()
	c.DisableStacktrace = true
	c.EncoderConfig.EncodeCaller = func(
		caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		p := caller.TrimmedPath()
		if len(p) > 30 {
			p = "..." + p[len(p)-27:]
		}
		enc.AppendString(fmt.Sprintf("%30s", p))
	}
	if !verbose {
		c.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	var err error
	log, err = c.Build()
	if err != nil {
		panic(err)
	}
	zaplog.SetLogger(log)
}

func runMonitor(log *zap.Logger, metricsAddr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	err := http.ListenAndServe(metricsAddr, mux)
	log.Fatal("failed to serve metrics", zap.Error(err))
}

func loadConfig(configFile string) config.Config {
	if configFile == "" {
		return config.Default()
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal("failed to load configuration", zap.String("file", configFile), zap.Error(err))
	}
	return cfg
}

func newController(cfg config.Config) *controller.Controller {
	ctl, err := controller.New(log, resolutionOpts(cfg)...)
	if err != nil {
		log.Fatal("failed to configure fuzzy system", zap.Error(err))
	}
	for _, r := range ctl.System().Rules() {
		log.Debug("rule", zap.Stringer("rule", r), zap.Float64("weight", r.Weight()))
	}
	return ctl
}

func runServer(configFile string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig(configFile)
	ctl := newController(cfg)
	h, err := server.NewHandler(log, ctl, cfg)
	if err != nil {
		log.Fatal("failed to create handler", zap.Error(err))
	}
	done := server.StartHTTPServer(ctx, log, cfg.ListenAddr, h)

	go runMonitor(log, cfg.MetricsAddr)

	<-ctx.Done()
	log.Info("shutting down")
	<-done
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runTool(w io.Writer, ctl *controller.Controller, temperature float64, infer bool) error {
	res := ctl.Process(temperature)
	if !infer {
		return writeJSON(w, res)
	}
	speed, err := ctl.Infer(temperature)
	if err != nil {
		return err
	}
	return writeJSON(w, struct {
		controller.Result
		InferredSpeed float64 `json:"inferred_speed"`
	}{res, speed})
}

func runChart(w io.Writer, ctl *controller.Controller, points int) error {
	if points < 1 || points > config.MaxChartPoints {
		return fmt.Errorf("points out of range: %d", points)
	}
	return writeJSON(w, ctl.Chart(points))
}

func runBenchmark(configFile string, numGoroutine, numRequests int) {
	cfg := loadConfig(configFile)
	ctl, err := controller.New(zap.NewNop(), resolutionOpts(cfg)...)
	if err != nil {
		log.Fatal("failed to configure fuzzy system", zap.Error(err))
	}
	r, err := benchmark.Run(log, ctl, benchmark.Config{
		NumGoroutine:  numGoroutine,
		NumRequests:   numRequests,
		SweepSteps:    400,
		PercentileOut: os.Stdout,
	})
	if err != nil {
		log.Fatal("benchmark failed", zap.Error(err))
	}
	fmt.Println(r)
}

func resolutionOpts(cfg config.Config) []fuzzy.Option {
	if cfg.Resolution == 0 {
		return nil
	}
	return []fuzzy.Option{fuzzy.WithResolution(cfg.Resolution)}
}

func exitWithUsage() {
	fmt.Println("usage: fanservice server|tool|chart|benchmark [flags]")
	os.Exit(1)
}

func main() {
	var (
		verbose      bool
		configFile   string
		temperature  float64
		infer        bool
		points       int
		numGoroutine int
		numRequests  int
	)

	serverFlags := flag.NewFlagSet("server", flag.ExitOnError)
	toolFlags := flag.NewFlagSet("tool", flag.ExitOnError)
	chartFlags := flag.NewFlagSet("chart", flag.ExitOnError)
	benchmarkFlags := flag.NewFlagSet("benchmark", flag.ExitOnError)

	serverFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	serverFlags.StringVar(&configFile, "config", "", "Config file")

	toolFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	toolFlags.StringVar(&configFile, "config", "", "Config file")
	toolFlags.Float64Var(&temperature, "temperature", config.DefaultTemperature, "Temperature in °C")
	toolFlags.BoolVar(&infer, "infer", false, "Also report the pure inference result")

	chartFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	chartFlags.IntVar(&points, "points", config.DefaultChartPoints, "Number of sample intervals")

	benchmarkFlags.BoolVar(&verbose, "verbose", false, "Verbose logging")
	benchmarkFlags.StringVar(&configFile, "config", "", "Config file")
	benchmarkFlags.IntVar(&numGoroutine, "goroutines", 1, "Number of client goroutines")
	benchmarkFlags.IntVar(&numRequests, "requests", 1_000_000, "Number of requests per goroutine")

	if len(os.Args) < 2 {
		exitWithUsage()
	}

	switch os.Args[1] {
	case serverFlags.Name():
		err := serverFlags.Parse(os.Args[2:])
		if err != nil || serverFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		runServer(configFile)
	case toolFlags.Name():
		err := toolFlags.Parse(os.Args[2:])
		if err != nil || toolFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		ctl := newController(loadConfig(configFile))
		err = runTool(os.Stdout, ctl, temperature, infer)
		if err != nil {
			log.Fatal("failed to process temperature", zap.Error(err))
		}
	case chartFlags.Name():
		err := chartFlags.Parse(os.Args[2:])
		if err != nil || chartFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		ctl := newController(config.Default())
		err = runChart(os.Stdout, ctl, points)
		if err != nil {
			log.Fatal("failed to sample membership functions", zap.Error(err))
		}
	case benchmarkFlags.Name():
		err := benchmarkFlags.Parse(os.Args[2:])
		if err != nil || benchmarkFlags.NArg() != 0 {
			exitWithUsage()
		}
		initLogger(verbose)
		runBenchmark(configFile, numGoroutine, numRequests)
	default:
		exitWithUsage()
	}
}
