package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"github.com/libp2p/go-reuseport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"example.com/fan-control/base/floats"
	"example.com/fan-control/base/metrics"
	"example.com/fan-control/base/zaplog"

	"example.com/fan-control/core/config"
	"example.com/fan-control/core/controller"
)

const (
	endpointProcess = "/api/process"
	endpointChart   = "/api/chart"

	requestIDHeader = "X-Request-ID"

	shutdownTimeout = 5 * time.Second
)

var (
	errTemperature = errors.New("temperature is not a finite number")
	errChartPoints = errors.New("points out of range")
)

var httpMetrics = struct {
	reqsServed *prometheus.CounterVec
	reqsFailed prometheus.Counter
	cacheHits  prometheus.Counter
}{
	reqsServed: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: metrics.ServerReqsServedN,
		Help: metrics.ServerReqsServedH,
	}, []string{"endpoint"}),
	reqsFailed: promauto.NewCounter(prometheus.CounterOpts{
		Name: metrics.ServerReqsFailedN,
		Help: metrics.ServerReqsFailedH,
	}),
	cacheHits: promauto.NewCounter(prometheus.CounterOpts{
		Name: metrics.ServerCacheHitsN,
		Help: metrics.ServerCacheHitsH,
	}),
}

// A Handler serves the fan controller over HTTP.
//
//	GET|POST /api/process?temperature=t  -> {"speed_rpm", "speed_percent", "mode"}
//	GET      /api/chart?points=n         -> membership functions of all variables
type Handler struct {
	log                *zap.Logger
	ctl                *controller.Controller
	cache              *lru.Cache
	defaultTemperature float64
	mux                *http.ServeMux
}

func NewHandler(log *zap.Logger, ctl *controller.Controller, cfg config.Config) (*Handler, error) {
	if log == nil {
		log = zaplog.Logger()
	}
	size := cfg.CacheSize
	if size == 0 {
		size = config.DefaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	t := config.DefaultTemperature
	if cfg.DefaultTemperature != nil {
		t = *cfg.DefaultTemperature
	}
	h := &Handler{
		log:                log,
		ctl:                ctl,
		cache:              cache,
		defaultTemperature: t,
		mux:                http.NewServeMux(),
	}
	h.mux.HandleFunc(endpointProcess, h.handleProcess)
	h.mux.HandleFunc(endpointChart, h.handleChart)
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := r.Header.Get(requestIDHeader)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	w.Header().Set(requestIDHeader, reqID)
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) temperature(r *http.Request) (float64, error) {
	s := strings.TrimSpace(r.FormValue("temperature"))
	if s == "" {
		return h.defaultTemperature, nil
	}
	t, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, errTemperature
	}
	return t, nil
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get(requestIDHeader)
	t, err := h.temperature(r)
	if err != nil {
		httpMetrics.reqsFailed.Inc()
		h.log.Info("rejected request", zap.String("id", reqID), zap.Error(err))
		http.Error(w, "invalid temperature", http.StatusBadRequest)
		return
	}
	t = floats.Clamp(t, controller.TemperatureMin, controller.TemperatureMax)

	var res controller.Result
	if v, ok := h.cache.Get(t); ok {
		res = v.(controller.Result)
		httpMetrics.cacheHits.Inc()
	} else {
		res = h.ctl.Process(t)
		h.cache.Add(t, res)
	}
	h.log.Debug("processed request",
		zap.String("id", reqID),
		zap.Float64("temperature", t),
		zap.Int("rpm", res.SpeedRPM),
		zap.Stringer("mode", res.Mode),
	)
	h.writeJSON(w, endpointProcess, res)
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	n := config.DefaultChartPoints
	if s := r.FormValue("points"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > config.MaxChartPoints {
			httpMetrics.reqsFailed.Inc()
			h.log.Info("rejected request",
				zap.String("id", w.Header().Get(requestIDHeader)), zap.Error(errChartPoints))
			http.Error(w, "invalid points", http.StatusBadRequest)
			return
		}
		n = v
	}
	h.writeJSON(w, endpointChart, h.ctl.Chart(n))
}

func (h *Handler) writeJSON(w http.ResponseWriter, endpoint string, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.log.Info("failed to write response", zap.Error(err))
		return
	}
	httpMetrics.reqsServed.WithLabelValues(endpoint).Inc()
}

func runHTTPServer(ctx context.Context, log *zap.Logger, srv *http.Server, done chan<- struct{}) {
	ln, err := reuseport.Listen("tcp", srv.Addr)
	if err != nil {
		log.Fatal("failed to listen", zap.String("address", srv.Addr), zap.Error(err))
	}
	go func() {
		defer close(done)
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		if err != nil {
			log.Info("failed to shut down gracefully", zap.Error(err))
		}
	}()
	err = srv.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("failed to serve", zap.Error(err))
	}
}

// StartHTTPServer serves h on localAddr until ctx is done. The returned
// channel is closed once in-flight requests have drained or shutdownTimeout
// has passed.
func StartHTTPServer(ctx context.Context, log *zap.Logger, localAddr string, h http.Handler) <-chan struct{} {
	log.Info("server listening via HTTP", zap.String("local address", localAddr))
	srv := &http.Server{
		Addr:              localAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	done := make(chan struct{})
	go runHTTPServer(ctx, log, srv, done)
	return done
}
