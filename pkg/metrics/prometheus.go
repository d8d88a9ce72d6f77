package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dbehnke/ir-nexus/pkg/logger"
)

// PrometheusConfig holds Prometheus server configuration
type PrometheusConfig struct {
	Enabled bool
	Port    int
	Path    string
}

// PrometheusHandler handles Prometheus metrics HTTP requests
type PrometheusHandler struct {
	collector *Collector
}

// NewPrometheusHandler creates a new Prometheus handler
func NewPrometheusHandler(collector *Collector) *PrometheusHandler {
	return &PrometheusHandler{
		collector: collector,
	}
}

// ServeHTTP handles HTTP requests for metrics
func (h *PrometheusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	var output strings.Builder

	// Frame metrics
	output.WriteString("# HELP ir_frames_sent_total Frames transmitted per protocol\n")
	output.WriteString("# TYPE ir_frames_sent_total counter\n")
	for _, pc := range h.collector.framesByProtocol() {
		output.WriteString(fmt.Sprintf("ir_frames_sent_total{protocol=%q} %d\n", pc.protocol.String(), pc.count))
	}

	output.WriteString("# HELP ir_repeat_frames_total Repeat frames transmitted while keys were held\n")
	output.WriteString("# TYPE ir_repeat_frames_total counter\n")
	output.WriteString(fmt.Sprintf("ir_repeat_frames_total %d\n", h.collector.GetRepeatFrames()))

	output.WriteString("# HELP ir_symbols_sent_total Mark/space symbols emitted\n")
	output.WriteString("# TYPE ir_symbols_sent_total counter\n")
	output.WriteString(fmt.Sprintf("ir_symbols_sent_total %d\n", h.collector.GetSymbolsSent()))

	output.WriteString("# HELP ir_airtime_seconds_total Time spent transmitting with interrupts masked\n")
	output.WriteString("# TYPE ir_airtime_seconds_total counter\n")
	output.WriteString(fmt.Sprintf("ir_airtime_seconds_total %g\n", h.collector.GetAirtime().Seconds()))

	// Failure metrics
	output.WriteString("# HELP ir_encode_errors_total Key presses rejected by the encoder\n")
	output.WriteString("# TYPE ir_encode_errors_total counter\n")
	output.WriteString(fmt.Sprintf("ir_encode_errors_total %d\n", h.collector.GetEncodeErrors()))

	output.WriteString("# HELP ir_transmit_errors_total Frames the transmitter refused or failed\n")
	output.WriteString("# TYPE ir_transmit_errors_total counter\n")
	output.WriteString(fmt.Sprintf("ir_transmit_errors_total %d\n", h.collector.GetTransmitErrors()))

	// Request metrics
	output.WriteString("# HELP ir_requests_total Send requests received per source\n")
	output.WriteString("# TYPE ir_requests_total counter\n")
	sources, counts := h.collector.requestsBySource()
	for _, src := range sources {
		output.WriteString(fmt.Sprintf("ir_requests_total{source=%q} %d\n", src, counts[src]))
	}

	if last := h.collector.GetLastFrame(); !last.IsZero() {
		output.WriteString("# HELP ir_last_frame_timestamp_seconds Unix time of the last transmitted frame\n")
		output.WriteString("# TYPE ir_last_frame_timestamp_seconds gauge\n")
		output.WriteString(fmt.Sprintf("ir_last_frame_timestamp_seconds %d\n", last.Unix()))
	}

	_, _ = w.Write([]byte(output.String()))
}

// PrometheusServer is an HTTP server for Prometheus metrics
type PrometheusServer struct {
	config    PrometheusConfig
	collector *Collector
	log       *logger.Logger
	server    *http.Server
}

// NewPrometheusServer creates a new Prometheus metrics server
func NewPrometheusServer(config PrometheusConfig, collector *Collector, log *logger.Logger) *PrometheusServer {
	if log == nil {
		log = logger.Discard()
	}

	return &PrometheusServer{
		config:    config,
		collector: collector,
		log:       log.WithComponent("metrics"),
	}
}

// Start starts the Prometheus metrics server
func (s *PrometheusServer) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("Prometheus metrics server disabled")
		return nil
	}

	handler := NewPrometheusHandler(s.collector)
	mux := http.NewServeMux()
	mux.Handle(s.config.Path, handler)

	// Use a listener to get the actual port (useful for testing with port 0)
	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	actualPort := listener.Addr().(*net.TCPAddr).Port

	s.server = &http.Server{
		Handler: mux,
	}

	s.log.Info("Starting Prometheus metrics server",
		logger.Int("port", actualPort),
		logger.String("path", s.config.Path))

	// Start server
	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.log.Info("Shutting down Prometheus metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown error: %w", err)
		}
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

// Stop stops the Prometheus metrics server
func (s *PrometheusServer) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	}
}
