package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/vadiminshakov/coinfolio/internal/domain"
)

const (
	snapshotPollInterval = 2 * time.Second
	heartbeatInterval    = 30 * time.Second
	// fullHistory snapshots at the end of the history are never thinned.
	fullHistory = 100
)

type valueSnapshotReader interface {
	SnapshotsAfter(index uint64) ([]domain.ValueSnapshotRecord, error)
}

type valueSubscriber interface {
	Subscribe() chan domain.ValueSnapshot
	Unsubscribe(ch chan domain.ValueSnapshot)
}

// Server exposes HTTP endpoints serving the HTML UI, the value history and an SSE stream.
type Server struct {
	Addr         string
	Store        valueSnapshotReader
	Broadcaster  valueSubscriber
	PollInterval time.Duration
	logger       *zap.Logger
}

// NewServer creates a new web server instance. broadcaster may be nil, in which
// case new snapshots are picked up by polling only.
func NewServer(addr string, store valueSnapshotReader, broadcaster valueSubscriber, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Addr:         addr,
		Store:        store,
		Broadcaster:  broadcaster,
		PollInterval: snapshotPollInterval,
		logger:       logger,
	}
}

// Handler returns the routes of the dashboard.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/values", s.handleValues)
	mux.HandleFunc("/values/stream", s.handleValueStream)
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("dashboard listening", zap.String("addr", s.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS serves the dashboard over HTTPS with certificates obtained
// via ACME. A second server on :80 answers HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12
	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("acme server shutdown", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("dashboard shutdown", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("acme server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("dashboard listening with automatic TLS",
		zap.String("addr", s.Addr), zap.Strings("domains", domains))
	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "snapshot store not available")
		return
	}

	records, err := s.Store.SnapshotsAfter(0)
	if err != nil {
		s.logger.Error("load value history", zap.Error(err))
		http.Error(w, "failed to load snapshots", http.StatusInternalServerError)
		return
	}

	records = thinRecords(records)
	snapshots := make([]domain.ValueSnapshot, 0, len(records))
	for _, record := range records {
		snapshots = append(snapshots, record.Snapshot)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshots); err != nil {
		s.logger.Warn("write value history", zap.Error(err))
	}
}

func (s *Server) handleValueStream(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "snapshot store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat so proxies keep connection
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	pollInterval := s.PollInterval
	if pollInterval <= 0 {
		pollInterval = snapshotPollInterval
	}
	pollTicker := time.NewTicker(pollInterval)
	defer pollTicker.Stop()

	// a published snapshot only wakes the stream; the store stays the source of truth
	var wake chan domain.ValueSnapshot
	if s.Broadcaster != nil {
		wake = s.Broadcaster.Subscribe()
		defer s.Broadcaster.Unsubscribe(wake)
	}

	// a reconnecting browser resumes after the last event it saw
	lastIndex := parseLastEventID(r.Header.Get("Last-Event-ID"), r.URL.Query().Get("lastEventId"))
	thin := lastIndex == 0
	sendSnapshots := func() error {
		records, err := s.Store.SnapshotsAfter(lastIndex)
		if err != nil {
			return err
		}
		if thin {
			records = thinRecords(records)
			thin = false
		}
		for _, record := range records {
			payload, err := json.Marshal(record.Snapshot)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "id: %d\n", record.Index)
			fmt.Fprintf(w, "event: value\n")
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = record.Index
		}
		return nil
	}

	if err := sendSnapshots(); err != nil {
		http.Error(w, "failed to load snapshots", http.StatusInternalServerError)
		s.logger.Error("value stream initial load", zap.Error(err))
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-wake:
			if err := sendSnapshots(); err != nil {
				s.logger.Warn("value stream push", zap.Error(err))
			}
		case <-pollTicker.C:
			if err := sendSnapshots(); err != nil {
				s.logger.Warn("value stream poll", zap.Error(err))
			}
		}
	}
}

// parseLastEventID reads the SSE event id from the Last-Event-ID header, or
// from a query parameter for manual reconnects.
func parseLastEventID(headerVal, queryVal string) uint64 {
	idStr := strings.TrimSpace(headerVal)
	if idStr == "" {
		idStr = strings.TrimSpace(queryVal)
	}
	if idStr == "" {
		return 0
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// thinRecords keeps the last fullHistory records and exponentially thins
// the older ones.
func thinRecords(records []domain.ValueSnapshotRecord) []domain.ValueSnapshotRecord {
	if len(records) <= fullHistory {
		return records
	}

	older := records[:len(records)-fullHistory]
	var thinned []domain.ValueSnapshotRecord

	skip := 1
	for i := len(older) - 1; i >= 0; i-- {
		thinned = append(thinned, older[i])
		i -= skip
		// double the gap every 12 records
		if (len(older)-1-i)%12 == 0 {
			skip *= 2
		}
	}

	// collected newest first
	for l, r := 0, len(thinned)-1; l < r; l, r = l+1, r-1 {
		thinned[l], thinned[r] = thinned[r], thinned[l]
	}
	return append(thinned, records[len(records)-fullHistory:]...)
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Coinfolio</title>
  <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
  <style>
    body { margin:0; padding:2rem; font-family:'Space Mono','JetBrains Mono',monospace; background:#fff; color:#111; }
    #app { max-width:1100px; margin:0 auto; border:3px solid #111; padding:1.5rem; box-shadow:12px 12px 0 rgba(0,0,0,.15); }
    .stats { display:flex; gap:2rem; margin-bottom:1rem; }
    .stat span { display:block; font-size:.75rem; color:#4d4d4d; text-transform:uppercase; }
    .stat b { font-size:1.4rem; }
    .up { color:#0a7d32; } .down { color:#b3261e; }
  </style>
</head>
<body>
<div id="app">
  <h1>Portfolio</h1>
  <div class="stats">
    <div class="stat"><span>Spent</span><b id="spent">-</b></div>
    <div class="stat"><span>Value</span><b id="value">-</b></div>
    <div class="stat"><span>Gain</span><b id="gain">-</b></div>
    <div class="stat"><span>Gain %</span><b id="gainpct">-</b></div>
  </div>
  <canvas id="chart" height="120"></canvas>
</div>
<script>
  const money = (v) => '$' + Number(v).toFixed(2);
  const chart = new Chart(document.getElementById('chart'), {
    type: 'line',
    data: { labels: [], datasets: [
      { label: 'Value', data: [], borderColor: '#111', tension: .2, pointRadius: 0 },
      { label: 'Spent', data: [], borderColor: '#9c9c9c', borderDash: [4, 4], pointRadius: 0 },
    ]},
    options: { animation: false, scales: { x: { ticks: { maxTicksLimit: 8 } } } },
  });

  function render(s) {
    chart.data.labels.push(new Date(s.ts).toLocaleString());
    chart.data.datasets[0].data.push(Number(s.value));
    chart.data.datasets[1].data.push(Number(s.spent));
    chart.update();

    document.getElementById('spent').textContent = money(s.spent);
    document.getElementById('value').textContent = money(s.value);
    const gain = document.getElementById('gain');
    gain.textContent = money(s.gain);
    gain.className = Number(s.gain) < 0 ? 'down' : 'up';
    const pct = document.getElementById('gainpct');
    pct.textContent = Number(s.gain_percent).toFixed(2) + '%';
    pct.className = gain.className;
  }

  const source = new EventSource('/values/stream');
  source.addEventListener('value', (event) => render(JSON.parse(event.data)));
  source.addEventListener('error', () => console.warn('value stream interrupted, retrying'));
</script>
</body>
</html>
`
