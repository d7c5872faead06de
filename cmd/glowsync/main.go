package main

import (
	"context"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/glowsync/internal/capture"
	"github.com/coreman2200/glowsync/internal/config"
	"github.com/coreman2200/glowsync/internal/device"
	"github.com/coreman2200/glowsync/internal/engine"
	"github.com/coreman2200/glowsync/internal/openrgb"
	"github.com/coreman2200/glowsync/internal/tui"
	"github.com/coreman2200/glowsync/internal/ws"
)

// sessionHolder hands the status endpoints a stable handle while the TUI
// tears sessions down and rebuilds them between menu visits.
type sessionHolder struct {
	mu sync.Mutex
	s  *engine.Session
}

func (h *sessionHolder) set(s *engine.Session) {
	h.mu.Lock()
	h.s = s
	h.mu.Unlock()
}

func (h *sessionHolder) status() engine.Status {
	h.mu.Lock()
	s := h.s
	h.mu.Unlock()
	if s == nil {
		return engine.Status{}
	}
	return s.Status()
}

func main() {
	var (
		configPath = flag.String("config", config.DefaultPath(), "path to config.yaml")
		sinkName   = flag.String("sink", "openrgb", "sink: openrgb | spi | sim")
		spiDev     = flag.String("spi-dev", "/dev/spidev0.0", "SPI port for -sink spi")
		headless   = flag.Bool("headless", false, "run without the TUI, stop on SIGINT/SIGTERM")
		addr       = flag.String("addr", ":8080", "HTTP listen address for /ws and /health")
	)
	flag.Parse()

	// ---- Logging ----
	// The TUI owns the terminal, so console output only makes sense headless.
	zerolog.TimeFieldFormat = time.RFC3339
	var log zerolog.Logger
	if *headless {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	} else {
		log = zerolog.New(io.Discard)
	}

	// ---- Config ----
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; using defaults")
	}
	cfg = cfg.Normalize()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Status endpoints ----
	holder := &sessionHolder{}
	wsrv := ws.NewServer(holder.status, log)
	mux := http.NewServeMux()
	wsrv.Routes(mux)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go wsrv.Run(ctx)
	go func() {
		log.Info().Str("addr", *addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server crashed")
		}
	}()
	defer srv.Close()

	if *headless {
		runHeadless(ctx, cfg, *sinkName, *spiDev, holder, log)
		return
	}
	runTUI(ctx, &cfg, *configPath, *sinkName, *spiDev, holder, log)
}

func runHeadless(ctx context.Context, cfg config.Config, sinkName, spiDev string, holder *sessionHolder, log zerolog.Logger) {
	sink, cleanup := buildSink(cfg, sinkName, spiDev, log)
	defer cleanup()

	src, err := capture.NewScreen(cfg.MonitorIndex)
	if err != nil {
		log.Error().Err(err).Msg("no frame source available")
		return
	}
	session, err := engine.NewSession(cfg.Sync(), src, sink, log)
	if err != nil {
		log.Error().Err(err).Msg("session rejected config")
		return
	}
	holder.set(session)
	_ = session.Run(ctx)
}

func runTUI(ctx context.Context, cfg *config.Config, configPath, sinkName, spiDev string, holder *sessionHolder, log zerolog.Logger) {
	ui, err := tui.New(cfg, configPath)
	if err != nil {
		log.Error().Err(err).Msg("terminal init failed")
		return
	}
	defer ui.Close()

	for ctx.Err() == nil {
		res, err := ui.RunMenu()
		if err != nil || res == tui.MenuQuit {
			return
		}

		sink, cleanup := buildSink(*cfg, sinkName, spiDev, log)
		src, err := capture.NewScreen(cfg.MonitorIndex)
		if err != nil {
			cleanup()
			continue
		}
		session, err := engine.NewSession(cfg.Sync(), src, sink, log)
		if err != nil {
			cleanup()
			continue
		}
		holder.set(session)

		syncCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = session.Run(syncCtx)
		}()
		res2 := ui.RunSync(syncCtx, session.Status)
		cancel()
		<-done
		cleanup()

		if res2 == tui.SyncQuit {
			return
		}
	}
}

// buildSink picks the device sink, falling back to the simulator when the
// hardware path is unavailable so a bad cable never blocks iterating on the
// capture side.
func buildSink(cfg config.Config, sinkName, spiDev string, log zerolog.Logger) (engine.DeviceSink, func()) {
	switch sinkName {
	case "sim":
		return device.NewSim(log), func() {}

	case "spi":
		drv, err := device.NewSPI(spiDev, cfg.NumLEDs)
		if err != nil {
			log.Warn().Err(err).Str("dev", spiDev).Msg("SPI init failed; falling back to sim")
			return device.NewSim(log), func() {}
		}
		return drv, func() { _ = drv.Close() }

	case "openrgb":
		client, err := openrgb.Dial(cfg.OpenRGBHost, cfg.OpenRGBPort)
		if err != nil {
			log.Warn().Err(err).
				Str("host", cfg.OpenRGBHost).
				Int("port", cfg.OpenRGBPort).
				Msg("OpenRGB connect failed; falling back to sim")
			return device.NewSim(log), func() {}
		}
		if err := client.SetName("glowsync"); err != nil {
			log.Warn().Err(err).Msg("OpenRGB client name not accepted")
		}
		idx, err := client.FindDevice(cfg.DeviceName)
		if err != nil {
			log.Warn().Err(err).Str("device", cfg.DeviceName).Msg("no matching controller; falling back to sim")
			_ = client.Close()
			return device.NewSim(log), func() {}
		}
		if err := client.SetCustomMode(idx); err != nil {
			log.Warn().Err(err).Msg("custom mode not accepted; continuing anyway")
		}
		log.Info().Uint32("controller", idx).Str("device", cfg.DeviceName).Msg("OpenRGB controller selected")
		return openrgb.NewSink(client, idx), func() { _ = client.Close() }

	default:
		log.Warn().Str("sink", sinkName).Msg("unknown sink; using sim")
		return device.NewSim(log), func() {}
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
