package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dcrubro/ftc-driver-hub/internal/capture"
	"github.com/dcrubro/ftc-driver-hub/internal/config"
	"github.com/dcrubro/ftc-driver-hub/internal/engine"
	"github.com/dcrubro/ftc-driver-hub/internal/feed"
	"github.com/dcrubro/ftc-driver-hub/internal/httpapi"
	"github.com/dcrubro/ftc-driver-hub/internal/recorder"
	"github.com/dcrubro/ftc-driver-hub/internal/station"
	"github.com/dcrubro/ftc-driver-hub/internal/transport"
)

const readyTimeout = 5 * time.Second

type connectFlags struct {
	port        int
	localPort   int
	tickHz      int
	heartbeatHz int
	noGamepad   bool
	noHeartbeat bool
	httpAddr    string
	httpToken   string
	recordPath  string
	minSDK      string
	noConsole   bool
}

func connectCmd(opts *rootOptions) *cobra.Command {
	var f connectFlags
	cmd := &cobra.Command{
		Use:   "connect [host]",
		Short: "Connect to a robot controller",
		Long: `Connect to a robot controller and keep the session alive until
interrupted. When stdin is a terminal an interactive console accepts
op-mode and gamepad commands (type "help").

Examples:
  ftchub connect 192.168.43.1
  ftchub connect --http :8080 --record ~/.local/share/ftchub/sessions.db
  ftchub connect --no-console --http 127.0.0.1:8080`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Robot.Host = args[0]
			}
			f.apply(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			log, err := opts.logger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runConnect(ctx, cfg, !f.noConsole, log)
		},
	}
	cmd.Flags().IntVarP(&f.port, "port", "p", 0, "robot UDP port")
	cmd.Flags().IntVar(&f.localPort, "local-port", 0, "local UDP port (0 in config picks any)")
	cmd.Flags().IntVar(&f.tickHz, "tick-hz", 0, "gamepad send rate")
	cmd.Flags().IntVar(&f.heartbeatHz, "heartbeat-hz", 0, "heartbeat send rate")
	cmd.Flags().BoolVar(&f.noGamepad, "no-gamepad", false, "do not send gamepad snapshots")
	cmd.Flags().BoolVar(&f.noHeartbeat, "no-heartbeat", false, "do not send heartbeats")
	cmd.Flags().StringVar(&f.httpAddr, "http", "", "serve the status API on this address")
	cmd.Flags().StringVar(&f.httpToken, "http-token", "", "bearer token required by the status API")
	cmd.Flags().StringVar(&f.recordPath, "record", "", "record events to this sqlite database")
	cmd.Flags().StringVar(&f.minSDK, "min-sdk", "", "required robot SDK version constraint, e.g. \">= 8.1\"")
	cmd.Flags().BoolVar(&f.noConsole, "no-console", false, "do not start the interactive console")
	return cmd
}

// apply overlays flags the user set on cfg.
func (f connectFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("port") {
		cfg.Robot.Port = f.port
	}
	if changed("local-port") {
		cfg.Robot.LocalPort = f.localPort
	}
	if changed("tick-hz") {
		cfg.Engine.TickHz = f.tickHz
	}
	if changed("heartbeat-hz") {
		cfg.Engine.HeartbeatHz = f.heartbeatHz
	}
	if f.noGamepad {
		cfg.Engine.SendGamepad = false
	}
	if f.noHeartbeat {
		cfg.Engine.SendHeartbeat = false
	}
	if changed("http") {
		cfg.HTTP.Addr = f.httpAddr
	}
	if changed("http-token") {
		cfg.HTTP.Token = f.httpToken
	}
	if changed("record") {
		cfg.Record.Path = f.recordPath
	}
	if changed("min-sdk") {
		cfg.Station.MinSDK = f.minSDK
	}
}

func runConnect(ctx context.Context, cfg config.Config, interactive bool, log *zap.Logger) error {
	ec, err := cfg.EngineConfig()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	st, err := station.New(station.Options{
		Logger:            log,
		MinSDK:            cfg.Station.MinSDK,
		TelemetryCapacity: cfg.Station.TelemetryCapacity,
		StackTraceLines:   cfg.Station.StackTraceLines,
	})
	if err != nil {
		return err
	}

	engineOpts := []engine.Option{
		engine.WithLogger(log),
		engine.WithMetrics(engine.NewMetrics(reg)),
		engine.WithHandlers(st.Handlers()),
	}
	var ring *capture.Ring
	if cfg.Capture.Size > 0 {
		ring = capture.NewWithLimit(cfg.Capture.Size, capture.DefaultMaxBytes)
		engineOpts = append(engineOpts, engine.WithObserver(ring))
	}
	eng := engine.New(ec, transport.NewUDP(cfg.Robot.LocalPort, log), engineOpts...)
	st.Attach(eng)

	hub := feed.NewHub(log)
	go hub.Run(ctx)
	feedEvents, unsubscribeFeed := st.Subscribe(256)
	defer unsubscribeFeed()
	go hub.Forward(ctx, feedEvents)

	var history httpapi.History
	if cfg.Record.Path != "" {
		rec, err := recorder.Open(cfg.Record.Path, log)
		if err != nil {
			return err
		}
		session, err := rec.StartSession(ctx, cfg.Robot.Host, cfg.Robot.Port)
		if err != nil {
			rec.Close()
			return err
		}
		recEvents, unsubscribeRec := st.Subscribe(1024)
		recDone := rec.Follow(ctx, session.ID, recEvents)
		defer func() {
			unsubscribeRec()
			<-recDone
			if err := rec.EndSession(context.Background(), session.ID); err != nil {
				log.Warn("end session", zap.Error(err))
			}
			if err := rec.Close(); err != nil {
				log.Warn("close recorder", zap.Error(err))
			}
		}()
		history = rec
	}

	if cfg.HTTP.Addr != "" {
		api := httpapi.New(httpapi.Options{
			Station:  st,
			Capture:  ring,
			Feed:     http.HandlerFunc(hub.ServeWS),
			History:  history,
			Gatherer: reg,
			Token:    cfg.HTTP.Token,
			Logger:   log,
		})
		srv, err := serveHTTP(cfg.HTTP.Addr, api.Handler(), log)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if err := st.Connect(ctx); err != nil {
		return fmt.Errorf("connect %s:%d: %w", cfg.Robot.Host, cfg.Robot.Port, err)
	}
	defer func() {
		if err := st.Disconnect(); err != nil {
			log.Warn("disconnect", zap.Error(err))
		}
	}()

	go func() {
		readyCtx, cancel := context.WithTimeout(ctx, readyTimeout)
		defer cancel()
		if err := eng.WaitReady(readyCtx); err != nil {
			if ctx.Err() == nil {
				log.Warn("no heartbeat sent yet", zap.Duration("waited", readyTimeout))
			}
			return
		}
		log.Info("session ready", zap.String("host", cfg.Robot.Host))
	}()

	if interactive && isTerminal(os.Stdin) {
		c := &console{st: st, out: os.Stdout}
		return c.run(ctx, os.Stdin)
	}
	<-ctx.Done()
	return nil
}

// serveHTTP binds addr and serves h in the background.
func serveHTTP(addr string, h http.Handler, log *zap.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", zap.Error(err))
		}
	}()
	log.Info("http api listening", zap.String("addr", ln.Addr().String()))
	return srv, nil
}
