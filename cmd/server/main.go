package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/waitline/internal/config"
	"github.com/rpggio/waitline/internal/domain/activity"
	"github.com/rpggio/waitline/internal/domain/member"
	"github.com/rpggio/waitline/internal/domain/queue"
	"github.com/rpggio/waitline/internal/domain/ticket"
	"github.com/rpggio/waitline/internal/mcp"
	"github.com/rpggio/waitline/internal/memstore"
	"github.com/rpggio/waitline/internal/metrics"
	"github.com/rpggio/waitline/internal/redisstore"
	"github.com/rpggio/waitline/internal/sqlite"
	"github.com/rpggio/waitline/internal/transport"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == config.ModeStdio {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, err := newLogFileWriter(cfg.Log.Path, cfg.Log.MaxBytes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer fileWriter.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "driver", cfg.DB.Driver, "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	recorder := metrics.New()
	memberSvc := member.NewService(stores.members, logger)
	queueSvc := queue.NewService(stores.queues, memberSvc, logger)
	activitySvc := activity.NewService(stores.activities, logger)
	ticketSvc := ticket.NewService(ticket.Dependencies{
		Store:      stores.tickets,
		Members:    memberSvc,
		Queues:     queueSvc,
		Activities: stores.activities,
		Observer:   recorder,
	}, ticket.Config{
		ServeRequiresAdmitter: cfg.Tickets.ServeRequiresAdmitter,
	}, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Members:  memberSvc,
			Queues:   queueSvc,
			Tickets:  ticketSvc,
			Activity: activitySvc,
		},
		Logger:  logger,
		Version: version,
	})

	if cfg.Transport.Mode == config.ModeStdio {
		if err := runStdioMode(ctx, logger, mcpServer); err != nil {
			logger.Error("stdio server error", "error", err)
			os.Exit(1)
		}
		return
	}

	var limiter *transport.JoinLimiter
	if cfg.Limits.JoinRate > 0 {
		limiter = transport.NewJoinLimiter(cfg.Limits.JoinRate, cfg.Limits.JoinBurst)
		limiter.StartJanitor(ctx)
	}

	router := transport.NewServer(transport.Services{
		Members:  memberSvc,
		Queues:   queueSvc,
		Tickets:  ticketSvc,
		Activity: activitySvc,
	}, transport.Options{
		Logger:      logger,
		Metrics:     recorder,
		JoinLimiter: limiter,
		MCP: sdkmcp.NewStreamableHTTPHandler(
			func(*http.Request) *sdkmcp.Server { return mcpServer },
			&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
		),
	})

	if err := runHTTPMode(ctx, logger, router, fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

type stores struct {
	members    member.Repository
	queues     queue.Repository
	tickets    ticket.Store
	activities activity.Repository
	closers    []func() error
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

// openStores selects the storage backend. The redis driver keeps tickets in
// Redis and members, queues and activity in SQLite.
func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.DB.Driver == config.DriverMemory {
		mem := memstore.New()
		logger.Warn("using in-memory storage; data is lost on exit")
		return &stores{
			members:    mem.Members(),
			queues:     mem.Queues(),
			tickets:    mem.Tickets(),
			activities: mem.Activities(),
		}, nil
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	s := &stores{
		members:    sqlite.NewMemberRepository(db),
		queues:     sqlite.NewQueueRepository(db),
		tickets:    sqlite.NewTicketStore(db),
		activities: sqlite.NewActivityRepository(db),
		closers:    []func() error{db.Close},
	}
	if err := db.RunMigrations(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if cfg.DB.Driver == config.DriverRedis {
		rs, err := redisstore.Open(ctx, cfg.DB.RedisAddr, cfg.DB.RedisPrefix)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.tickets = rs
		s.closers = append(s.closers, rs.Close)
		logger.Info("ticket ledger in redis", "addr", cfg.DB.RedisAddr)
	}
	return s, nil
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	// Run blocks until stdin closes or ctx is canceled.
	err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, handler http.Handler, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
