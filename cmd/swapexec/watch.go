package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapexec/internal/config"
	"swapexec/internal/metrics"
	"swapexec/internal/model"
)

const (
	cmdExecute = ":execute"
	cmdClear   = ":clear"
	cmdQuit    = ":quit"
)

func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, a.metrics, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("watch start",
		zap.Bool("broadcast", a.executor != nil),
		zap.String("registry", cfg.Registry),
		zap.String("events", cfg.Events),
		zap.String("metrics_addr", cfg.MetricsAddr),
	)

	con := &console{w: cmd.OutOrStdout()}
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for update := range a.coordinator.Updates() {
			con.printUpdate(update)
		}
	}()

	lines := scanLines(cmd.InOrStdin())

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			switch strings.TrimSpace(line) {
			case cmdQuit:
				break loop
			case cmdClear:
				// The empty outcome disarms the gate.
				a.coordinator.Clear(ctx)
			case cmdExecute:
				d, err := a.gate.Execute(ctx)
				switch {
				case err != nil:
					con.printf("Execute:     failed - %v\n", err)
				case a.executor == nil:
					con.printf("Execute:     %s (no rpc configured, not broadcast)\n", d.TxID)
				default:
					nodeTxID, _ := a.executor.Submitted(d.TxID)
					con.printf("Execute:     %s broadcast as %s\n", d.TxID, nodeTxID)
				}
			default:
				a.coordinator.OnInputChanged(ctx, line)
			}
		}
	}

	a.coordinator.Close()
	<-printed
	return nil
}

// scanLines feeds r line by line until EOF.
func scanLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func serveMetrics(addr string, m *metrics.Metrics, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return srv
}

// console serializes writes from the update printer and the command loop.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

func (c *console) printUpdate(u model.Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "-- generation %d\n", u.Outcome.Generation)
	printOutcome(c.w, u.Outcome, u.Description)
	fmt.Fprintf(c.w, "Execute:     %s\n", enabledLabel(u.ExecuteEnabled))
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
