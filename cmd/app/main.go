package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cipher_go/internal/app"
	"cipher_go/internal/infra"

	"golang.org/x/sync/errgroup"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "configs/config.yaml", "path to the yaml config")
	from := flag.String("from", "", "token symbol to sell")
	to := flag.String("to", "", "token symbol to buy")
	amount := flag.String("amount", "", "amount of the sell token")
	unlimited := flag.Bool("unlimited", false, "approve an unlimited allowance when needed")
	flag.Parse()

	// 1. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. System Bootstrapping
	progress := newProgressPrinter(os.Stdout)
	bootstrap := app.NewBootstrap(*configPath)
	bootstrap.OnOrderUpdate = progress.OnUpdate
	if err := bootstrap.Initialize(ctx); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		bootstrap.Close()
		return 1
	}
	defer bootstrap.Close()

	cfg := bootstrap.Config
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		watchSession(gctx, bootstrap.Session, bootstrap.Logger)
		return nil
	})

	// 3. Coordinator (single owner of the active order)
	g.Go(func() error {
		return bootstrap.Coordinator.Run(gctx)
	})

	// 4. Metrics endpoint
	if cfg.Metrics.Enabled {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: bootstrap.Metrics.Handler()}
		g.Go(func() error {
			slog.Info("📈 Metrics server started", slog.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	// 5. Log subscription
	if bootstrap.Subscriber != nil {
		if err := bootstrap.Subscriber.Connect(gctx); err != nil {
			slog.Error("Failed to connect log subscription", slog.Any("error", err))
		}
		defer bootstrap.Subscriber.Disconnect()
		slog.Info("✅ Log subscription started")
	}

	// 6. Ledger expiry
	if cfg.Ledger.ExpireAfterMS > 0 {
		maxAge := infra.Millis(cfg.Ledger.ExpireAfterMS)
		g.Go(func() error {
			ticker := time.NewTicker(maxAge / 2)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case now := <-ticker.C:
					if n := bootstrap.Ledger.Expire(now, maxAge); n > 0 {
						slog.Info("Expired stale ledger entries", slog.Int("count", n))
					}
				}
			}
		})
	}

	// 7. One-shot order, or watch mode
	if *from != "" || *to != "" || *amount != "" {
		g.Go(func() error {
			defer stop()
			return runOrder(gctx, bootstrap, progress, orderFlags{
				From:      *from,
				To:        *to,
				Amount:    *amount,
				Unlimited: *unlimited,
			})
		})
	} else {
		slog.Info("✨ Coordinator running. Press Ctrl+C to exit.")
	}

	err := g.Wait()
	printLedger(os.Stdout, bootstrap)
	slog.Info("👋 Shutting down gracefully...")
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("❌ Exited with error", slog.Any("error", err))
		return 1
	}
	return 0
}
