package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/fmuoria/interview-coach/internal/api"
	"github.com/fmuoria/interview-coach/internal/auth"
	"github.com/fmuoria/interview-coach/internal/config"
	"github.com/fmuoria/interview-coach/internal/ingestion"
	"github.com/fmuoria/interview-coach/internal/interview"
	"github.com/fmuoria/interview-coach/internal/scoring"
	"github.com/fmuoria/interview-coach/internal/secrets"
	"github.com/fmuoria/interview-coach/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("Interview Coach failed: %v", err)
	}
}

// loadConfig reads the config file and applies environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// serve runs the HTTP server until ctx is cancelled or a signal arrives.
func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	// one server per data dir
	lock := flock.New(filepath.Join(cfg.DataDir, "interview-coach.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock data dir: %w", err)
	}
	if !locked {
		return fmt.Errorf("data dir %s is in use by another instance", cfg.DataDir)
	}
	defer lock.Unlock()

	db, err := storage.Open(filepath.Join(cfg.DataDir, "interview.db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	questions, err := ingestion.LoadQuestions(cfg.Resolve(cfg.DatasetPath))
	if err != nil {
		return err
	}
	log.Printf("Loaded %d questions from %s", questions.Len(), cfg.DatasetPath)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	scorer, labels, closer, err := scoring.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build %s scorer: %w", cfg.Scorer, err)
	}
	defer closer.Close()

	store := interview.NewMemoryStore()
	manager, err := interview.NewManager(questions, scorer, store, interview.Options{
		Threshold: cfg.PassThreshold,
		Labels:    labels,
	})
	if err != nil {
		return err
	}

	limiter := api.NewClientLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	server := api.NewServer(manager, scorer, labels, api.Options{
		Auth:           auth.NewService(db, googleAuth(cfg)),
		Results:        db,
		Limiter:        limiter,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Starting Interview Coach on port %s (scorer=%s, questions=%d, threshold=%d)",
			cfg.Port, cfg.Scorer, manager.Questions(), manager.Threshold())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return interview.RunSweeper(gctx, "sessions", store, cfg.SessionTTL(), cfg.SweepInterval())
	})

	if limiter != nil {
		g.Go(func() error {
			return interview.RunSweeper(gctx, "clients", limiter, 10*time.Minute, cfg.SweepInterval())
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Printf("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// googleAuth returns nil when Google sign-in is not configured or its
// client secret cannot be found.
func googleAuth(cfg *config.Config) *auth.GoogleAuth {
	if !cfg.GoogleSignInEnabled() {
		return nil
	}

	secret, err := secrets.GoogleClientSecret(cfg.GoogleClientID, cfg.GoogleClientSecret)
	if err != nil {
		log.Printf("[auth] Google sign-in disabled: %v", err)
		return nil
	}

	g, err := auth.NewGoogleAuth(cfg.GoogleClientID, secret, cfg.GoogleRedirectURL)
	if err != nil {
		log.Printf("[auth] Google sign-in disabled: %v", err)
		return nil
	}
	return g
}
