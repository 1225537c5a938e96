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

	"github.com/Brownie44l1/digit-api/internal/config"
	"github.com/Brownie44l1/digit-api/internal/handlers"
	"github.com/Brownie44l1/digit-api/internal/model"
)

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run returns instead of exiting so the model session is released on every
// path.
func run() error {
	// If running from cmd/server, go up two levels so relative model paths resolve
	if wd, err := os.Getwd(); err == nil && filepath.Base(wd) == "server" {
		if err := os.Chdir(filepath.Join(wd, "../..")); err != nil {
			return fmt.Errorf("failed to change to project root: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	modelPath, err := model.FindModel(cfg.ModelCandidates()...)
	if err != nil {
		return fmt.Errorf("failed to locate model: %w", err)
	}

	log.Printf("Loading model from: %s", modelPath)

	model.UseLibrary(cfg.ORTLibrary)
	modelServer, err := model.NewServer(modelPath, cfg.MetadataPath)
	if err != nil {
		return fmt.Errorf("failed to initialize model server: %w", err)
	}
	defer modelServer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.WatchModel {
		go func() {
			if err := model.Watch(ctx, modelServer.ModelPath(), modelServer); err != nil {
				log.Printf("Model watcher stopped: %v", err)
			}
		}()
	}

	handler := handlers.NewHandler(modelServer, cfg.CanvasSize, cfg.BrushSize)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", enableCORS(handler.Health))
	mux.HandleFunc("/predict", enableCORS(handler.Predict))
	mux.HandleFunc("/predict/image", enableCORS(handler.PredictFromImage))
	mux.HandleFunc("/predict/strokes", enableCORS(handler.PredictFromStrokes))
	mux.HandleFunc("/preview", enableCORS(handler.Preview))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Server starting on port %s", cfg.Port)
	log.Printf("Model loaded: %s", modelServer.ModelPath())
	log.Printf("Classes: %v", modelServer.Metadata.Classes)
	log.Println("Endpoints:")
	log.Println("  GET  /health          - Health check")
	log.Println("  POST /predict         - Raw array prediction")
	log.Println("  POST /predict/image   - Predict from a drawing upload")
	log.Println("  POST /predict/strokes - Predict from pen strokes")
	log.Println("  POST /preview         - Show the preprocessed drawing (?saliency=true adds an occlusion map)")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}
	return nil
}
