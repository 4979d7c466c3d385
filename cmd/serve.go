package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/chatlead/internal/model"
	"github.com/sells-group/chatlead/internal/pipeline"
)

var (
	servePort  int
	serveEvery time.Duration
)

// triggerResponse is the JSON body returned by the process-chats endpoint.
// Results always lists the full per-key outcomes by category; the counts
// appear only in the human-readable message.
type triggerResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	Results    triggerResults `json:"results"`
	DurationMS int64          `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
}

type triggerResults struct {
	Processed []model.KeyOutcome `json:"processed"`
	Skipped   []model.KeyOutcome `json:"skipped"`
	Errors    []model.KeyOutcome `json:"errors"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP trigger server",
	Long:  "Serves the process-chats trigger endpoint. With --every, also runs the pipeline on a fixed interval.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Server.Token == "" {
			return eris.New("server trigger token is required (CHATLEAD_SERVER_TOKEN)")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(chiMiddleware.RequestID)
		r.Use(chiMiddleware.RealIP)
		r.Use(chiMiddleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"}) //nolint:errcheck
		})

		trigger := bearerAuth(cfg.Server.Token, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			handleProcessChats(req.Context(), w, env.Pipeline)
		}))
		r.Method(http.MethodGet, "/api/process-chats", trigger)
		r.Method(http.MethodPost, "/api/process-chats", trigger)

		if serveEvery > 0 {
			go runTicker(ctx, env.Pipeline, serveEvery)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// bearerAuth rejects requests whose Authorization header does not carry the
// configured bearer token. Comparison is constant-time.
func bearerAuth(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"}) //nolint:errcheck
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleProcessChats runs one pipeline invocation and writes the summary.
// A held run lock or a scan failure is the only 500; per-key failures are
// reported inside a 200 body.
func handleProcessChats(ctx context.Context, w http.ResponseWriter, p *pipeline.Pipeline) {
	if cfg.Pipeline.RunTimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Pipeline.RunTimeoutSecs)*time.Second)
		defer cancel()
	}

	result, err := p.Run(ctx)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		zap.L().Error("triggered run failed", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(triggerResponse{ //nolint:errcheck
			Success: false,
			Message: "run aborted",
			Results: triggerResults{
				Processed: []model.KeyOutcome{},
				Skipped:   []model.KeyOutcome{},
				Errors:    []model.KeyOutcome{},
			},
			Error: err.Error(),
		})
		return
	}

	processed, skipped, errored := result.Counts()
	resp := triggerResponse{
		Success: true,
		Message: fmt.Sprintf("processed %d, skipped %d, %d errors", processed, skipped, errored),
		Results: triggerResults{
			Processed: result.Processed,
			Skipped:   result.Skipped,
			Errors:    result.Errors,
		},
		DurationMS: result.DurationMS,
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}

// runTicker triggers the pipeline on a fixed interval until ctx is done.
// Overlap protection comes from the run lock, not from the ticker.
func runTicker(ctx context.Context, p *pipeline.Pipeline, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	zap.L().Info("interval runner started", zap.Duration("every", every))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := p.Run(ctx); err != nil && !eris.Is(err, pipeline.ErrRunInProgress) {
				zap.L().Error("scheduled run failed", zap.Error(err))
			}
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().DurationVar(&serveEvery, "every", 0, "also run the pipeline on this interval (e.g. 5m)")
	rootCmd.AddCommand(serveCmd)
}
