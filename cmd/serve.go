package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/valuation-cli/internal/fetcher"
	"github.com/sells-group/valuation-cli/internal/model"
	"github.com/sells-group/valuation-cli/internal/pipeline"
	"github.com/sells-group/valuation-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the extraction HTTP server",
	Long:  "Accepts workbook uploads, runs the extraction pipeline asynchronously, and exposes run history.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		srv := newServer(st)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		httpSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           srv.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "serve: listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type server struct {
	store   store.Store
	uploads *rate.Limiter
	tempDir string
}

func newServer(st store.Store) *server {
	perSec := cfg.Server.UploadsPerSec
	if perSec <= 0 {
		perSec = 2
	}
	return &server{
		store:   st,
		uploads: rate.NewLimiter(rate.Limit(perSec), int(perSec)+1),
		tempDir: os.TempDir(),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/extract", s.handleExtract)
	})
	r.Get("/runs", s.handleListRuns)
	r.Get("/runs/{runID}", s.handleGetRun)

	return r
}

func (s *server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.uploads.Allow() {
			writeJSONError(w, http.StatusTooManyRequests, "upload rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleExtract accepts a multipart form with one or more workbook files
// under the "files" field, queues a run, and returns its ID immediately.
func (s *server) handleExtract(w http.ResponseWriter, r *http.Request) {
	const maxUpload = 64 << 20
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeJSONError(w, http.StatusBadRequest, "at least one file is required")
		return
	}

	var workbooks []model.Workbook
	var filenames []string
	for _, fh := range files {
		wb, err := s.loadUpload(fh.Filename, fh)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("read %s: %v", fh.Filename, err))
			return
		}
		workbooks = append(workbooks, *wb)
		filenames = append(filenames, fh.Filename)
	}

	run, err := s.store.CreateRun(r.Context(), filenames)
	if err != nil {
		zap.L().Error("serve: create run", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to create run")
		return
	}

	marketTier := r.FormValue("market_tier")
	if marketTier == "" {
		marketTier = cfg.Benchmark.MarketTier
	}

	go s.runExtraction(run.ID, workbooks, marketTier)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id": run.ID,
		"status": string(model.RunStatusQueued),
	})
}

func (s *server) loadUpload(name string, fh *multipart.FileHeader) (*model.Workbook, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, eris.Wrap(err, "serve: open upload")
	}
	defer src.Close()

	tmp, err := os.CreateTemp(s.tempDir, "upload-*.xlsx")
	if err != nil {
		return nil, eris.Wrap(err, "serve: create temp file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return nil, eris.Wrap(err, "serve: write temp file")
	}
	tmp.Close()

	wb, err := fetcher.LoadWorkbook(tmpPath)
	if err != nil {
		return nil, err
	}
	wb.Filename = name
	return wb, nil
}

// runExtraction executes the pipeline in the background and records the
// outcome. Uses a fresh context so client disconnects do not abort runs.
func (s *server) runExtraction(runID string, workbooks []model.Workbook, marketTier string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	_ = s.store.UpdateRunStatus(ctx, runID, model.RunStatusExtracting)

	result, err := pipeline.Run(ctx, workbooks, pipeline.Options{
		MarketTier:    model.MarketTier(marketTier),
		KnowledgePath: cfg.Benchmark.KnowledgePath,
		MaxParallel:   cfg.Pipeline.MaxParallelFiles,
	})
	if err != nil {
		zap.L().Error("serve: extraction failed", zap.String("run_id", runID), zap.Error(err))
		_ = s.store.FailRun(ctx, runID, err.Error())
		return
	}

	if err := s.store.UpdateRunResult(ctx, runID, result); err != nil {
		zap.L().Error("serve: record result", zap.String("run_id", runID), zap.Error(err))
		return
	}

	zap.L().Info("serve: extraction complete",
		zap.String("run_id", runID),
		zap.Int("facilities", len(result.Facilities)),
		zap.Float64("confidence", result.Confidence))
}

func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		Status: model.RunStatus(r.URL.Query().Get("status")),
		Limit:  50,
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("serve: list runs", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("run %s not found", runID))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
