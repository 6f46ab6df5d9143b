// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"embed"
	stderrors "errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jllopis/sdlcgen/pkg/config"
	"github.com/jllopis/sdlcgen/pkg/errors"
	"github.com/jllopis/sdlcgen/pkg/export"
	"github.com/jllopis/sdlcgen/pkg/generate"
	"github.com/jllopis/sdlcgen/pkg/intake"
	"github.com/jllopis/sdlcgen/pkg/roles"
)

const defaultWebAddr = ":8088"

const errRunInProgress = "a generation run is in progress"

// multipartOverhead is headroom for form boundaries and fields on top of the
// file bytes themselves.
const multipartOverhead = 1 << 20

//go:embed web/templates/*.html web/static/*
var webFS embed.FS

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"join":  strings.Join,
	"inc":   func(i int) int { return i + 1 },
	"bytes": formatBytes,
}).ParseFS(webFS, "web/templates/*.html"))

// webServer holds the single UI session. One generation run may be in flight
// at a time.
type webServer struct {
	app *app

	mu            sync.Mutex
	limits        intake.Limits
	selection     intake.Selection
	result        *generate.Result
	runErr        error
	running       bool
	progress      string
	orchestration string
	orchErr       error
}

type fileRow struct {
	Index       int
	Name        string
	Size        int64
	ContentType string
}

type pageData struct {
	Title         string
	Hint          string
	Accept        string
	MaxFiles      int
	ConfigError   string
	IntakeError   string
	RunError      string
	Files         []fileRow
	CanGenerate   bool
	Running       bool
	Progress      string
	HasResults    bool
	Roles         []roles.Role
	TaskCount     int
	Formats       []export.Format
	Orchestration string
	OrchError     string
}

func newWebServer(a *app) *webServer {
	return &webServer{app: a, limits: a.cfg.Limits()}
}

func runServe(ctx context.Context, a *app, watcher *config.Watcher) error {
	s := newWebServer(a)
	watcher.OnChange(func(cfg *config.Config) {
		s.setLimits(cfg.Limits())
		a.logger.Info("intake limits reloaded",
			slog.Int("max_files", cfg.Intake.MaxFiles),
			slog.Int64("max_file_size", cfg.Intake.MaxFileSize),
		)
	})
	watcher.Start(ctx)
	defer watcher.Stop()

	addr := strings.TrimSpace(a.cfg.Web.Addr)
	if addr == "" {
		addr = defaultWebAddr
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		displayAddr := addr
		if strings.HasPrefix(displayAddr, ":") {
			displayAddr = "localhost" + displayAddr
		}
		a.logger.Info("web UI listening", slog.String("url", "http://"+displayAddr))
		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *webServer) routes() http.Handler {
	mux := http.NewServeMux()

	staticFS, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /files", s.handleUpload)
	mux.HandleFunc("POST /files/{index}/delete", s.handleRemove)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("POST /orchestration", s.handleOrchestration)
	for _, f := range export.Formats {
		mux.HandleFunc("GET /results."+string(f), s.handleExport(f))
	}
	return mux
}

func (s *webServer) setLimits(l intake.Limits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits = l
}

func (s *webServer) setProgress(p generate.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = p.String()
}

func (s *webServer) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK)
}

func (s *webServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.app.credErr != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "generation disabled:", errors.UserMessage(s.app.credErr))
		return
	}
	fmt.Fprintln(w, "ok")
}

// handleUpload replaces the selection with the posted batch. A new batch
// clears previous results and errors whether or not it is accepted.
func (s *webServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	limits := s.limits
	running := s.running
	s.mu.Unlock()
	if running {
		http.Error(w, errRunInProgress, http.StatusConflict)
		return
	}

	maxBody := int64(limits.MaxFiles)*limits.MaxFileSize + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := r.ParseMultipartForm(maxBody); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.rejectBatch(w, r, errors.Newf(errors.CodeIntakeRejected,
				"The upload exceeds %d files of %.1fMB each.", limits.MaxFiles, limits.MaxFileSizeMB()).
				WithRecoverable(true))
			return
		}
		http.Error(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	files := make([]intake.File, 0, len(headers))
	for _, h := range headers {
		data, err := readPart(h)
		if err != nil {
			s.rejectBatch(w, r, errors.New(errors.CodeReadFailure, fmt.Sprintf("failed to read file %q", h.Filename), err))
			return
		}
		contentType := h.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = intake.ContentTypeFor(h.Filename)
		}
		files = append(files, intake.File{
			Name:        h.Filename,
			ContentType: contentType,
			Size:        h.Size,
			Source:      intake.Bytes(data),
		})
	}

	s.updateSelection(w, r, func() {
		if err := s.selection.Accept(limits, files); err != nil {
			s.app.logger.InfoContext(r.Context(), "upload rejected", slog.String("reason", errors.UserMessage(err)))
		}
	})
}

func readPart(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *webServer) rejectBatch(w http.ResponseWriter, r *http.Request, err error) {
	s.updateSelection(w, r, func() { s.selection.Reject(err) })
}

// updateSelection clears results and applies fn under the session lock. A run
// started while the upload was being read wins and the upload gets 409.
func (s *webServer) updateSelection(w http.ResponseWriter, r *http.Request, fn func()) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		http.Error(w, errRunInProgress, http.StatusConflict)
		return
	}
	s.clearResults()
	fn()
	s.mu.Unlock()
	s.redirect(w, r)
}

// clearResults must be called with s.mu held.
func (s *webServer) clearResults() {
	s.result = nil
	s.runErr = nil
	s.orchestration = ""
	s.orchErr = nil
}

func (s *webServer) handleRemove(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "invalid file index", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		http.Error(w, errRunInProgress, http.StatusConflict)
		return
	}
	s.selection.Remove(i)
	s.runErr = nil
	s.mu.Unlock()
	s.redirect(w, r)
}

// handleGenerate runs the selection to completion. The run is detached from
// the request context so a closed browser tab does not abort it.
func (s *webServer) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.app.credErr != nil {
		http.Error(w, errors.UserMessage(s.app.credErr), http.StatusServiceUnavailable)
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		http.Error(w, errRunInProgress, http.StatusConflict)
		return
	}
	files := s.selection.Files()
	s.clearResults()
	if len(files) == 0 {
		s.runErr = errors.New(errors.CodeInvalidInput, "select at least one file to generate tasks", nil)
		s.mu.Unlock()
		s.redirect(w, r)
		return
	}
	s.running = true
	s.mu.Unlock()

	runner := s.app.newRunner(generate.WithProgress(s.setProgress))
	res, err := runner.Run(context.WithoutCancel(r.Context()), files)

	s.mu.Lock()
	s.running = false
	s.progress = ""
	s.result = res
	s.runErr = err
	s.mu.Unlock()
	s.redirect(w, r)
}

func (s *webServer) handleOrchestration(w http.ResponseWriter, r *http.Request) {
	if s.app.credErr != nil {
		http.Error(w, errors.UserMessage(s.app.credErr), http.StatusServiceUnavailable)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	var agg roles.Aggregate
	if s.result != nil {
		agg = s.result.Aggregate
	}
	s.mu.Unlock()

	prompt, err := s.app.orchestrator.Prompt(r.Context(), agg, r.PostFormValue("instruction"))

	s.mu.Lock()
	s.orchestration = prompt
	s.orchErr = err
	s.mu.Unlock()
	s.redirect(w, r)
}

func (s *webServer) handleExport(f export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		res := s.result
		s.mu.Unlock()
		if res == nil {
			http.Error(w, "no results to display", http.StatusNotFound)
			return
		}

		var buf bytes.Buffer
		if err := export.Write(&buf, f, res.Aggregate); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="sdlc-tasks.%s"`, f))
		_, _ = w.Write(buf.Bytes())
	}
}

func (s *webServer) redirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *webServer) snapshot() pageData {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := pageData{
		Title:    "SDLC Task & Prompt Generator",
		Hint:     fmt.Sprintf("Upload up to %d files (max %.1fMB each)", s.limits.MaxFiles, s.limits.MaxFileSizeMB()),
		Accept:   acceptList(s.limits),
		MaxFiles: s.limits.MaxFiles,
		Running:  s.running,
		Progress: s.progress,
		Formats:  export.Formats,
	}
	if s.app.credErr != nil {
		data.ConfigError = errors.UserMessage(s.app.credErr)
	}
	if err := s.selection.Err(); err != nil {
		data.IntakeError = errors.UserMessage(err)
	}
	if s.runErr != nil {
		data.RunError = errors.UserMessage(s.runErr)
	}
	for i, f := range s.selection.Files() {
		data.Files = append(data.Files, fileRow{Index: i, Name: f.Name, Size: f.Size, ContentType: f.ContentType})
	}
	data.CanGenerate = s.app.credErr == nil && len(data.Files) > 0 && !s.running
	if s.result != nil {
		data.HasResults = true
		data.Roles = s.result.Aggregate.Roles()
		data.TaskCount = s.result.Aggregate.TaskCount()
	}
	data.Orchestration = s.orchestration
	if s.orchErr != nil {
		data.OrchError = errors.UserMessage(s.orchErr)
	}
	return data
}

func (s *webServer) render(w http.ResponseWriter, status int) {
	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "layout", s.snapshot()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// acceptList builds the file input accept attribute from the allowed types.
func acceptList(l intake.Limits) string {
	return strings.Join(intake.ExtensionsFor(l.AllowedTypes), ",")
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
