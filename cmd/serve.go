package cmd

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/jsphweid/m300/chord"
	"github.com/jsphweid/m300/compiler"
	"github.com/jsphweid/m300/export"
	"github.com/jsphweid/m300/gcode"
	"github.com/jsphweid/m300/metrics"
	"github.com/jsphweid/m300/midi"
	"github.com/jsphweid/m300/model"
	"github.com/jsphweid/m300/preview"
	"github.com/jsphweid/m300/session"
	"github.com/jsphweid/m300/util"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

// largest midi upload accepted
const maxUploadBytes = 16 << 20

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the compiler over HTTP",
	Long: `Serves the compiler over HTTP. Every client works in its own session:
upload a MIDI file, pick tracks, compile and fetch or export the output. The
preview schedule is returned with every compile for the client to play.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.FromContext(cmd.Context())
		m, err := metrics.NewSentryMetrics(cfg.SentryDSN, "serve")
		if err != nil {
			return err
		}
		defer m.Flush()

		opts, err := compileOptions()
		if err != nil {
			return err
		}
		srv := newServer(opts, m, logger)
		if cfg.SessionIdle > 0 {
			go srv.expireSessions(cmd.Context(), cfg.SessionIdle/2)
		}

		logger.Info("listening", "addr", cfg.Listen, "sentry", m.Enabled())
		return http.ListenAndServe(cfg.Listen, srv.handler())
	},
}

type server struct {
	store    *session.Store
	defaults compiler.Options
	metrics  *metrics.SentryMetrics
	logger   *log.Logger
}

func newServer(defaults compiler.Options, m *metrics.SentryMetrics, logger *log.Logger) *server {
	create := func() *session.Session {
		return session.New(&preview.Recorder{},
			session.WithLogger(logger),
			session.WithAutoCompile(cfg.AutoCompile, defaults))
	}
	return &server{
		store: session.NewStore(create,
			session.WithIdleTimeout(cfg.SessionIdle),
			session.WithMaxSessions(cfg.MaxSessions)),
		defaults: defaults,
		metrics:  m,
		logger:   logger,
	}
}

func (s *server) expireSessions(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.store.Expire(); n > 0 {
				s.logger.Info("expired idle sessions", "count", n, "live", s.store.Len())
			}
		}
	}
}

func (s *server) router() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/sessions", s.handleCreate).Methods("POST")
	router.HandleFunc("/sessions/{id}", s.handleDelete).Methods("DELETE")
	router.HandleFunc("/sessions/{id}/performance", s.handleLoad).Methods("PUT")
	router.HandleFunc("/sessions/{id}/tracks", s.handleTracks).Methods("GET")
	router.HandleFunc("/sessions/{id}/selection", s.handleSelection).Methods("PUT")
	router.HandleFunc("/sessions/{id}/selection/toggle", s.handleToggle).Methods("POST")
	router.HandleFunc("/sessions/{id}/compile", s.handleCompile).Methods("POST")
	router.HandleFunc("/sessions/{id}/output", s.handleOutput).Methods("GET")
	router.HandleFunc("/sessions/{id}/export", s.handleExport).Methods("POST")
	router.HandleFunc("/sessions/{id}/playback/toggle", s.handlePlayback).Methods("POST")
	return router
}

func (s *server) handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		ExposedHeaders: []string{"Content-Disposition"},
	})
	return c.Handler(s.metrics.Middleware(s.router()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNoPerformance),
		errors.Is(err, session.ErrEmptyOutput),
		errors.Is(err, export.ErrExists):
		return http.StatusConflict
	case errors.Is(err, midi.ErrInvalidInputFile),
		errors.Is(err, chord.ErrInvalidNote),
		errors.Is(err, gcode.ErrUnknownDialect),
		errors.Is(err, export.ErrInvalidName),
		errors.Is(err, export.ErrOutsideRoot),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, export.ErrUnsupportedTarget):
		return http.StatusNotImplemented
	case errors.Is(err, session.ErrStoreFull):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

var errBadRequest = errors.New("bad request")

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
		s.metrics.CaptureError(r.Context(), err)
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v interface{}) error {
	reqBody, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.Wrap(err, "could not read request body")
	}
	if len(reqBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(reqBody, v); err != nil {
		return errors.Wrapf(errBadRequest, "could not unmarshal request body: %v", err)
	}
	return nil
}

func (s *server) session(r *http.Request) (*session.Session, error) {
	return s.store.Get(mux.Vars(r)["id"])
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.New()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.SessionResponse{Id: sess.ID})
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := s.session(r); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.store.Delete(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleLoad(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	name := "upload"
	if q := r.URL.Query().Get("name"); q != "" {
		// the name of the uploaded file, without its directory
		name = util.BaseName(q)
		if err := export.CheckName(name); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if _, err := sess.Load(name, http.MaxBytesReader(w, r.Body, maxUploadBytes)); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Tracks())
}

func (s *server) handleTracks(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sess.Performance() == nil {
		s.writeError(w, r, session.ErrNoPerformance)
		return
	}
	writeJSON(w, http.StatusOK, sess.Tracks())
}

func (s *server) handleSelection(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var input model.SelectionRequestBody
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.SetSelection(input.Tracks)
	writeJSON(w, http.StatusOK, sess.Tracks())
}

func (s *server) handleToggle(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.ToggleAll()
	writeJSON(w, http.StatusOK, sess.Tracks())
}

func (s *server) compileOptions(input model.CompileRequestBody) compiler.Options {
	opts := s.defaults
	if input.Speed != 0 {
		opts.Speed = input.Speed
	}
	if input.Secondary != nil {
		opts.Secondary = *input.Secondary
	}
	if input.Dialect != "" {
		opts.Dialect = input.Dialect
	}
	return opts
}

func (s *server) handleCompile(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var input model.CompileRequestBody
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := s.compileOptions(input)
	ctx := log.WithContext(r.Context(), s.logger)
	res, err := s.metrics.RecordCompile(ctx, func(ctx context.Context) (*compiler.Result, error) {
		return sess.Compile(ctx, opts)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.CompileResponse{
		Gcode:    res.Text,
		Segments: len(res.Segments),
		Tones:    res.Tones,
	})
}

func (s *server) handleOutput(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	text, err := sess.Output()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(sess.DefaultName())+`"`)
	io.WriteString(w, text)
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var input model.ExportRequestBody
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	target, err := export.ResolveWithin(cfg.OutputDir, input.Destination, export.Options{Safe: true})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := log.WithContext(r.Context(), s.logger)
	loc, err := sess.Export(ctx, target, input.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ExportResponse{Location: loc})
}

func (s *server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sess.TogglePlay(); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.PlaybackResponse{Status: sess.Status().String()})
}
