// Package inspect serves a read-only view of a container over HTTP: its
// bindings, the dependency graph and the validator's findings.
package inspect

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danpasecinic/quill"
	qreflect "github.com/danpasecinic/quill/internal/reflect"
)

type Option func(*options)

type options struct {
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// WithMetrics also serves the gatherer at /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(o *options) {
		o.gatherer = g
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

type Binding struct {
	Contract     string `json:"contract"`
	Kind         string `json:"kind"`
	Concrete     string `json:"concrete,omitempty"`
	Singleton    string `json:"singleton,omitempty"`
	Lookup       string `json:"lookup,omitempty"`
	Conditional  bool   `json:"conditional,omitempty"`
	Instantiated bool   `json:"instantiated"`
}

type Problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Report struct {
	Valid    bool      `json:"valid"`
	Problems []Problem `json:"problems"`
}

type handler struct {
	c      *quill.Container
	logger *slog.Logger
}

func Handler(c *quill.Container, opts ...Option) http.Handler {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	h := &handler{c: c, logger: o.logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)

	r.Get("/bindings", h.bindings)
	r.Get("/graph", h.graph)
	r.Get("/graph.txt", h.graphText)
	r.Get("/graph.dot", h.graphDOT)
	r.Get("/validate", h.validate)
	r.Get("/order", h.order)

	if o.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

func (h *handler) bindings(w http.ResponseWriter, _ *http.Request) {
	infos := h.c.Bindings()
	out := make([]Binding, 0, len(infos))
	for _, b := range infos {
		view := Binding{
			Contract:     b.ID.String(),
			Kind:         b.Provider.Kind().String(),
			Conditional:  b.Conditional,
			Instantiated: b.Provider.Instantiated(),
		}
		if t := b.Provider.ConcreteType(); t != nil {
			view.Concrete = qreflect.Name(t)
		}
		if sid, ok := b.Provider.SingletonID(); ok {
			view.Singleton = sid.String()
		}
		if target, ok := b.Provider.LookupTarget(); ok {
			view.Lookup = target.String()
		}
		out = append(out, view)
	}
	h.respondJSON(w, http.StatusOK, out)
}

func (h *handler) graph(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, h.c.Graph())
}

func (h *handler) graphText(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	h.c.FprintGraph(w)
}

func (h *handler) graphDOT(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	h.c.FprintGraphDOT(w)
}

// validate answers 200 when every binding resolves and 422 otherwise.
func (h *handler) validate(w http.ResponseWriter, _ *http.Request) {
	errs := h.c.ValidateAll()
	report := Report{Valid: len(errs) == 0, Problems: make([]Problem, 0, len(errs))}
	for _, err := range errs {
		report.Problems = append(report.Problems, Problem{
			Code:    quill.CodeOf(err).String(),
			Message: err.Error(),
		})
	}

	status := http.StatusOK
	if !report.Valid {
		status = http.StatusUnprocessableEntity
	}
	h.respondJSON(w, status, report)
}

func (h *handler) order(w http.ResponseWriter, r *http.Request) {
	contract := r.URL.Query().Get("contract")
	if contract == "" {
		h.respondError(w, http.StatusBadRequest, "contract query parameter is required")
		return
	}

	order, err := h.c.ResolutionOrder(contract)
	if err != nil {
		h.respondError(w, http.StatusConflict, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, order)
}

func (h *handler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode inspect response", "error", err)
	}
}

func (h *handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// Serve runs the inspector on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, c *quill.Container, opts ...Option) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(c, opts...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
