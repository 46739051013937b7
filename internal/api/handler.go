package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/eugenenazirov/config-console/internal/actuator"
	"github.com/eugenenazirov/config-console/internal/console"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// ConfigurationView is the part of console.Component the handlers use.
type ConfigurationView interface {
	OnInit(ctx context.Context)
	Wait(ctx context.Context) error
	SelectBeans(filter string, ascending bool) []actuator.Bean
	PropertySources() []actuator.PropertySource
	Snapshot() console.Snapshot
}

// Handler exposes the configuration view over HTTP.
type Handler struct {
	view  ConfigurationView
	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(view ConfigurationView, opts ...HandlerOption) *Handler {
	h := &Handler{
		view: view,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetConfiguration(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, newConfigurationResponse(h.view.Snapshot()))
}

func (h *Handler) handleGetBeans(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ascending := true
	switch strings.ToLower(strings.TrimSpace(query.Get("order"))) {
	case "", "asc":
	case "desc":
		ascending = false
	default:
		writeError(w, http.StatusBadRequest, "Invalid request", "order must be asc or desc")
		return
	}

	// Query only; the beans shown by /api/configuration and the page are shared
	// by every client.
	filter := query.Get("filter")
	beans := h.view.SelectBeans(filter, ascending)
	writeJSON(w, http.StatusOK, beansResponse{
		Beans:     nonNilBeans(beans),
		Filter:    filter,
		Ascending: ascending,
	})
}

func (h *Handler) handleGetPropertySources(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, propertySourcesResponse{
		PropertySources: nonNilSources(h.view.PropertySources()),
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	// Fetches outlive a disconnecting client so the view still gets updated.
	h.view.OnInit(context.WithoutCancel(r.Context()))

	if err := h.view.Wait(r.Context()); err != nil {
		if r.Context().Err() != nil {
			writeError(w, http.StatusGatewayTimeout, "Refresh incomplete", err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, "Refresh failed", err.Error(),
			"Check that the management endpoint is reachable and the token is valid")
		return
	}

	writeJSON(w, http.StatusOK, newConfigurationResponse(h.view.Snapshot()))
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type configurationResponse struct {
	AllBeans             []actuator.Bean           `json:"allBeans"`
	Beans                []actuator.Bean           `json:"beans"`
	PropertySources      []actuator.PropertySource `json:"propertySources"`
	BeansFilter          string                    `json:"beansFilter"`
	BeansAscending       bool                      `json:"beansAscending"`
	BeansError           string                    `json:"beansError,omitempty"`
	PropertySourcesError string                    `json:"propertySourcesError,omitempty"`
	LoadedAt             *time.Time                `json:"loadedAt,omitempty"`
}

func newConfigurationResponse(s console.Snapshot) configurationResponse {
	resp := configurationResponse{
		AllBeans:        nonNilBeans(s.AllBeans),
		Beans:           nonNilBeans(s.Beans),
		PropertySources: nonNilSources(s.PropertySources),
		BeansFilter:     s.BeansFilter,
		BeansAscending:  s.BeansAscending,
	}
	if s.BeansError != nil {
		resp.BeansError = s.BeansError.Error()
	}
	if s.PropertySourcesError != nil {
		resp.PropertySourcesError = s.PropertySourcesError.Error()
	}
	if !s.LoadedAt.IsZero() {
		loadedAt := s.LoadedAt
		resp.LoadedAt = &loadedAt
	}
	return resp
}

type beansResponse struct {
	Beans     []actuator.Bean `json:"beans"`
	Filter    string          `json:"filter"`
	Ascending bool            `json:"ascending"`
}

type propertySourcesResponse struct {
	PropertySources []actuator.PropertySource `json:"propertySources"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func nonNilBeans(beans []actuator.Bean) []actuator.Bean {
	if beans == nil {
		return []actuator.Bean{}
	}
	return beans
}

func nonNilSources(sources []actuator.PropertySource) []actuator.PropertySource {
	if sources == nil {
		return []actuator.PropertySource{}
	}
	return sources
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}
