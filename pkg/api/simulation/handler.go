package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	coreConfig "wacc_simulator/pkg/core/config"
	"wacc_simulator/pkg/core/ingest"
	"wacc_simulator/pkg/core/logger"
	"wacc_simulator/pkg/core/metrics"
	"wacc_simulator/pkg/core/utils"
	"wacc_simulator/pkg/core/wacc"
)

type SimulateRequest struct {
	Sector         string  `json:"sector" validate:"required"`
	Percentile     *int    `json:"percentile" default:"69" validate:"required,min=0,max=100"`
	Samples        *int    `json:"samples" default:"30000" validate:"required,min=1,max=1000000"`
	Seed           *uint64 `json:"seed"`
	Bins           *int    `json:"bins"`
	IncludeSamples bool    `json:"include_samples"`
}

type SectorsResponse struct {
	Source  string   `json:"source"`
	Sectors []string `json:"sectors"`
}

type GuidanceResponse struct {
	Entries  []wacc.GuidanceEntry `json:"entries"`
	Markdown string               `json:"markdown"`
	HTML     string               `json:"html"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Field   string   `json:"field,omitempty"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// Handler holds dependencies for simulation endpoints
type Handler struct {
	Source   ingest.Source
	Defaults coreConfig.SimulationDefaults
	Guidance []wacc.GuidanceEntry
	Metrics  *metrics.Recorder
	Log      *logger.Logger
}

var validate = validator.New()

// NewHandler creates a new simulation handler
func NewHandler(src ingest.Source, cfg *coreConfig.Config, rec *metrics.Recorder, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		Source:   src,
		Defaults: cfg.Simulation,
		Guidance: cfg.Guidance,
		Metrics:  rec,
		Log:      log.With("simulation"),
	}
}

// Register mounts the endpoints on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/wacc/sectors", h.HandleSectors)
	mux.HandleFunc("/api/wacc/simulate", h.HandleSimulate)
	mux.HandleFunc("/api/wacc/guidance", h.HandleGuidance)
	mux.HandleFunc("/api/wacc/reload", h.HandleReload)
}

func cors(w http.ResponseWriter, r *http.Request, methods string) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods+", OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusOf maps engine error kinds to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, wacc.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, wacc.ErrInvalidParameter), errors.Is(err, wacc.ErrInsufficientData):
		return http.StatusBadRequest
	case errors.Is(err, wacc.ErrDataSource):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: metrics.OutcomeOf(err), Message: err.Error()}
	var ee *wacc.EngineError
	if errors.As(err, &ee) {
		resp.Field = ee.Field
		resp.Message = ee.Msg
	}
	writeJSON(w, statusOf(err), resp)
}

func (h *Handler) loadTables(ctx context.Context) (wacc.Tables, error) {
	start := time.Now()
	tables, err := h.Source.Load(ctx)
	h.Metrics.RecordLoad(h.Source.Name(), time.Since(start).Seconds())
	if err != nil {
		h.Log.Error("load input tables", logger.String("source", h.Source.Name()), logger.Error(err))
	}
	return tables, err
}

func (h *Handler) HandleSectors(w http.ResponseWriter, r *http.Request) {
	if cors(w, r, "GET") {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tables, err := h.loadTables(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SectorsResponse{Source: h.Source.Name(), Sectors: tables.SectorIDs()})
}

func (h *Handler) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	if cors(w, r, "POST") {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// 1. Decode over the configured defaults, then fill what is still unset.
	// Pointer fields keep an explicit zero so it reaches validation.
	req := SimulateRequest{Seed: h.Defaults.Seed}
	if h.Defaults.Percentile > 0 {
		p := h.Defaults.Percentile
		req.Percentile = &p
	}
	if h.Defaults.Samples > 0 {
		n := h.Defaults.Samples
		req.Samples = &n
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: metrics.OutcomeInvalid, Message: "invalid request body: " + err.Error()})
		return
	}
	if err := defaults.Set(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: metrics.OutcomeInvalid, Message: err.Error()})
		return
	}
	if err := validate.StructCtx(r.Context(), &req); err != nil {
		writeJSON(w, http.StatusBadRequest, validationError(err))
		return
	}

	// 2. Build the run configuration
	cfg, err := h.Defaults.RunConfig(req.Sector)
	if err != nil {
		h.writeError(w, err)
		return
	}
	cfg.Percentile = *req.Percentile
	cfg.SampleCount = *req.Samples
	cfg.Source = nil
	if req.Seed != nil {
		cfg.Source = wacc.SeededSource{Seed: *req.Seed}
	}
	if req.Bins != nil {
		cfg.DensityBins = *req.Bins
	}

	// 3. Load and run
	start := time.Now()
	res, err := h.run(r.Context(), cfg)
	elapsed := time.Since(start)
	if err != nil {
		h.Metrics.RecordRun(req.Sector, metrics.OutcomeOf(err), elapsed.Seconds(), 0)
		h.Log.Warn("simulation failed", logger.String("sector", req.Sector), logger.Error(err))
		h.writeError(w, err)
		return
	}
	h.Metrics.RecordRun(res.SectorID, metrics.OutcomeOK, elapsed.Seconds(), cfg.SampleCount)
	h.Metrics.RecordPercentile(res.SectorID, res.PercentileValue)
	h.Log.Info("simulation complete",
		logger.String("run_id", res.RunID),
		logger.String("sector", res.SectorID),
		logger.Int("samples", cfg.SampleCount),
		logger.Int("percentile", res.Percentile),
		logger.Float("percentile_value", res.PercentileValue),
		logger.Duration("elapsed", elapsed),
		logger.Strings("warnings", res.Parameters.Warnings),
	)

	out := *res
	if !req.IncludeSamples {
		out.WaccReal = nil
		out.WaccNominal = nil
	}
	writeJSON(w, http.StatusOK, &out)
}

func (h *Handler) run(ctx context.Context, cfg wacc.SimulationConfig) (*wacc.SimulationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tables, err := h.loadTables(ctx)
	if err != nil {
		return nil, err
	}
	return wacc.Run(ctx, tables, cfg)
}

func validationError(err error) ErrorResponse {
	resp := ErrorResponse{Error: metrics.OutcomeInvalid, Message: "request validation failed"}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			resp.Details = append(resp.Details, e.Field()+" failed "+e.Tag())
		}
		if len(verrs) > 0 {
			resp.Field = verrs[0].Field()
		}
		return resp
	}
	resp.Message = err.Error()
	return resp
}

func (h *Handler) HandleGuidance(w http.ResponseWriter, r *http.Request) {
	if cors(w, r, "GET") {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries := h.Guidance
	if len(entries) == 0 {
		entries = wacc.DefaultGuidance
	}
	md := wacc.GuidanceMarkdown(entries)
	html, err := utils.RenderMarkdown(md)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, GuidanceResponse{Entries: entries, Markdown: md, HTML: html})
}

func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if cors(w, r, "POST") {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cached, ok := h.Source.(interface{ Invalidate() })
	if ok {
		cached.Invalidate()
	}
	h.Log.Info("input cache reload", logger.String("source", h.Source.Name()), logger.Bool("cached", ok))
	writeJSON(w, http.StatusOK, map[string]interface{}{"reloaded": ok, "source": h.Source.Name()})
}
