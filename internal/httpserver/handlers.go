package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"taxprotest/internal/cache"
	"taxprotest/internal/comparables"
	"taxprotest/internal/dataset"
	"taxprotest/internal/observability"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 200
)

type Handlers struct {
	Store  *dataset.Store
	Engine *comparables.Engine
	Cache  *cache.Reports // optional

	// ReloadTimeout bounds POST /v1/dataset/reload independently of the client.
	ReloadTimeout time.Duration
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type propertyHit struct {
	AccountNum     string  `json:"account_num"`
	Address        string  `json:"address"`
	OwnerName      string  `json:"owner_name,omitempty"`
	Subdivision    string  `json:"subdivision,omitempty"`
	AppraisedValue float64 `json:"appraised_value"`
	LivingArea     float64 `json:"living_area"`
	PSF            float64 `json:"psf"`
}

type datasetInfo struct {
	Source     string        `json:"source"`
	Generation uint64        `json:"generation"`
	Records    int           `json:"records"`
	LoadedAt   time.Time     `json:"loaded_at"`
	Stats      dataset.Stats `json:"stats"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", h.healthz)
	s.mux.Group(func(r chi.Router) {
		r.Use(Timeout(s.opts.Timeout))
		r.Get("/v1/properties", h.searchProperties)
		r.Get("/v1/reports", h.getReport)
		r.Get("/v1/dataset", h.getDataset)
	})
	s.mux.Post("/v1/dataset/reload", h.reloadDataset)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) current(w http.ResponseWriter) (*dataset.Dataset, bool) {
	ds := h.Store.Current()
	if ds == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Dataset Unavailable", "the appraisal roll has not been loaded yet")
		return nil, false
	}
	return ds, true
}

func (h *Handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.Store.Current() == nil {
		writeProblem(w, http.StatusServiceUnavailable, "Dataset Unavailable", "the appraisal roll has not been loaded yet")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handlers) searchProperties(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeProblem(w, http.StatusBadRequest, "Missing query", "q is required")
		return
	}
	limit := defaultSearchLimit
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > maxSearchLimit {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 200")
			return
		}
		limit = l
	}
	ds, ok := h.current(w)
	if !ok {
		return
	}

	hits := []propertyHit{}
	for _, p := range ds.Search(q, limit) {
		hits = append(hits, propertyHit{
			AccountNum:     p.AccountNum,
			Address:        p.SitusAddress,
			OwnerName:      p.OwnerName,
			Subdivision:    p.Subdivision,
			AppraisedValue: p.AppraisedValue,
			LivingArea:     p.LivingArea,
			PSF:            p.PSF,
		})
	}
	writeJSON(w, http.StatusOK, hits)
}

func (h *Handlers) getReport(w http.ResponseWriter, r *http.Request) {
	account := strings.TrimSpace(r.URL.Query().Get("account"))
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if (account == "") == (address == "") {
		writeProblem(w, http.StatusBadRequest, "Invalid query", "exactly one of account or address is required")
		return
	}
	ds, ok := h.current(w)
	if !ok {
		return
	}

	kind, query := "address", address
	build := func() comparables.Report { return h.Engine.ReportByAddress(ds, address) }
	if account != "" {
		kind, query = "account", account
		build = func() comparables.Report { return h.Engine.ReportByAccount(ds, account) }
	}

	var rep comparables.Report
	if h.Cache != nil {
		rep, _ = h.Cache.GetOrBuild(r.Context(), cache.Key(ds.Generation(), kind, query), build)
	} else {
		rep = build()
	}
	observability.ObserveReport(string(rep.Status))

	status := http.StatusOK
	if rep.Status == comparables.StatusNotFound {
		status = http.StatusNotFound
	}

	etag, body := calcETagAndBody(rep)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write report body")
	}
}

func (h *Handlers) getDataset(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.info(ds))
}

func (h *Handlers) reloadDataset(w http.ResponseWriter, r *http.Request) {
	timeout := h.ReloadTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
	defer cancel()

	ds, err := h.Store.Reload(ctx)
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Reload Failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.info(ds))
}

func (h *Handlers) info(ds *dataset.Dataset) datasetInfo {
	return datasetInfo{
		Source:     ds.Source(),
		Generation: ds.Generation(),
		Records:    ds.Len(),
		LoadedAt:   ds.LoadedAt(),
		Stats:      ds.Stats(),
	}
}
