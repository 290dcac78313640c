package handle

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
	"github.com/Shivay00001/Reality-Lab/api/internal/report"
	"github.com/Shivay00001/Reality-Lab/api/internal/store"
)

func (h *Handle) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if h.reports != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.reports.DB.PingContext(ctx); err != nil {
			h.log.Warn("healthz: db ping failed", "err", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db: not ok"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type ModalityInfo struct {
	Modality       forensic.Modality `json:"modality"`
	Accept         string            `json:"accept"`
	ThinkingBudget int               `json:"thinking_budget"`
	MaxFileSize    int               `json:"max_file_size,omitempty"`
}

type ModalitiesResponse struct {
	Modalities []ModalityInfo `json:"modalities"`
	Engines    []string       `json:"engines"`
}

func (h *Handle) Modalities(w http.ResponseWriter, r *http.Request) {
	profiles := h.sessions.Options().Profiles
	out := ModalitiesResponse{Engines: h.engs.Names()}
	for _, m := range forensic.Modalities {
		p, err := profiles.Get(m)
		if err != nil {
			continue
		}
		info := ModalityInfo{Modality: m, Accept: p.Accept, ThinkingBudget: p.ThinkingBudget}
		if m.IsMedia() {
			info.MaxFileSize = forensic.MaxFileSize
		}
		out.Modalities = append(out.Modalities, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handle) archive(w http.ResponseWriter) bool {
	if h.reports == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "report archive is not configured"})
		return false
	}
	return true
}

// ListReports: ?limit=N или ?sha256=... (последний отчёт по тому же вводу на движке по умолчанию).
func (h *Handle) ListReports(w http.ResponseWriter, r *http.Request) {
	if !h.archive(w) {
		return
	}
	q := r.URL.Query()
	if sha := strings.TrimSpace(q.Get("sha256")); sha != "" {
		eng, err := h.engs.GetEngine(q.Get("engine"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
			return
		}
		row, err := h.reports.FindBySHA(r.Context(), sha, eng.Name(), eng.GetModel(), 0)
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: "report not found"})
			return
		}
		if err != nil {
			h.log.Error("find report", "sha256", sha, "err", err)
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "archive error"})
			return
		}
		writeJSON(w, http.StatusOK, row)
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	rows, err := h.reports.List(r.Context(), limit)
	if err != nil {
		h.log.Error("list reports", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "archive error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": rows})
}

func (h *Handle) getReport(w http.ResponseWriter, r *http.Request) (*store.ReportRow, bool) {
	if !h.archive(w) {
		return nil, false
	}
	row, err := h.reports.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "report not found"})
		return nil, false
	}
	if err != nil {
		h.log.Error("get report", "id", r.PathValue("id"), "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "archive error"})
		return nil, false
	}
	return row, true
}

func (h *Handle) GetReport(w http.ResponseWriter, r *http.Request) {
	if row, ok := h.getReport(w, r); ok {
		writeJSON(w, http.StatusOK, row)
	}
}

func (h *Handle) ReportPDF(w http.ResponseWriter, r *http.Request) {
	row, ok := h.getReport(w, r)
	if !ok {
		return
	}
	now := time.Now()
	body, err := report.ExportPDF(row.Result, report.Meta{
		SessionID:   row.SessionID,
		Modality:    row.Modality,
		InputName:   row.InputName,
		CompletedAt: row.CompletedAt,
		GeneratedAt: now,
	})
	if err != nil {
		h.log.Error("report pdf", "id", row.ID, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "pdf error"})
		return
	}
	attachment(w, strings.TrimSuffix(report.Filename(now), ".json")+".pdf", "application/pdf", body)
}
