package handle

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
	"github.com/Shivay00001/Reality-Lab/api/internal/session"
	"github.com/Shivay00001/Reality-Lab/api/internal/store"
)

// maxBody: JSON с base64 файла на 30 МБ плюс запас под обёртку.
const maxBody = forensic.MaxFileSize/3*4 + 1<<20

type Handle struct {
	engs     *forensic.Engines
	sessions *session.Manager
	reports  *store.ReportRepo
	timeout  time.Duration
	log      *slog.Logger
}

func New(engs *forensic.Engines, sessions *session.Manager, timeout time.Duration) *Handle {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Handle{
		engs:     engs,
		sessions: sessions,
		timeout:  timeout,
		log:      slog.Default(),
	}
}

// WithReports подключает архив; без него /v1/reports отвечает 503.
func (h *Handle) WithReports(r *store.ReportRepo) *Handle {
	h.reports = r
	return h
}

func (h *Handle) WithLogger(l *slog.Logger) *Handle {
	if l != nil {
		h.log = l
	}
	return h
}

// Register вешает все маршруты на mux.
func (h *Handle) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /v1/modalities", h.Modalities)

	mux.HandleFunc("POST /v1/sessions", h.CreateSession)
	mux.HandleFunc("GET /v1/sessions/{id}", h.GetSession)
	mux.HandleFunc("DELETE /v1/sessions/{id}", h.DeleteSession)
	mux.HandleFunc("POST /v1/sessions/{id}/modality", h.SelectModality)
	mux.HandleFunc("POST /v1/sessions/{id}/text", h.SetText)
	mux.HandleFunc("POST /v1/sessions/{id}/file", h.AttachFile)
	mux.HandleFunc("DELETE /v1/sessions/{id}/file", h.ClearFile)
	mux.HandleFunc("POST /v1/sessions/{id}/analyze", h.Analyze)
	mux.HandleFunc("POST /v1/sessions/{id}/reset", h.Reset)
	mux.HandleFunc("GET /v1/sessions/{id}/export", h.Export)
	mux.HandleFunc("GET /v1/sessions/{id}/export.pdf", h.ExportPDF)

	mux.HandleFunc("GET /v1/previews/{id}", h.Preview)

	mux.HandleFunc("GET /v1/reports", h.ListReports)
	mux.HandleFunc("GET /v1/reports/{id}", h.GetReport)
	mux.HandleFunc("GET /v1/reports/{id}/export.pdf", h.ReportPDF)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string        `json:"error"`
	State session.State `json:"state,omitempty"`
}

// writeErr переводит ошибку домена в код ответа.
func writeErr(w http.ResponseWriter, err error, state session.State) {
	code, msg := http.StatusInternalServerError, err.Error()
	var ie *forensic.InputError
	switch {
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrInvalidTransition):
		code = http.StatusConflict
	case errors.As(err, &ie):
		code, msg = http.StatusUnprocessableEntity, ie.Reason
	case errors.Is(err, context.DeadlineExceeded):
		code, msg = http.StatusGatewayTimeout, forensic.ScanAbortedMessage
	case errors.Is(err, forensic.ErrScanAborted):
		code, msg = http.StatusBadGateway, forensic.ScanAbortedMessage
	}
	writeJSON(w, code, errorBody{Error: msg, State: state})
}

// readJSON читает JSON-тело не длиннее maxBody; пустое тело допустимо, если allowEmpty.
func readJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return nil
	}
	return err
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func writeDecodeErr(w http.ResponseWriter, err error, state session.State) {
	if tooLarge(err) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: forensic.SizeExceededMessage, State: state})
		return
	}
	writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad json: " + err.Error(), State: state})
}

func decode(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	if err := readJSON(w, r, v, allowEmpty); err != nil {
		writeDecodeErr(w, err, "")
		return false
	}
	return true
}

// deadline: X-Request-Timeout или ?timeoutSec, иначе настройка сервиса.
func (h *Handle) deadline(r *http.Request) time.Duration {
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			return time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	return h.timeout
}
