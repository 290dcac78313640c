package handle

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
	"github.com/Shivay00001/Reality-Lab/api/internal/session"
)

func (h *Handle) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := h.sessions.Get(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "session not found"})
		return nil, false
	}
	return s, true
}

// reply: снимок сессии после операции либо ошибка с текущим состоянием.
func reply(w http.ResponseWriter, s *session.Session, err error) {
	if err != nil {
		writeErr(w, err, s.State())
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (h *Handle) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	h.log.Debug("session created", "session", s.ID)
	writeJSON(w, http.StatusCreated, s.Snapshot())
}

func (h *Handle) GetSession(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.session(w, r); ok {
		writeJSON(w, http.StatusOK, s.Snapshot())
	}
}

func (h *Handle) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(r.PathValue("id")) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "session not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ModalityRequest struct {
	Modality string `json:"modality"`
}

func (h *Handle) SelectModality(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ModalityRequest
	if !decode(w, r, &req, false) {
		return
	}
	m, err := forensic.ParseModality(req.Modality)
	if err != nil {
		writeErr(w, err, s.State())
		return
	}
	reply(w, s, s.SelectModality(m))
}

type TextRequest struct {
	Text string `json:"text"`
}

func (h *Handle) SetText(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req TextRequest
	if !decode(w, r, &req, false) {
		return
	}
	reply(w, s, s.SetText(req.Text))
}

type FileRequest struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	DataB64  string `json:"data_b64"`
}

func (h *Handle) AttachFile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req FileRequest
	if err := readJSON(w, r, &req, false); err != nil {
		if tooLarge(err) {
			// тело обрезано до сборщика: отказ по размеру всё равно виден в сессии
			if rerr := s.RejectOversize(); !errors.Is(rerr, forensic.ErrInputRejected) {
				writeErr(w, rerr, s.State())
				return
			}
		}
		writeDecodeErr(w, err, s.State())
		return
	}
	reply(w, s, s.AttachFileBase64(req.Name, req.MIMEType, req.DataB64))
}

func (h *Handle) ClearFile(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.session(w, r); ok {
		reply(w, s, s.ClearFile())
	}
}

type AnalyzeRequest struct {
	Engine string `json:"engine"`
}

type AnalyzeResponse struct {
	Engine string           `json:"engine"`
	Model  string           `json:"model"`
	Result forensic.Result  `json:"result"`
	State  session.Snapshot `json:"session"`
}

func (h *Handle) Analyze(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req AnalyzeRequest
	if !decode(w, r, &req, true) {
		return
	}
	if req.Engine == "" {
		req.Engine = r.URL.Query().Get("engine")
	}
	eng, err := h.engs.GetEngine(req.Engine)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), State: s.State()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.deadline(r))
	defer cancel()

	res, err := s.Submit(ctx, eng)
	if err != nil {
		writeErr(w, err, s.State())
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{
		Engine: eng.Name(),
		Model:  eng.GetModel(),
		Result: res,
		State:  s.Snapshot(),
	})
}

func (h *Handle) Reset(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.session(w, r); ok {
		reply(w, s, s.Reset())
	}
}

func (h *Handle) Export(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	name, body, err := s.Export()
	if err != nil {
		writeErr(w, err, s.State())
		return
	}
	attachment(w, name, "application/json", body)
}

func (h *Handle) ExportPDF(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	name, body, err := s.ExportPDF()
	if err != nil {
		writeErr(w, err, s.State())
		return
	}
	attachment(w, name, "application/pdf", body)
}

func (h *Handle) Preview(w http.ResponseWriter, r *http.Request) {
	it, ok := h.sessions.Options().Previews.Get(r.PathValue("id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "preview not found"})
		return
	}
	hdr := w.Header()
	hdr.Set("Content-Type", it.MIMEType)
	hdr.Set("Content-Length", strconv.Itoa(len(it.Data)))
	hdr.Set("Cache-Control", "no-store")
	hdr.Set("X-Content-Type-Options", "nosniff")
	hdr.Set("Content-Security-Policy", "sandbox; default-src 'none'; img-src 'self'; media-src 'self'")
	if !inlinePreview(it.MIMEType) {
		hdr.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": "preview"}))
	}
	_, _ = w.Write(it.Data)
}

// inlinePreview: типы, которые браузер только отображает. Всё остальное
// (html, svg, xml, pdf, текст) отдаётся вложением.
func inlinePreview(mt string) bool {
	base, _, err := mime.ParseMediaType(mt)
	if err != nil {
		return false
	}
	switch {
	case base == "image/svg+xml":
		return false
	case strings.HasPrefix(base, "image/"), strings.HasPrefix(base, "audio/"), strings.HasPrefix(base, "video/"):
		return true
	}
	return false
}

func attachment(w http.ResponseWriter, name, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
