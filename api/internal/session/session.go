// Package session описывает явную машину состояний одного расследования:
//
//	Idle → Ready → Analyzing → Complete → (Reset) Idle
//
// Ошибка анализа не является отдельным состоянием: сессия возвращается в Ready
// с прикреплённым сообщением и сохранённым вводом.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Shivay00001/Reality-Lab/api/internal/collector"
	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
	"github.com/Shivay00001/Reality-Lab/api/internal/preview"
	"github.com/Shivay00001/Reality-Lab/api/internal/report"
	"github.com/Shivay00001/Reality-Lab/api/internal/util"
)

type State string

const (
	StateIdle      State = "idle"
	StateReady     State = "ready"
	StateAnalyzing State = "analyzing"
	StateComplete  State = "complete"
)

var (
	ErrBusy              = errors.New("analysis already in flight")
	ErrInvalidTransition = errors.New("invalid transition")
)

// Completion: то, что уходит в OnComplete после успешного анализа.
type Completion struct {
	SessionID   string
	Modality    forensic.Modality
	Engine      string
	Model       string
	InputName   string
	InputType   string
	InputSize   int
	InputSHA256 string
	Result      forensic.Result
	CompletedAt time.Time
}

type Options struct {
	Collector  *collector.Collector
	Previews   *preview.Registry
	Profiles   forensic.Profiles
	OnComplete func(ctx context.Context, c Completion)
	Logger     *slog.Logger
	Now        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Profiles == nil {
		o.Profiles = forensic.DefaultProfiles()
	}
	if o.Collector == nil {
		o.Collector = collector.New(o.Profiles)
	}
	if o.Previews == nil {
		o.Previews = preview.NewRegistry()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Session struct {
	ID string

	opts Options

	mu          sync.Mutex
	state       State
	modality    forensic.Modality
	text        string
	file        *forensic.Blob
	fileSHA     string
	previewID   string
	errMsg      string
	result      *forensic.Result
	completedAt time.Time
	touchedAt   time.Time
}

func New(id string, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		ID:        id,
		opts:      opts,
		state:     StateIdle,
		modality:  forensic.ModalityText,
		touchedAt: opts.Now(),
	}
}

// FileInfo: описание приложенного файла без содержимого.
type FileInfo struct {
	Name      string `json:"name"`
	MIMEType  string `json:"mime_type"`
	Size      int    `json:"size"`
	PreviewID string `json:"preview_id,omitempty"`
}

// Snapshot: read-only вид сессии для фронтендов.
type Snapshot struct {
	ID          string            `json:"id"`
	State       State             `json:"state"`
	Modality    forensic.Modality `json:"modality"`
	Text        string            `json:"text,omitempty"`
	File        *FileInfo         `json:"file,omitempty"`
	Error       string            `json:"error,omitempty"`
	Result      *forensic.Result  `json:"result,omitempty"`
	CanSubmit   bool              `json:"can_submit"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	TouchedAt   time.Time         `json:"touched_at"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:        s.ID,
		State:     s.state,
		Modality:  s.modality,
		Text:      s.text,
		Error:     s.errMsg,
		CanSubmit: s.state == StateReady,
		TouchedAt: s.touchedAt,
	}
	if s.file != nil {
		snap.File = &FileInfo{Name: s.file.Name, MIMEType: s.file.MIMEType, Size: s.file.Size, PreviewID: s.previewID}
	}
	if s.result != nil {
		r := *s.result
		r.Signals = append([]forensic.Signal(nil), s.result.Signals...)
		snap.Result = &r
		t := s.completedAt
		snap.CompletedAt = &t
	}
	return snap
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// collecting: можно ли менять ввод из текущего состояния.
func (s *Session) collectingLocked(op string) error {
	switch s.state {
	case StateAnalyzing:
		return ErrBusy
	case StateComplete:
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, s.state)
	}
	return nil
}

// payloadLocked: активный вход для текущей модальности.
func (s *Session) payloadLocked() forensic.Payload {
	if s.modality == forensic.ModalityText {
		return forensic.TextPayload(s.text)
	}
	if s.file != nil {
		return forensic.FilePayload(*s.file)
	}
	return forensic.Payload{}
}

func (s *Session) settleLocked() {
	s.touchedAt = s.opts.Now()
	if s.payloadLocked().Empty() {
		s.state = StateIdle
	} else {
		s.state = StateReady
	}
}

func (s *Session) releasePreviewLocked() {
	s.opts.Previews.Release(s.previewID)
	s.previewID = ""
}

// SelectModality переключает вкладку: сбрасывает файл и ошибку.
// Вставленный текст сохраняется, но активен только на TEXT.
func (s *Session) SelectModality(m forensic.Modality) error {
	if !m.Valid() {
		return forensic.Rejected("unknown modality %q", m)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.collectingLocked("select modality"); err != nil {
		return err
	}
	s.modality = m
	s.file, s.fileSHA = nil, ""
	s.releasePreviewLocked()
	s.errMsg = ""
	s.settleLocked()
	return nil
}

func (s *Session) SetText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.collectingLocked("set text"); err != nil {
		return err
	}
	if s.modality != forensic.ModalityText {
		return forensic.Rejected("%s does not accept pasted text; upload a file", s.modality)
	}
	s.text = text
	s.errMsg = ""
	s.settleLocked()
	return nil
}

// AttachFile принимает файл. Отказ (размер, тип) только прикрепляет сообщение
// об ошибке: ранее собранный ввод не меняется.
func (s *Session) AttachFile(name, mimeType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.collectingLocked("attach file"); err != nil {
		return err
	}
	p, err := s.opts.Collector.File(s.modality, name, mimeType, data)
	if err != nil {
		return s.rejectLocked(err)
	}
	s.attachLocked(p.File, data)
	return nil
}

func (s *Session) AttachFileBase64(name, mimeType, b64 string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.collectingLocked("attach file"); err != nil {
		return err
	}
	p, raw, err := s.opts.Collector.FileBase64(s.modality, name, mimeType, b64)
	if err != nil {
		return s.rejectLocked(err)
	}
	s.attachLocked(p.File, raw)
	return nil
}

// RejectOversize фиксирует отказ по размеру, когда тело запроса обрезано
// раньше, чем файл дошёл до сборщика.
func (s *Session) RejectOversize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.collectingLocked("attach file"); err != nil {
		return err
	}
	return s.rejectLocked(forensic.Rejected(forensic.SizeExceededMessage))
}

// PrecheckSize отклоняет файл по известному размеру до скачивания.
func (s *Session) PrecheckSize(size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.collectingLocked("attach file"); err != nil {
		return err
	}
	if err := s.opts.Collector.CheckSize(size); err != nil {
		return s.rejectLocked(err)
	}
	return nil
}

func (s *Session) rejectLocked(err error) error {
	var ie *forensic.InputError
	if errors.As(err, &ie) {
		s.errMsg = ie.Reason
	} else {
		s.errMsg = err.Error()
	}
	s.touchedAt = s.opts.Now()
	return err
}

func (s *Session) attachLocked(b *forensic.Blob, raw []byte) {
	s.releasePreviewLocked()
	s.file = b
	s.fileSHA = util.SHA256Hex(raw)
	s.previewID = s.opts.Previews.Put(b.MIMEType, raw)
	s.errMsg = ""
	s.settleLocked()
}

func (s *Session) ClearFile() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.collectingLocked("clear file"); err != nil {
		return err
	}
	s.file, s.fileSHA = nil, ""
	s.releasePreviewLocked()
	s.settleLocked()
	return nil
}

// Submit запускает ровно один вызов движка. Вызов идёт вне мьютекса;
// повторный Submit во время анализа получает ErrBusy.
func (s *Session) Submit(ctx context.Context, eng forensic.Engine) (forensic.Result, error) {
	s.mu.Lock()
	if err := s.collectingLocked("submit"); err != nil {
		s.mu.Unlock()
		return forensic.Result{}, err
	}
	payload := s.payloadLocked()
	if payload.Empty() {
		err := s.rejectLocked(forensic.Rejected("Input data missing."))
		s.mu.Unlock()
		return forensic.Result{}, err
	}
	req, err := forensic.BuildRequest(s.modality, payload, s.opts.Profiles)
	if err != nil {
		err = s.rejectLocked(err)
		s.mu.Unlock()
		return forensic.Result{}, err
	}
	s.state = StateAnalyzing
	s.errMsg = ""
	s.touchedAt = s.opts.Now()
	s.mu.Unlock()

	s.opts.Logger.Info("analysis started", "session", s.ID, "engine", eng.Name(), "request", req.String())
	res, callErr := eng.Analyze(ctx, req)

	s.mu.Lock()
	if callErr == nil {
		if verr := res.Validate(); verr != nil {
			callErr = forensic.Aborted(verr)
		}
	}
	if callErr != nil {
		s.state = StateReady
		s.errMsg = forensic.ScanAbortedMessage
		s.touchedAt = s.opts.Now()
		s.mu.Unlock()
		s.opts.Logger.Warn("analysis failed", "session", s.ID, "err", callErr)
		return forensic.Result{}, forensic.Aborted(callErr)
	}
	s.result = &res
	s.completedAt = s.opts.Now()
	s.touchedAt = s.completedAt
	s.state = StateComplete
	done := Completion{
		SessionID:   s.ID,
		Modality:    s.modality,
		Engine:      eng.Name(),
		Model:       eng.GetModel(),
		Result:      res,
		CompletedAt: s.completedAt,
	}
	if payload.File != nil {
		done.InputName, done.InputType, done.InputSize = payload.File.Name, payload.File.MIMEType, payload.File.Size
		done.InputSHA256 = s.fileSHA
	} else {
		done.InputType, done.InputSize = "text/plain", len(payload.Text)
		done.InputSHA256 = util.SHA256Hex([]byte(payload.Text))
	}
	s.mu.Unlock()

	if s.opts.OnComplete != nil {
		s.opts.OnComplete(context.WithoutCancel(ctx), done)
	}
	return res, nil
}

// Reset возвращает сессию в Idle без текста, файла, ошибки и результата.
// Модальность сохраняется. Запрещён только во время анализа.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAnalyzing {
		return ErrBusy
	}
	s.text = ""
	s.file, s.fileSHA = nil, ""
	s.releasePreviewLocked()
	s.errMsg = ""
	s.result = nil
	s.completedAt = time.Time{}
	s.state = StateIdle
	s.touchedAt = s.opts.Now()
	return nil
}

// Export: имя файла и JSON-отчёт по результату. Только из Complete.
func (s *Session) Export() (string, []byte, error) {
	res, _, err := s.completed("export")
	if err != nil {
		return "", nil, err
	}
	body, err := report.ExportJSON(res)
	if err != nil {
		return "", nil, err
	}
	return report.Filename(s.opts.Now()), body, nil
}

// ExportPDF: печатная версия отчёта.
func (s *Session) ExportPDF() (string, []byte, error) {
	res, at, err := s.completed("export pdf")
	if err != nil {
		return "", nil, err
	}
	now := s.opts.Now()
	s.mu.Lock()
	meta := report.Meta{SessionID: s.ID, Modality: s.modality, CompletedAt: at, GeneratedAt: now}
	if s.file != nil && s.modality.IsMedia() {
		meta.InputName = s.file.Name
	}
	s.mu.Unlock()
	body, err := report.ExportPDF(res, meta)
	if err != nil {
		return "", nil, err
	}
	return strings.TrimSuffix(report.Filename(now), ".json") + ".pdf", body, nil
}

func (s *Session) completed(op string) (forensic.Result, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateComplete || s.result == nil {
		return forensic.Result{}, time.Time{}, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, s.state)
	}
	return *s.result, s.completedAt, nil
}

// Close освобождает ресурсы сессии (превью).
func (s *Session) Close() {
	s.mu.Lock()
	s.releasePreviewLocked()
	s.mu.Unlock()
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt, s.state == StateAnalyzing
}
