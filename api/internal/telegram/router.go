package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
	"github.com/Shivay00001/Reality-Lab/api/internal/session"
	"github.com/Shivay00001/Reality-Lab/api/internal/util"
)

// Bot: то, что роутеру нужно от tgbotapi.BotAPI.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Router struct {
	Bot      Bot
	Engines  *EngineManager
	Sessions *session.Manager

	// Timeout: дедлайн одного анализа.
	Timeout time.Duration
	Log     *slog.Logger
	HTTP    *http.Client

	// Spawn запускает анализ в фоне; в тестах можно выполнять синхронно.
	Spawn func(func())
}

func (r *Router) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

func (r *Router) spawn(f func()) {
	if r.Spawn != nil {
		r.Spawn(f)
		return
	}
	go f()
}

func (r *Router) session(chatID int64) *session.Session {
	return r.Sessions.GetOrCreate(sessionKey(chatID))
}

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	switch {
	case msg.IsCommand():
		r.HandleCommand(msg)
	case hasFile(msg):
		r.acceptFile(msg)
	case strings.TrimSpace(msg.Text) != "":
		r.acceptText(msg.Chat.ID, msg.Text)
	}
}

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.Fields(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		s := r.session(cid).Snapshot()
		r.sendMarkup(cid, helpText, makeModeKeyboard(s.Modality))
	case "mode":
		if len(args) == 0 {
			s := r.session(cid).Snapshot()
			r.sendMarkup(cid, "Current modality: "+string(s.Modality), makeModeKeyboard(s.Modality))
			return
		}
		r.selectModality(cid, args[0])
	case "status":
		r.send(cid, statusText(r.session(cid).Snapshot()))
	case "scan":
		r.startScan(cid)
	case "reset":
		r.reset(cid)
	case "export":
		r.export(cid, len(args) > 0 && strings.EqualFold(args[0], "pdf"))
	case "engine":
		r.engineCommand(cid, args)
	default:
		r.send(cid, "Unknown command. "+helpText)
	}
}

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID
	switch data := cb.Data; {
	case strings.HasPrefix(data, cbModePrefix):
		r.selectModality(cid, strings.TrimPrefix(data, cbModePrefix))
	case data == cbScan:
		r.startScan(cid)
	case data == cbExport:
		r.export(cid, false)
	case data == cbExportPDF:
		r.export(cid, true)
	case data == cbReset:
		r.reset(cid)
	}
}

func (r *Router) selectModality(cid int64, arg string) {
	m, err := forensic.ParseModality(arg)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	if err := r.session(cid).SelectModality(m); err != nil {
		r.SendError(cid, err)
		return
	}
	p, _ := r.Sessions.Options().Profiles.Get(m)
	if m == forensic.ModalityText {
		r.send(cid, "Modality: TEXT. Paste the text to investigate.")
		return
	}
	r.send(cid, fmt.Sprintf("Modality: %s. Send a file (%s, up to 30MB).", m, p.Accept))
}

func (r *Router) acceptText(cid int64, text string) {
	if err := r.session(cid).SetText(text); err != nil {
		r.SendError(cid, err)
		return
	}
	r.sendMarkup(cid, fmt.Sprintf("Text received (%d characters).", len([]rune(text))), makeScanKeyboard())
}

func (r *Router) startScan(cid int64) {
	s := r.session(cid)
	eng, err := r.Engines.Get(cid)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	// не Ready: Submit отказывает сразу, без вызова движка
	if s.State() != session.StateReady {
		if _, err := s.Submit(context.Background(), eng); err != nil {
			r.SendError(cid, err)
		}
		return
	}
	_, _ = r.Bot.Request(tgbotapi.NewChatAction(cid, tgbotapi.ChatTyping))
	r.send(cid, "Deep scan in progress…")

	r.spawn(func() {
		timeout := r.Timeout
		if timeout <= 0 {
			timeout = 180 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		res, err := s.Submit(ctx, eng)
		if err != nil {
			r.SendError(cid, err)
			return
		}
		r.sendMarkup(cid, resultText(res), makeResultKeyboard())
	})
}

func (r *Router) reset(cid int64) {
	s := r.session(cid)
	if err := s.Reset(); err != nil {
		r.SendError(cid, err)
		return
	}
	r.sendMarkup(cid, "Ready for a new investigation.", makeModeKeyboard(s.Snapshot().Modality))
}

func (r *Router) export(cid int64, pdf bool) {
	s := r.session(cid)
	var (
		name string
		body []byte
		err  error
	)
	if pdf {
		name, body, err = s.ExportPDF()
	} else {
		name, body, err = s.Export()
	}
	if err != nil {
		r.SendError(cid, err)
		return
	}
	doc := tgbotapi.NewDocument(cid, tgbotapi.FileBytes{Name: name, Bytes: body})
	if _, err := r.Bot.Send(doc); err != nil {
		r.logger().Warn("send export", "chat", cid, "err", err)
	}
}

// engineCommand: /engine показывает текущий и доступные, /engine <name> переключает.
func (r *Router) engineCommand(cid int64, args []string) {
	if len(args) == 0 {
		cur, err := r.Engines.Get(cid)
		if err != nil {
			r.SendError(cid, err)
			return
		}
		r.send(cid, fmt.Sprintf("Current engine: %s (%s)\nAvailable: %s",
			cur.Name(), cur.GetModel(), strings.Join(r.Engines.Names(), " | ")))
		return
	}
	eng, err := r.Engines.Set(cid, args[0])
	if err != nil {
		r.SendError(cid, err)
		return
	}
	r.send(cid, fmt.Sprintf("✅ Engine: %s (%s)", eng.Name(), eng.GetModel()))
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, util.Truncate(text, 3900))
	if _, err := r.Bot.Send(msg); err != nil {
		r.logger().Warn("send", "chat", chatID, "err", err)
	}
}

func (r *Router) sendMarkup(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, util.Truncate(text, 3900))
	msg.ReplyMarkup = kb
	if _, err := r.Bot.Send(msg); err != nil {
		r.logger().Warn("send", "chat", chatID, "err", err)
	}
}

// SendError показывает пользователю только безопасный текст; причина сбоя уходит в лог.
func (r *Router) SendError(chatID int64, err error) {
	var ie *forensic.InputError
	switch {
	case errors.As(err, &ie):
		r.send(chatID, "⚠️ "+ie.Reason)
	case errors.Is(err, forensic.ErrScanAborted):
		r.send(chatID, "❌ "+forensic.ScanAbortedMessage)
	case errors.Is(err, session.ErrBusy):
		r.send(chatID, "⏳ A deep scan is already in progress.")
	case errors.Is(err, session.ErrInvalidTransition):
		r.send(chatID, "Not available right now: use /reset to start a new investigation or /scan to finish the current one.")
	default:
		r.logger().Warn("telegram error", "chat", chatID, "err", err)
		r.send(chatID, fmt.Sprintf("Error: %v", err))
	}
}
