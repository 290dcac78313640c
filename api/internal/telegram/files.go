package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
)

// Bot API отдаёт через getFile не больше 20 МБ.
const downloadLimit = 20 * 1024 * 1024

type fileRef struct {
	ID       string
	Name     string
	MIMEType string
	Size     int
	Modality forensic.Modality
}

func hasFile(msg *tgbotapi.Message) bool {
	_, ok := fileOf(msg)
	return ok
}

// fileOf выбирает вложение сообщения и модальность, к которой оно относится.
func fileOf(msg *tgbotapi.Message) (fileRef, bool) {
	switch {
	case len(msg.Photo) > 0:
		ph := msg.Photo[len(msg.Photo)-1]
		return fileRef{ID: ph.FileID, Name: "photo.jpg", MIMEType: "image/jpeg", Size: ph.FileSize, Modality: forensic.ModalityImage}, true
	case msg.Video != nil:
		v := msg.Video
		return fileRef{ID: v.FileID, Name: orDefault(v.FileName, "video.mp4"), MIMEType: v.MimeType, Size: v.FileSize, Modality: forensic.ModalityVideo}, true
	case msg.VideoNote != nil:
		v := msg.VideoNote
		return fileRef{ID: v.FileID, Name: "video_note.mp4", MIMEType: "video/mp4", Size: v.FileSize, Modality: forensic.ModalityVideo}, true
	case msg.Audio != nil:
		a := msg.Audio
		return fileRef{ID: a.FileID, Name: orDefault(a.FileName, "audio.mp3"), MIMEType: a.MimeType, Size: a.FileSize, Modality: forensic.ModalityAudio}, true
	case msg.Voice != nil:
		v := msg.Voice
		return fileRef{ID: v.FileID, Name: "voice.ogg", MIMEType: orDefault(v.MimeType, "audio/ogg"), Size: v.FileSize, Modality: forensic.ModalityAudio}, true
	case msg.Document != nil:
		d := msg.Document
		return fileRef{ID: d.FileID, Name: orDefault(d.FileName, "document"), MIMEType: d.MimeType, Size: d.FileSize, Modality: modalityForMIME(d.MimeType)}, true
	}
	return fileRef{}, false
}

// modalityForMIME: документ, присланный файлом, но с медийным типом.
func modalityForMIME(mt string) forensic.Modality {
	mt = strings.ToLower(mt)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return forensic.ModalityImage
	case strings.HasPrefix(mt, "audio/"):
		return forensic.ModalityAudio
	case strings.HasPrefix(mt, "video/"):
		return forensic.ModalityVideo
	}
	return forensic.ModalityDocument
}

func (r *Router) acceptFile(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	ref, _ := fileOf(msg)
	s := r.session(cid)

	// вкладка переключается под тип вложения
	if s.Snapshot().Modality != ref.Modality {
		if err := s.SelectModality(ref.Modality); err != nil {
			r.SendError(cid, err)
			return
		}
	}
	// размер известен из апдейта: отказываем до скачивания
	if err := s.PrecheckSize(int64(ref.Size)); err != nil {
		r.SendError(cid, err)
		return
	}
	if ref.Size > downloadLimit {
		r.send(cid, "⚠️ Telegram bots can only download files up to 20MB. Use the HTTP API for larger samples.")
		return
	}

	// в URL файла есть токен бота: наружу только общий текст
	url, err := r.Bot.GetFileDirectURL(ref.ID)
	if err != nil {
		r.logger().Warn("get file", "chat", cid, "err", err)
		r.send(cid, "❌ Could not fetch the file from Telegram.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	data, err := r.download(ctx, url, forensic.MaxFileSize+1)
	if err != nil {
		r.logger().Warn("download", "chat", cid, "err", err)
		r.send(cid, "❌ Could not fetch the file from Telegram.")
		return
	}

	if err := s.AttachFile(ref.Name, ref.MIMEType, data); err != nil {
		r.SendError(cid, err)
		return
	}
	fi := s.Snapshot().File
	r.sendMarkup(cid, fmt.Sprintf("%s received: %s (%s, %d bytes).", ref.Modality, fi.Name, fi.MIMEType, fi.Size), makeScanKeyboard())
}

func (r *Router) download(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(b))
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

func (r *Router) httpClient() *http.Client {
	if r.HTTP != nil {
		return r.HTTP
	}
	return &http.Client{Timeout: 60 * time.Second}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
