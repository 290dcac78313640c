// Package collector принимает вставленный текст или один файл и превращает их
// в forensic.Payload: проверка размера, шаблона приёма, MIME и кодирование в base64.
package collector

import (
	"encoding/base64"
	"path/filepath"
	"strings"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
	"github.com/Shivay00001/Reality-Lab/api/internal/util"
)

const SizeExceededMessage = forensic.SizeExceededMessage

type Collector struct {
	Profiles forensic.Profiles
	MaxSize  int
}

func New(profiles forensic.Profiles) *Collector {
	if profiles == nil {
		profiles = forensic.DefaultProfiles()
	}
	return &Collector{Profiles: profiles, MaxSize: forensic.MaxFileSize}
}

// Text: вход для модальности TEXT.
func (c *Collector) Text(m forensic.Modality, text string) (forensic.Payload, error) {
	if m != forensic.ModalityText {
		return forensic.Payload{}, forensic.Rejected("%s does not accept pasted text; upload a file", m)
	}
	if strings.TrimSpace(text) == "" {
		return forensic.Payload{}, forensic.Rejected("Input data missing.")
	}
	return forensic.TextPayload(text), nil
}

// CheckSize отклоняет файл до чтения/декодирования, если размер уже известен.
func (c *Collector) CheckSize(size int64) error {
	if size > int64(c.maxSize()) {
		return forensic.Rejected(SizeExceededMessage)
	}
	return nil
}

// File принимает сырые байты файла.
func (c *Collector) File(m forensic.Modality, name, declaredType string, data []byte) (forensic.Payload, error) {
	return c.file(m, name, declaredType, "", data)
}

// FileBase64 принимает base64 или data:URL (JSON-клиенты). Вместе с payload
// возвращает декодированные байты, чтобы не декодировать их повторно.
func (c *Collector) FileBase64(m forensic.Modality, name, declaredType, b64 string) (forensic.Payload, []byte, error) {
	// грубая оценка размера до декодирования: 4 символа base64 = 3 байта
	if est := int64(len(util.StripDataURL(b64))) / 4 * 3; est > int64(c.maxSize())+3 {
		return forensic.Payload{}, nil, forensic.Rejected(SizeExceededMessage)
	}
	data, hint, err := util.DecodeBase64MaybeDataURL(b64)
	if err != nil {
		return forensic.Payload{}, nil, forensic.Rejected("bad base64 content")
	}
	p, err := c.file(m, name, declaredType, hint, data)
	if err != nil {
		return forensic.Payload{}, nil, err
	}
	return p, data, nil
}

func (c *Collector) file(m forensic.Modality, name, declaredType, hint string, data []byte) (forensic.Payload, error) {
	if !m.IsMedia() {
		return forensic.Payload{}, forensic.Rejected("%s expects pasted text, not a file", m)
	}
	if err := c.CheckSize(int64(len(data))); err != nil {
		return forensic.Payload{}, err
	}
	if len(data) == 0 {
		return forensic.Payload{}, forensic.Rejected("file is empty")
	}
	prof, err := c.Profiles.Get(m)
	if err != nil {
		return forensic.Payload{}, err
	}

	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}
	mt := util.PickMIME(declaredType, hint, name, data)
	if !prof.Accepts(name, mt) {
		return forensic.Payload{}, forensic.Rejected("%s (%s) is not accepted for %s; expected %s", displayName(name), mt, m, prof.Accept)
	}

	return forensic.FilePayload(forensic.Blob{
		Name:     name,
		MIMEType: mt,
		Data:     base64.StdEncoding.EncodeToString(data),
		Size:     len(data),
	}), nil
}

func (c *Collector) maxSize() int {
	if c.MaxSize > 0 {
		return c.MaxSize
	}
	return forensic.MaxFileSize
}

func displayName(name string) string {
	if name == "" {
		return "file"
	}
	return name
}
