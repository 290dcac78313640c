package forensic

import "strings"

// MaxFileSize: потолок размера загружаемого файла (30 MiB).
const MaxFileSize = 30 * 1024 * 1024

// SizeExceededMessage: текст отказа по размеру, его видит пользователь.
const SizeExceededMessage = "File exceeds 30MB deep-scan threshold."

// Blob: файл, готовый к отправке (base64-содержимое и объявленный MIME).
type Blob struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     string `json:"-"` // base64 (StdEncoding)
	Size     int    `json:"size"`
}

// Payload: нормализованный вход одного расследования.
// Активно ровно одно из Text/File.
type Payload struct {
	Text string `json:"text,omitempty"`
	File *Blob  `json:"file,omitempty"`
}

func TextPayload(text string) Payload { return Payload{Text: text} }

func FilePayload(b Blob) Payload { return Payload{File: &b} }

func (p Payload) HasText() bool { return strings.TrimSpace(p.Text) != "" }

func (p Payload) HasFile() bool { return p.File != nil && p.File.Data != "" }

func (p Payload) Empty() bool { return !p.HasText() && !p.HasFile() }

// Validate проверяет инвариант «ровно одно из text/file» и потолок размера.
func (p Payload) Validate() error {
	switch {
	case p.HasText() && p.HasFile():
		return Rejected("both text and file are present")
	case p.Empty():
		return Rejected("Input data missing.")
	case p.HasFile() && p.File.Size > MaxFileSize:
		return Rejected(SizeExceededMessage)
	}
	return nil
}
