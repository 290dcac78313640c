package forensic

import (
	"fmt"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic/prompt"
)

// Request: всё, что уходит во внешний классификатор за один вызов.
// Ровно одно из Text/Media заполнено.
type Request struct {
	Modality       Modality
	System         string
	Prompt         string
	Text           string
	Media          *Blob
	ThinkingBudget int
}

// BuildRequest собирает запрос по таблице профилей. Ничего не отправляет.
func BuildRequest(m Modality, p Payload, profiles Profiles) (Request, error) {
	if !m.Valid() {
		return Request{}, Rejected("unknown modality %q", m)
	}
	if err := p.Validate(); err != nil {
		return Request{}, err
	}
	prof, err := profiles.Get(m)
	if err != nil {
		return Request{}, err
	}

	req := Request{
		Modality:       m,
		System:         prompt.System,
		Prompt:         prompt.User(string(m), prof.Instruction),
		ThinkingBudget: prof.ThinkingBudget,
	}
	switch {
	case m == ModalityText:
		if !p.HasText() {
			return Request{}, Rejected("%s expects pasted text", m)
		}
		req.Text = p.Text
	default:
		if !p.HasFile() {
			return Request{}, Rejected("%s expects an uploaded file", m)
		}
		blob := *p.File
		if blob.MIMEType == "" {
			blob.MIMEType = "application/octet-stream"
		}
		req.Media = &blob
	}
	return req, nil
}

// UserText возвращает текст пользовательской части; для TEXT контент дописывается после маркера.
func (r Request) UserText() string {
	if r.Media == nil {
		return r.Prompt + prompt.ContentMarker + r.Text
	}
	return r.Prompt
}

func (r Request) String() string {
	if r.Media != nil {
		return fmt.Sprintf("%s media=%s bytes=%d budget=%d", r.Modality, r.Media.MIMEType, r.Media.Size, r.ThinkingBudget)
	}
	return fmt.Sprintf("%s text=%d chars budget=%d", r.Modality, len([]rune(r.Text)), r.ThinkingBudget)
}
