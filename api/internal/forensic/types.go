package forensic

import "strings"

// Modality: категория входного контента; от неё зависят правила приёма,
// инструкции и бюджет рассуждений.
type Modality string

const (
	ModalityText     Modality = "TEXT"
	ModalityImage    Modality = "IMAGE"
	ModalityAudio    Modality = "AUDIO"
	ModalityVideo    Modality = "VIDEO"
	ModalityDocument Modality = "DOCUMENT"
)

// Modalities in UI tab order.
var Modalities = []Modality{ModalityText, ModalityImage, ModalityAudio, ModalityVideo, ModalityDocument}

func ParseModality(s string) (Modality, error) {
	m := Modality(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", Rejected("unknown modality %q", s)
	}
	return m, nil
}

func (m Modality) Valid() bool {
	switch m {
	case ModalityText, ModalityImage, ModalityAudio, ModalityVideo, ModalityDocument:
		return true
	}
	return false
}

// IsMedia is true for every modality that takes a file instead of inline text.
func (m Modality) IsMedia() bool { return m.Valid() && m != ModalityText }

type Verdict string

const (
	VerdictHuman     Verdict = "HUMAN"
	VerdictLikelyAI  Verdict = "LIKELY_AI"
	VerdictUncertain Verdict = "UNCERTAIN"
)

func (v Verdict) Valid() bool {
	return v == VerdictHuman || v == VerdictLikelyAI || v == VerdictUncertain
}

// Label is the verdict as shown to a person: "LIKELY AI".
func (v Verdict) Label() string { return strings.ReplaceAll(string(v), "_", " ") }

type Intensity string

const (
	IntensityLow    Intensity = "LOW"
	IntensityMedium Intensity = "MEDIUM"
	IntensityHigh   Intensity = "HIGH"
)

func (i Intensity) Valid() bool {
	return i == IntensityLow || i == IntensityMedium || i == IntensityHigh
}

// Signal: одна улика в пользу вердикта.
type Signal struct {
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Intensity   Intensity `json:"intensity"`
}

// Result: строгий JSON-ответ классификатора (см. prompt.ResultSchema).
type Result struct {
	Verdict     Verdict  `json:"verdict"`
	Confidence  int      `json:"confidence"` // 0..100
	Category    string   `json:"category"`
	Explanation string   `json:"explanation"`
	Signals     []Signal `json:"signals"`
}
