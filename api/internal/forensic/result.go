package forensic

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic/prompt"
	"github.com/Shivay00001/Reality-Lab/api/internal/util"
)

var resultSchema = jsonschema.MustCompileString("reality-lab/result.schema.json", prompt.ResultSchema)

// ParseResult разбирает текст ответа модели строго по схеме.
// Пустой ответ, не-JSON и нарушение схемы считаются ошибкой, починки нет.
func ParseResult(raw string) (Result, error) {
	txt := util.StripCodeFences(strings.TrimSpace(raw))
	if txt == "" {
		return Result{}, errors.New("empty response")
	}

	dec := json.NewDecoder(strings.NewReader(txt))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Result{}, fmt.Errorf("bad JSON: %w", err)
	}
	if dec.More() {
		return Result{}, errors.New("bad JSON: trailing data after object")
	}
	if err := resultSchema.Validate(doc); err != nil {
		return Result{}, fmt.Errorf("schema: %w", err)
	}

	// схема считает 82.0 целым числом; приводим к виду, который примет int
	if m, ok := doc.(map[string]any); ok {
		if n, ok := m["confidence"].(json.Number); ok {
			if f, err := n.Float64(); err == nil {
				m["confidence"] = int(f)
			}
		}
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return Result{}, fmt.Errorf("bad JSON: %w", err)
	}

	var out Result
	strict := json.NewDecoder(bytes.NewReader(body))
	strict.DisallowUnknownFields()
	if err := strict.Decode(&out); err != nil {
		return Result{}, fmt.Errorf("bad JSON: %w", err)
	}
	if out.Signals == nil {
		out.Signals = []Signal{}
	}
	return out, out.Validate()
}

// Validate повторяет инварианты схемы для результатов, собранных в коде.
func (r Result) Validate() error {
	if !r.Verdict.Valid() {
		return fmt.Errorf("invalid verdict %q", r.Verdict)
	}
	if r.Confidence < 0 || r.Confidence > 100 {
		return fmt.Errorf("confidence %d out of range 0..100", r.Confidence)
	}
	for i, s := range r.Signals {
		if !s.Intensity.Valid() {
			return fmt.Errorf("signal %d: invalid intensity %q", i, s.Intensity)
		}
	}
	return nil
}
