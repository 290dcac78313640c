package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
)

const filenamePrefix = "reality-lab-report-"

// Filename: reality-lab-report-<ISO8601 UTC, ':' и '.' заменены на '-'>.json
func Filename(t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return filenamePrefix + ts + ".json"
}

// ExportJSON: сериализация результата без потерь.
func ExportJSON(r forensic.Result) ([]byte, error) {
	if r.Signals == nil {
		r.Signals = []forensic.Signal{}
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export json: %w", err)
	}
	return append(b, '\n'), nil
}

// ParseJSON читает экспортированный отчёт обратно.
func ParseJSON(data []byte) (forensic.Result, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var r forensic.Result
	if err := dec.Decode(&r); err != nil {
		return forensic.Result{}, fmt.Errorf("parse report: %w", err)
	}
	if r.Signals == nil {
		r.Signals = []forensic.Signal{}
	}
	if err := r.Validate(); err != nil {
		return forensic.Result{}, fmt.Errorf("parse report: %w", err)
	}
	return r, nil
}
