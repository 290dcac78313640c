package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
)

// Engine: классификатор через SDK generative-ai-go.
// SDK не умеет thinkingConfig, поэтому бюджет рассуждений здесь только логируется;
// для полного контракта используйте googleai.
type Engine struct {
	APIKey  string
	Model   string
	Options []option.ClientOption
	log     *slog.Logger
}

func New(apiKey, model string, opts ...option.ClientOption) *Engine {
	return &Engine{
		APIKey:  strings.TrimSpace(apiKey),
		Model:   strings.TrimSpace(model),
		Options: opts,
		log:     slog.Default(),
	}
}

func (e *Engine) WithLogger(l *slog.Logger) *Engine {
	if l != nil {
		e.log = l
	}
	return e
}

func (e *Engine) Name() string     { return "gemini-sdk" }
func (e *Engine) GetModel() string { return e.Model }

// ResponseSchema: prompt.ResultSchema в терминах genai.Schema.
func ResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"verdict": {
				Type:        genai.TypeString,
				Enum:        []string{string(forensic.VerdictHuman), string(forensic.VerdictLikelyAI), string(forensic.VerdictUncertain)},
				Description: "HUMAN, LIKELY_AI, or UNCERTAIN",
			},
			"confidence": {Type: genai.TypeInteger, Description: "0-100"},
			"category": {
				Type:        genai.TypeString,
				Description: "Origin class (e.g., 'Semi-AI Edited', '3D Rendered Avatar', 'Full AI Video', 'Human')",
			},
			"explanation": {Type: genai.TypeString, Description: "Deep technical 'Why' behind the detection."},
			"signals": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"label":       {Type: genai.TypeString},
						"description": {Type: genai.TypeString},
						"intensity": {
							Type: genai.TypeString,
							Enum: []string{string(forensic.IntensityLow), string(forensic.IntensityMedium), string(forensic.IntensityHigh)},
						},
					},
					Required: []string{"label", "description", "intensity"},
				},
			},
		},
		Required: []string{"verdict", "confidence", "category", "explanation", "signals"},
	}
}

// Parts собирает пользовательскую часть запроса: текст либо текст + Blob.
func Parts(req forensic.Request) ([]genai.Part, error) {
	parts := []genai.Part{genai.Text(req.UserText())}
	if req.Media != nil {
		data, err := base64.StdEncoding.DecodeString(req.Media.Data)
		if err != nil {
			return nil, fmt.Errorf("gemini-sdk: bad base64: %w", err)
		}
		parts = append(parts, &genai.Blob{MIMEType: req.Media.MIMEType, Data: data})
	}
	return parts, nil
}

func (e *Engine) Analyze(ctx context.Context, req forensic.Request) (forensic.Result, error) {
	started := time.Now()
	res, err := e.analyze(ctx, req)
	if err != nil {
		var blocked *genai.BlockedError
		e.log.Warn("forensic scan aborted",
			"engine", e.Name(), "model", e.Model, "request", req.String(),
			"policy_block", errors.As(err, &blocked), "elapsed", time.Since(started), "err", err)
		return forensic.Result{}, forensic.Aborted(err)
	}
	e.log.Info("forensic scan complete",
		"engine", e.Name(), "model", e.Model, "request", req.String(),
		"verdict", res.Verdict, "confidence", res.Confidence, "elapsed", time.Since(started))
	return res, nil
}

func (e *Engine) analyze(ctx context.Context, req forensic.Request) (forensic.Result, error) {
	if e.APIKey == "" {
		return forensic.Result{}, errors.New("GEMINI_API_KEY is empty")
	}
	parts, err := Parts(req)
	if err != nil {
		return forensic.Result{}, err
	}

	opts := append([]option.ClientOption{option.WithAPIKey(e.APIKey)}, e.Options...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return forensic.Result{}, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return forensic.Result{}, fmt.Errorf("gemini-sdk: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   ResponseSchema(),
	}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}

	e.log.Debug("thinking budget is not supported by the SDK transport", "budget", req.ThinkingBudget)

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		return forensic.Result{}, err
	}
	txt := firstText(resp)
	if txt == "" {
		return forensic.Result{}, fmt.Errorf("gemini-sdk: empty response")
	}
	r, err := forensic.ParseResult(txt)
	if err != nil {
		return forensic.Result{}, fmt.Errorf("gemini-sdk: %w", err)
	}
	return r, nil
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			return s
		}
	}
	return ""
}
