package googleai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
)

// Engine: классификатор через Google Gen AI SDK. Бюджет рассуждений
// уходит в ThinkingConfig, поэтому это движок по умолчанию.
type Engine struct {
	APIKey  string
	Model   string
	BaseURL string
	httpc   *http.Client
	log     *slog.Logger
}

func New(key, model string) *Engine {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          10,
	}
	return &Engine{
		APIKey: strings.TrimSpace(key),
		Model:  strings.TrimSpace(model),
		// Timeout=0: длительность вызова ограничивает только ctx
		httpc: &http.Client{Timeout: 0, Transport: tr},
		log:   slog.Default(),
	}
}

// WithHTTPClient overrides the internal HTTP client (tests, tracing).
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

// WithBaseURL направляет SDK на другой endpoint (прокси, httptest).
func (e *Engine) WithBaseURL(u string) *Engine {
	if u = strings.TrimSpace(u); u != "" {
		e.BaseURL = strings.TrimRight(u, "/") + "/"
	}
	return e
}

func (e *Engine) WithLogger(l *slog.Logger) *Engine {
	if l != nil {
		e.log = l
	}
	return e
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

func ptr[T any](v T) *T { return &v }

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
			"confidence": {
				Type:        genai.TypeInteger,
				Minimum:     ptr(0.0),
				Maximum:     ptr(100.0),
				Description: "0-100",
			},
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
							Type:        genai.TypeString,
							Enum:        []string{string(forensic.IntensityLow), string(forensic.IntensityMedium), string(forensic.IntensityHigh)},
							Description: "LOW, MEDIUM, or HIGH",
						},
					},
					Required: []string{"label", "description", "intensity"},
				},
			},
		},
		Required: []string{"verdict", "confidence", "category", "explanation", "signals"},
	}
}

// Contents собирает пользовательскую часть запроса: текст либо текст + inline data.
func Contents(req forensic.Request) ([]*genai.Content, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.UserText())}
	if req.Media != nil {
		data, err := base64.StdEncoding.DecodeString(req.Media.Data)
		if err != nil {
			return nil, fmt.Errorf("gemini: bad base64: %w", err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, req.Media.MIMEType))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil
}

// Config: системная инструкция, JSON-ответ по схеме и бюджет рассуждений модальности.
func Config(req forensic.Request) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    ResponseSchema(),
		ThinkingConfig:    &genai.ThinkingConfig{ThinkingBudget: ptr(int32(req.ThinkingBudget))},
	}
}

func (e *Engine) Analyze(ctx context.Context, req forensic.Request) (forensic.Result, error) {
	started := time.Now()
	res, err := e.analyze(ctx, req)
	if err != nil {
		var apiErr genai.APIError
		e.log.Warn("forensic scan aborted",
			"engine", e.Name(), "model", e.Model, "request", req.String(),
			"status", statusOf(err, &apiErr), "elapsed", time.Since(started), "err", err)
		return forensic.Result{}, forensic.Aborted(err)
	}
	e.log.Info("forensic scan complete",
		"engine", e.Name(), "model", e.Model, "request", req.String(),
		"verdict", res.Verdict, "confidence", res.Confidence, "elapsed", time.Since(started))
	return res, nil
}

func statusOf(err error, apiErr *genai.APIError) int {
	if errors.As(err, apiErr) {
		return apiErr.Code
	}
	return 0
}

func (e *Engine) client(ctx context.Context) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:     e.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: e.httpc,
	}
	if e.BaseURL != "" {
		cc.HTTPOptions.BaseURL = e.BaseURL
	}
	return genai.NewClient(ctx, cc)
}

func (e *Engine) analyze(ctx context.Context, req forensic.Request) (forensic.Result, error) {
	if e.APIKey == "" {
		return forensic.Result{}, errors.New("GEMINI_API_KEY is empty")
	}
	contents, err := Contents(req)
	if err != nil {
		return forensic.Result{}, err
	}
	cl, err := e.client(ctx)
	if err != nil {
		return forensic.Result{}, fmt.Errorf("gemini: client: %w", err)
	}

	resp, err := cl.Models.GenerateContent(ctx, e.Model, contents, Config(req))
	if err != nil {
		return forensic.Result{}, fmt.Errorf("gemini: %w", err)
	}
	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" {
		return forensic.Result{}, fmt.Errorf("gemini: prompt blocked: %s", pf.BlockReason)
	}
	txt, finish := firstText(resp)
	if txt == "" {
		return forensic.Result{}, fmt.Errorf("gemini: empty response (finishReason=%s)", finish)
	}
	r, err := forensic.ParseResult(txt)
	if err != nil {
		return forensic.Result{}, fmt.Errorf("gemini: %w", err)
	}
	return r, nil
}

// firstText склеивает текстовые части первого кандидата, пропуская «мысли» модели.
func firstText(resp *genai.GenerateContentResponse) (string, genai.FinishReason) {
	if resp == nil {
		return "", ""
	}
	for _, c := range resp.Candidates {
		if c == nil {
			continue
		}
		if c.Content == nil {
			if c.FinishReason != "" {
				return "", c.FinishReason
			}
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if p == nil || p.Thought {
				continue
			}
			b.WriteString(p.Text)
		}
		return strings.TrimSpace(b.String()), c.FinishReason
	}
	return "", ""
}
