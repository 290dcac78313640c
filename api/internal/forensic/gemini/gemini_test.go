package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivay00001/Reality-Lab/api/internal/forensic"
)

func TestParts_Media(t *testing.T) {
	req, err := forensic.BuildRequest(forensic.ModalityImage,
		forensic.FilePayload(forensic.Blob{Name: "a.png", MIMEType: "image/png", Data: "AAECAw==", Size: 4}),
		forensic.DefaultProfiles())
	require.NoError(t, err)

	parts, err := Parts(req)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, genai.Text(req.Prompt), parts[0])
	blob, ok := parts[1].(*genai.Blob)
	require.True(t, ok)
	assert.Equal(t, "image/png", blob.MIMEType)
	assert.Equal(t, []byte{0, 1, 2, 3}, blob.Data)
}

func TestParts_Text(t *testing.T) {
	req, err := forensic.BuildRequest(forensic.ModalityText, forensic.TextPayload("abc"), forensic.DefaultProfiles())
	require.NoError(t, err)

	parts, err := Parts(req)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Contains(t, string(parts[0].(genai.Text)), "CONTENT:\nabc")
}

func TestParts_BadBase64(t *testing.T) {
	_, err := Parts(forensic.Request{Media: &forensic.Blob{MIMEType: "image/png", Data: "%%%"}})
	assert.Error(t, err)
}

func TestResponseSchema_MatchesResultContract(t *testing.T) {
	s := ResponseSchema()
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.ElementsMatch(t, []string{"verdict", "confidence", "category", "explanation", "signals"}, s.Required)
	assert.Equal(t, []string{"HUMAN", "LIKELY_AI", "UNCERTAIN"}, s.Properties["verdict"].Enum)
	assert.Equal(t, genai.TypeInteger, s.Properties["confidence"].Type)
	items := s.Properties["signals"].Items
	require.NotNil(t, items)
	assert.Equal(t, []string{"LOW", "MEDIUM", "HIGH"}, items.Properties["intensity"].Enum)
}

func TestAnalyze_MissingKeyIsAborted(t *testing.T) {
	req, err := forensic.BuildRequest(forensic.ModalityText, forensic.TextPayload("abc"), forensic.DefaultProfiles())
	require.NoError(t, err)

	_, err = New("", "gemini-3-pro-preview").Analyze(context.Background(), req)
	assert.ErrorIs(t, err, forensic.ErrScanAborted)
}

func TestFirstText(t *testing.T) {
	assert.Empty(t, firstText(nil))
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: nil},
		{Content: &genai.Content{Parts: []genai.Part{genai.Text(" {\"a\":1} ")}}},
	}}
	assert.Equal(t, `{"a":1}`, firstText(resp))
}
