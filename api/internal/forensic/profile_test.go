package forensic

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProfiles_BudgetOrdering(t *testing.T) {
	ps := DefaultProfiles()
	require.NoError(t, ps.Validate())

	assert.Equal(t, 24576, ps[ModalityVideo].ThinkingBudget)
	assert.Equal(t, 16000, ps[ModalityAudio].ThinkingBudget)
	assert.Equal(t, 12000, ps[ModalityImage].ThinkingBudget)
	assert.Equal(t, 10000, ps[ModalityDocument].ThinkingBudget)
	assert.Equal(t, 6000, ps[ModalityText].ThinkingBudget)

	for i := 1; i < len(BudgetOrder); i++ {
		assert.Greater(t, ps[BudgetOrder[i-1]].ThinkingBudget, ps[BudgetOrder[i]].ThinkingBudget)
	}
}

func TestProfiles_ValidateRejectsBrokenTables(t *testing.T) {
	t.Run("misordered", func(t *testing.T) {
		ps := DefaultProfiles()
		p := ps[ModalityText]
		p.ThinkingBudget = 50000
		ps[ModalityText] = p
		assert.Error(t, ps.Validate())
	})
	t.Run("missing modality", func(t *testing.T) {
		ps := DefaultProfiles()
		delete(ps, ModalityAudio)
		assert.Error(t, ps.Validate())
	})
	t.Run("equal budgets", func(t *testing.T) {
		ps := DefaultProfiles()
		p := ps[ModalityImage]
		p.ThinkingBudget = ps[ModalityDocument].ThinkingBudget
		ps[ModalityImage] = p
		assert.Error(t, ps.Validate())
	})
}

func TestLoadProfiles_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
profiles:
  video:
    thinking_budget: 30000
  document:
    accept: ".pdf,.txt,.md"
`), 0o644))

	ps, err := LoadProfiles(path)
	require.NoError(t, err)
	assert.Equal(t, 30000, ps[ModalityVideo].ThinkingBudget)
	assert.Equal(t, ".pdf,.txt,.md", ps[ModalityDocument].Accept)
	// нетронутые поля остаются дефолтными
	assert.Equal(t, DefaultProfiles()[ModalityDocument].Instruction, ps[ModalityDocument].Instruction)
}

func TestLoadProfiles_OrderingEnforced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  TEXT:\n    thinking_budget: 99999\n"), 0o644))
	_, err := LoadProfiles(path)
	assert.Error(t, err)
}

func TestLoadProfiles_UnknownModality(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles:\n  HOLOGRAM:\n    thinking_budget: 1\n"), 0o644))
	_, err := LoadProfiles(path)
	assert.Error(t, err)
}

func TestProfile_Accepts(t *testing.T) {
	ps := DefaultProfiles()
	cases := []struct {
		m    Modality
		name string
		mt   string
		want bool
	}{
		{ModalityImage, "a.png", "image/png", true},
		{ModalityImage, "a.mp4", "video/mp4", false},
		{ModalityAudio, "a.wav", "audio/wav; codecs=1", true},
		{ModalityVideo, "clip.mov", "video/quicktime", true},
		{ModalityDocument, "paper.PDF", "application/pdf", true},
		{ModalityDocument, "notes.docx", "application/octet-stream", true},
		{ModalityDocument, "photo.jpg", "image/jpeg", false},
		{ModalityText, "anything", "", true},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ps[c.m].Accepts(c.name, c.mt), "%s %s %s", c.m, c.name, c.mt)
	}
}
