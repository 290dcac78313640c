package forensic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedEngine string

func (n namedEngine) Name() string     { return string(n) }
func (n namedEngine) GetModel() string { return "m-" + string(n) }
func (n namedEngine) Analyze(context.Context, Request) (Result, error) {
	return Result{Verdict: VerdictUncertain, Signals: []Signal{}}, nil
}

func TestEngines_Lookup(t *testing.T) {
	engs := NewEngines("Gemini", namedEngine("gemini"), namedEngine("gemini-sdk"), nil)

	def, err := engs.Default()
	require.NoError(t, err)
	assert.Equal(t, "gemini", def.Name())

	e, err := engs.GetEngine(" GEMINI-SDK ")
	require.NoError(t, err)
	assert.Equal(t, "gemini-sdk", e.Name())

	_, err = engs.GetEngine("gpt")
	assert.ErrorContains(t, err, "gemini, gemini-sdk")

	assert.Equal(t, []string{"gemini", "gemini-sdk"}, engs.Names())
}

func TestEngines_UnknownDefault(t *testing.T) {
	engs := NewEngines("nope", namedEngine("gemini"))
	_, err := engs.Default()
	assert.Error(t, err)
}
