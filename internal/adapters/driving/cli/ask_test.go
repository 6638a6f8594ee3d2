package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestAskCmd_Flags(t *testing.T) {
	flag := askCmd.Flags().Lookup("results")
	require.NotNil(t, flag)
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "5", flag.DefValue)
	assert.NotNil(t, askCmd.Flags().Lookup("json"))
}

func TestAskCmd_Answer(t *testing.T) {
	ts := setupTestServices(t)
	ts.answer.answer = domain.Answer{
		Text:    "She was tired of sitting by her sister [1].",
		Model:   "llama3.2",
		Sources: sampleResults(),
	}

	out, err := execute(t, "ask", "why was alice bored?", "-n", "3")

	require.NoError(t, err)
	assert.Equal(t, "why was alice bored?", ts.answer.question)
	assert.Equal(t, 3, ts.answer.k)
	assert.Contains(t, out, "Answer")
	assert.Contains(t, out, "She was tired of sitting by her sister [1].")
	assert.Contains(t, out, "Sources (llama3.2)")
	assert.Contains(t, out, "0.800")
}

func TestAskCmd_NoContext(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "ask", "anything")

	require.NoError(t, err)
	assert.Contains(t, out, "No relevant passages found.")
}

func TestAskCmd_JSON(t *testing.T) {
	ts := setupTestServices(t)
	ts.answer.answer = domain.Answer{Text: "ok", Model: "m"}

	out, err := execute(t, "ask", "q", "--json")

	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "q", got["question"])
	assert.Equal(t, "ok", got["answer"])
	assert.Equal(t, []any{}, got["sources"])
}

func TestAskCmd_Errors(t *testing.T) {
	t.Run("generation failure", func(t *testing.T) {
		ts := setupTestServices(t)
		ts.answer.err = domain.ErrGenerationFailed

		_, err := execute(t, "ask", "q")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrGenerationFailed)
		assert.Contains(t, err.Error(), "ask failed")
	})

	t.Run("no language model", func(t *testing.T) {
		setupTestServices(t)
		answerService = nil

		_, err := execute(t, "ask", "q")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
		assert.Contains(t, err.Error(), "llm.provider")
	})

	t.Run("reports why the model is missing", func(t *testing.T) {
		setupTestServices(t)
		answerService, answerErr = nil, domain.ErrLLMUnavailable

		_, err := execute(t, "ask", "q")
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})
}
