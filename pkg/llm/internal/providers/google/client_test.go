package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm"
	"github.com/SushmithaNemmadi/Text-to-video-convertor-Auto-Project-Narrator/pkg/llm/llmerrors"
)

func TestConvertMessages(t *testing.T) {
	contents, system, err := convertMessages([]llm.CompletionMessage{
		llm.NewSystemMessage("be brief"),
		llm.NewUserMessage("Traffic Prediction"),
		{Role: llm.RoleAssistant, Content: "draft"},
	})
	require.NoError(t, err)
	assert.Equal(t, "be brief", system)
	require.Len(t, contents, 2)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	assert.Equal(t, "draft", contents[1].Parts[0].Text)
}

func TestConvertMessagesRejectsSystemOnly(t *testing.T) {
	_, _, err := convertMessages([]llm.CompletionMessage{llm.NewSystemMessage("only")})
	assert.Error(t, err)
}

func TestClassifyError(t *testing.T) {
	err := classifyError(genai.APIError{Code: 429, Message: "quota", Status: "RESOURCE_EXHAUSTED"})
	assert.Equal(t, llmerrors.ErrorTypeRateLimit, err.Type)

	err = classifyError(genai.APIError{Code: 503, Message: "overloaded"})
	assert.Equal(t, llmerrors.ErrorTypeTransient, err.Type)
}
