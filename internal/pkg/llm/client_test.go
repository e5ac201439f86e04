package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChatModel struct {
	GenerateFunc func(ctx context.Context, input []*schema.Message) (*schema.Message, error)
	Inputs       [][]*schema.Message
}

// Generate 记录输入并返回预设响应
func (m *mockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	copied := make([]*schema.Message, len(input))
	copy(copied, input)
	m.Inputs = append(m.Inputs, copied)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, input)
	}
	return schema.AssistantMessage("ok", nil), nil
}

// Stream 未使用
func (m *mockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestGenerateWithImageBuildsMultimodalMessage(t *testing.T) {
	chatModel := &mockChatModel{
		GenerateFunc: func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
			msg := schema.AssistantMessage(`{"patient_name":null}`, nil)
			msg.ResponseMeta = &schema.ResponseMeta{Usage: &schema.TokenUsage{PromptTokens: 3, CompletionTokens: 4, TotalTokens: 7}}
			return msg, nil
		},
	}
	client := NewClientWithModel(chatModel, "gemini-2.0-flash")

	reply, err := client.GenerateWithImage(context.Background(), "extract", []byte{0x89, 'P', 'N', 'G'}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, `{"patient_name":null}`, reply.Content)
	require.NotNil(t, reply.Usage)
	assert.Equal(t, 7, reply.Usage.TotalTokens)

	require.Len(t, chatModel.Inputs, 1)
	require.Len(t, chatModel.Inputs[0], 1, "提示词和图片应合并为一条消息")
	msg := chatModel.Inputs[0][0]
	assert.Equal(t, schema.User, msg.Role)
	require.Len(t, msg.MultiContent, 2)
	assert.Equal(t, "extract", msg.MultiContent[0].Text)
	require.NotNil(t, msg.MultiContent[1].ImageURL)
	assert.True(t, strings.HasPrefix(msg.MultiContent[1].ImageURL.URL, "data:image/png;base64,"))
}

func TestConversationKeepsHistory(t *testing.T) {
	count := 0
	chatModel := &mockChatModel{
		GenerateFunc: func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
			count++
			return schema.AssistantMessage("reply", nil), nil
		},
	}
	client := NewClientWithModel(chatModel, "m")
	conv := client.StartConversation()

	_, err := conv.Send(context.Background(), "first")
	require.NoError(t, err)
	_, err = conv.Send(context.Background(), "second")
	require.NoError(t, err)

	assert.Equal(t, 4, conv.HistoryLength())
	require.Len(t, chatModel.Inputs, 2)
	second := chatModel.Inputs[1]
	require.Len(t, second, 3)
	assert.Equal(t, "first", second[0].Content)
	assert.Equal(t, schema.Assistant, second[1].Role)
	assert.Equal(t, "second", second[2].Content)
}

func TestConversationFailureNotCommitted(t *testing.T) {
	chatModel := &mockChatModel{
		GenerateFunc: func(ctx context.Context, input []*schema.Message) (*schema.Message, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	conv := NewClientWithModel(chatModel, "m").StartConversation()

	_, err := conv.Send(context.Background(), "hello")
	assert.Error(t, err)
	assert.Equal(t, 0, conv.HistoryLength())
}

func TestDataURL(t *testing.T) {
	assert.Equal(t, "data:image/jpeg;base64,AQI=", DataURL("image/jpeg", []byte{1, 2}))
}
