package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/Sarita-021/mediSyncAI-App/config"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"k8s.io/klog/v2"
)

// Client 模型服务客户端
// 支持两种请求：图文单次生成、带历史的多轮对话
type Client struct {
	chatModel model.BaseChatModel
	modelName string
}

// NewClient 基于配置创建 OpenAI 兼容的 ChatModel
func NewClient(cfg *config.Config) (*Client, error) {
	chatConfig := &openai.ChatModelConfig{
		BaseURL: cfg.LLM.APIURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}
	if cfg.LLM.MaxTokens > 0 {
		maxTokens := cfg.LLM.MaxTokens
		chatConfig.MaxTokens = &maxTokens
	}

	chatModel, err := openai.NewChatModel(context.Background(), chatConfig)
	if err != nil {
		klog.Errorf("[LLMClient] 创建 ChatModel 失败: %v", err)
		return nil, err
	}

	klog.V(6).Infof("[LLMClient] ChatModel 创建成功: model=%s, baseURL=%s", cfg.LLM.Model, cfg.LLM.APIURL)
	return NewClientWithModel(chatModel, cfg.LLM.Model), nil
}

// NewClientWithModel 使用已有的 ChatModel 创建客户端
func NewClientWithModel(chatModel model.BaseChatModel, modelName string) *Client {
	return &Client{chatModel: chatModel, modelName: modelName}
}

// ModelName 返回模型名称
func (c *Client) ModelName() string {
	return c.modelName
}

// GenerateWithImage 提示词与图片合并为一条多模态用户消息
func (c *Client) GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (*Reply, error) {
	klog.V(6).Infof("[LLMClient] GenerateWithImage 请求: model=%s, promptLength=%d, imageBytes=%d, mime=%s",
		c.modelName, len(prompt), len(image), mimeType)

	message := &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{
				Type: schema.ChatMessagePartTypeText,
				Text: prompt,
			},
			{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:      DataURL(mimeType, image),
					Detail:   schema.ImageURLDetailAuto,
					MIMEType: mimeType,
				},
			},
		},
	}
	return c.generate(ctx, []*schema.Message{message})
}

// StartConversation 创建空历史的会话句柄
func (c *Client) StartConversation() Conversation {
	return &conversation{client: c}
}

func (c *Client) generate(ctx context.Context, messages []*schema.Message) (*Reply, error) {
	resp, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		klog.Errorf("[LLMClient] Generate 失败: model=%s, err=%v", c.modelName, err)
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("no response from LLM")
	}

	reply := &Reply{Content: resp.Content}
	if resp.ResponseMeta != nil {
		reply.Usage = resp.ResponseMeta.Usage
	}
	klog.V(6).Infof("[LLMClient] Generate 完成: responseLength=%d", len(resp.Content))
	klog.V(8).Infof("[LLMClient] Generate 响应: %s", resp.Content)
	return reply, nil
}

// conversation 会话句柄，持有权威历史
type conversation struct {
	client  *Client
	mutex   sync.Mutex
	history []*schema.Message
}

// Send 调用成功后才把本轮写入历史
func (cv *conversation) Send(ctx context.Context, text string) (*Reply, error) {
	cv.mutex.Lock()
	defer cv.mutex.Unlock()

	messages := make([]*schema.Message, 0, len(cv.history)+1)
	messages = append(messages, cv.history...)
	userMessage := schema.UserMessage(text)
	messages = append(messages, userMessage)

	klog.V(6).Infof("[Conversation] Send: historyLength=%d", len(cv.history))
	reply, err := cv.client.generate(ctx, messages)
	if err != nil {
		return nil, err
	}

	cv.history = append(cv.history, userMessage, schema.AssistantMessage(reply.Content, nil))
	return reply, nil
}

// HistoryLength 返回已提交的历史消息数
func (cv *conversation) HistoryLength() int {
	cv.mutex.Lock()
	defer cv.mutex.Unlock()
	return len(cv.history)
}

// DataURL 将图片编码为 data URL
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
