package llm

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Reply 模型回复
type Reply struct {
	Content string
	// Usage 服务端未返回时为 nil
	Usage *schema.TokenUsage
}

// Conversation 远端会话句柄
type Conversation interface {
	Send(ctx context.Context, text string) (*Reply, error)
	HistoryLength() int
}
