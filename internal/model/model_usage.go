package model

import "time"

// ModelUsage 模型调用用量记录
// 只记录计量信息，不保存处方或对话内容
type ModelUsage struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Kind             string    `json:"kind" gorm:"size:32;index:idx_model_usages_kind;not null"` // extraction/chat/priming
	SessionID        string    `json:"session_id" gorm:"size:64;index"`
	Model            string    `json:"model" gorm:"size:255"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	DurationMs       int64     `json:"duration_ms"`
	Success          bool      `json:"success"`
	ErrorMessage     string    `json:"error_message" gorm:"type:text"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName 指定表名
func (ModelUsage) TableName() string {
	return "model_usages"
}

// ModelUsageStats 按调用类型聚合的统计
type ModelUsageStats struct {
	Kind          string  `json:"kind"`
	CallCount     int64   `json:"call_count"`
	ErrorCount    int64   `json:"error_count"`
	TotalTokens   int64   `json:"total_tokens"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
}
