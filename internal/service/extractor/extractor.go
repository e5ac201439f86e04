package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/Sarita-021/mediSyncAI-App/internal/domain"
	"github.com/Sarita-021/mediSyncAI-App/internal/eventbus"
	"github.com/Sarita-021/mediSyncAI-App/internal/pkg/llm"
	"github.com/Sarita-021/mediSyncAI-App/internal/utils"
	"github.com/gabriel-vasile/mimetype"
	"k8s.io/klog/v2"
)

// VisionModel 支持图文请求的模型服务
type VisionModel interface {
	GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (*llm.Reply, error)
	ModelName() string
}

var supportedMIME = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

type Service struct {
	model VisionModel
	bus   *eventbus.ModelCallEventBus
}

// New 创建处方提取服务，bus 可为 nil
func New(model VisionModel, bus *eventbus.ModelCallEventBus) *Service {
	return &Service{model: model, bus: bus}
}

// Extract 识别处方图片并解析为结构化记录
func (s *Service) Extract(ctx context.Context, sessionID string, img []byte) (*domain.PrescriptionRecord, error) {
	mimeType, err := DetectImage(img)
	if err != nil {
		klog.Warningf("[Extractor] 图片校验失败: session=%s, bytes=%d, err=%v", sessionID, len(img), err)
		return nil, err
	}
	klog.V(6).Infof("[Extractor] 开始提取: session=%s, mime=%s, bytes=%d", sessionID, mimeType, len(img))

	start := time.Now()
	reply, err := s.model.GenerateWithImage(ctx, Prompt, img, mimeType)
	s.publish(ctx, sessionID, reply, time.Since(start), err)
	if err != nil {
		klog.Errorf("[Extractor] 模型调用失败: session=%s, err=%v", sessionID, err)
		return nil, &ModelCallError{Err: err}
	}

	record, err := ParseResponse(reply.Content)
	if err != nil {
		klog.Warningf("[Extractor] 回复解析失败: session=%s, err=%v", sessionID, err)
		return nil, err
	}
	klog.V(6).Infof("[Extractor] 提取完成: session=%s, medicines=%d", sessionID, len(record.Medicines))
	return record, nil
}

func (s *Service) publish(ctx context.Context, sessionID string, reply *llm.Reply, duration time.Duration, callErr error) {
	if s.bus == nil {
		return
	}
	event := eventbus.ModelCallEvent{
		Type:      eventbus.ModelCallExtraction,
		SessionID: sessionID,
		Model:     s.model.ModelName(),
		Duration:  duration,
		Err:       callErr,
	}
	if reply != nil {
		event.Usage = reply.Usage
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		klog.Warningf("[Extractor] 发布模型调用事件失败: %v", err)
	}
}

// DetectImage 返回图片的 MIME 类型，仅接受可解码的 PNG/JPEG/GIF
func DetectImage(img []byte) (string, error) {
	if len(img) == 0 {
		return "", fmt.Errorf("%w: empty upload", ErrInvalidImage)
	}
	mt := mimetype.Detect(img)
	if !supportedMIME[mt.String()] {
		return "", fmt.Errorf("%w: detected %s", ErrInvalidImage, mt.String())
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(img)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return mt.String(), nil
}

// NormalizeResponse 去掉代码围栏并裁剪空白
func NormalizeResponse(raw string) string {
	return utils.StripCodeFence(raw)
}

// ParseResponse 解析模型回复
// 缺失或为 null 的字段保持未知，不视为错误
func ParseResponse(raw string) (*domain.PrescriptionRecord, error) {
	text := NormalizeResponse(raw)
	if !utils.IsJSONObject(text) {
		return nil, &MalformedResponseError{Raw: raw, Normalized: text, Err: fmt.Errorf("response is not a JSON object")}
	}

	var record domain.PrescriptionRecord
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Normalized: text, Err: err}
	}
	if record.Medicines == nil {
		record.Medicines = []domain.MedicineEntry{}
	}
	return &record, nil
}
