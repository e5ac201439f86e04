package extractor

import (
	"errors"
	"fmt"
)

// ErrInvalidImage 上传内容无法解码为图片
var ErrInvalidImage = errors.New("input is not a decodable image")

// MalformedResponseError 模型回复不是可解析的 JSON 对象
// Raw 为模型回复原文，需原样展示给用户；Normalized 为去围栏后实际参与解析的文本
type MalformedResponseError struct {
	Raw        string
	Normalized string
	Err        error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error parsing JSON response: %v\n%s", e.Err, e.Raw)
	}
	return fmt.Sprintf("error parsing JSON response:\n%s", e.Raw)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// ModelCallError 模型服务调用本身失败
type ModelCallError struct {
	Err error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model service call failed: %v", e.Err)
}

func (e *ModelCallError) Unwrap() error {
	return e.Err
}
