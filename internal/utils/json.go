package utils

import (
	"regexp"
	"strings"

	"k8s.io/klog/v2"
)

// codeFencePattern 匹配 ```json 与 ``` 两种围栏标记
var codeFencePattern = regexp.MustCompile("(?i)```(?:json)?")

// StripCodeFence 去掉模型回复外层的 markdown 代码围栏
// 以围栏开头的文本会移除其中全部围栏标记；其余文本只做首尾空白裁剪。
// 对任意输入都有定义，且重复调用结果不变。
func StripCodeFence(content string) string {
	text := strings.TrimSpace(content)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	stripped := strings.TrimSpace(codeFencePattern.ReplaceAllString(text, ""))
	klog.V(6).Infof("[StripCodeFence] 移除代码围栏: before=%d, after=%d", len(text), len(stripped))
	return stripped
}

// IsJSONObject 判断文本是否以 JSON 对象开头
func IsJSONObject(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), "{")
}
