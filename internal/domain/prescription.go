package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// 展示用的缺省文本
const (
	FallbackNotAvailable = "N/A"
	FallbackUnknown      = "Unknown"
	FallbackNone         = "None"
)

// OptionalString 模型返回的可空字符串字段
// 缺失、null 与空白字符串都视为"未知"
type OptionalString struct {
	Value string
	Valid bool
}

// Some 构造一个有值的 OptionalString
func Some(v string) OptionalString {
	return OptionalString{Value: v, Valid: true}
}

// UnmarshalJSON 接受字符串、null，数字与布尔值按字面量保留
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*o = OptionalString{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*o = Some(s)
		return nil
	case '{', '[':
		return fmt.Errorf("expected string value, got %s", trimmed)
	default:
		*o = Some(string(trimmed))
		return nil
	}
}

// MarshalJSON 无值时输出 null
func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// OrDefault 缺省替换：无值或空白时返回 fallback
func (o OptionalString) OrDefault(fallback string) string {
	if !o.Valid || strings.TrimSpace(o.Value) == "" {
		return fallback
	}
	return o.Value
}

// MedicineEntry 处方中的一条药品
// 剂量、疗程等均为原样展示的自由文本
type MedicineEntry struct {
	Name            OptionalString `json:"name"`
	Strength        OptionalString `json:"strength"`
	DosageFrequency OptionalString `json:"dosage_frequency"`
	Duration        OptionalString `json:"duration"`
}

// PrescriptionRecord 单次提取的结构化结果，不落库
type PrescriptionRecord struct {
	PatientName OptionalString  `json:"patient_name"`
	Medicines   []MedicineEntry `json:"medicines"`
	Notes       OptionalString  `json:"notes"`
}

// PrescriptionSummary 处方摘要的展示形式
type PrescriptionSummary struct {
	PatientName string   `json:"patient_name"`
	Medicines   []string `json:"medicines"`
	Notes       string   `json:"notes"`
}

// Line 渲染单条药品
func (m MedicineEntry) Line() string {
	return fmt.Sprintf("💊 %s – %s – Dosage: %s – Duration: %s",
		m.Name.OrDefault(FallbackUnknown),
		m.Strength.OrDefault(FallbackNotAvailable),
		m.DosageFrequency.OrDefault(FallbackNotAvailable),
		m.Duration.OrDefault(FallbackNotAvailable),
	)
}

// Summary 生成摘要，顺序与模型返回顺序一致
func (r *PrescriptionRecord) Summary() PrescriptionSummary {
	lines := make([]string, 0, len(r.Medicines))
	for _, m := range r.Medicines {
		lines = append(lines, m.Line())
	}
	return PrescriptionSummary{
		PatientName: r.PatientName.OrDefault(FallbackNotAvailable),
		Medicines:   lines,
		Notes:       r.Notes.OrDefault(FallbackNone),
	}
}

// Markdown 以 markdown 渲染摘要
func (r *PrescriptionRecord) Markdown() string {
	var b strings.Builder
	b.WriteString("### 👩‍⚕️ Prescription Summary\n\n")
	fmt.Fprintf(&b, "**Patient Name:** %s\n\n", r.PatientName.OrDefault(FallbackNotAvailable))
	b.WriteString("**Medicines Prescribed:**\n\n")
	for _, m := range r.Medicines {
		fmt.Fprintf(&b, "- 💊 **%s** – %s – Dosage: %s – Duration: %s\n",
			m.Name.OrDefault(FallbackUnknown),
			m.Strength.OrDefault(FallbackNotAvailable),
			m.DosageFrequency.OrDefault(FallbackNotAvailable),
			m.Duration.OrDefault(FallbackNotAvailable),
		)
	}
	fmt.Fprintf(&b, "\n**Notes:** %s\n", r.Notes.OrDefault(FallbackNone))
	return b.String()
}
