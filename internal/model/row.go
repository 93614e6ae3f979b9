// 包 model 定义领域数据模型：
// - Row：CSV 一行（表头字段名 → 值）
// - Record：归一化后的动态条目（构造后只读）
// - Stats / ExportRecord：统计与导出结构
package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Row 为表格解析器产出的一行：键为表头字段名，值可能是
// string / float64 / bool / nil，或从缓存恢复时的结构化列表。
type Row map[string]any

// Populated 返回非空字段数（nil 与空白字符串不计）。
func (r Row) Populated() int {
	n := 0
	for _, v := range r {
		switch t := v.(type) {
		case nil:
		case string:
			if strings.TrimSpace(t) != "" {
				n++
			}
		default:
			n++
		}
	}
	return n
}

// String 读取字段并转为字符串；缺失返回空串。
func (r Row) String(key string) string {
	v, ok := r[key]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "True"
		}
		return "False"
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Bool 解析 "True"/"False" 编码的布尔值（忽略大小写），其余一律为 false。
func (r Row) Bool(key string) bool {
	switch t := r[key].(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	default:
		return false
	}
}

// Int 按前缀数字解析非负整数（"12abc" → 12，"1,234" → 1），无法解析或为负时返回 0。
func (r Row) Int(key string) int64 {
	var n int64
	switch t := r[key].(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		n = int64(t)
	case int:
		n = int64(t)
	case int64:
		n = t
	case json.Number:
		n = leadingInt(t.String())
	case string:
		n = leadingInt(t)
	}
	if n < 0 {
		return 0
	}
	return n
}

// leadingInt 解析字符串开头的十进制整数，允许前导空白与符号。
func leadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	if neg {
		return -n
	}
	return n
}
