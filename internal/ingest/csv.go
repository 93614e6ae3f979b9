package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"linkedin-analytics/internal/model"
)

// maxSafeInt 为 float64 可精确表示的最大整数；超出的数字保留为字符串（如 URN 中的长 ID）。
const maxSafeInt = 1 << 53

// ParseCSV 读取带表头的 CSV，每行产出一个以表头为键的 Row。
// 单元格按内容推断类型：数字 → float64，true/TRUE/false/FALSE → bool，空 → nil。
// 字段数少于表头的行只包含已有字段；多出的字段忽略。
func ParseCSV(r io.Reader) ([]model.Row, error) {
	br := bufio.NewReader(r)
	// 去掉 UTF-8 BOM
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("parse csv: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("parse csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []model.Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, fmt.Errorf("parse csv line %d: %w", pe.Line, err)
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		row := make(model.Row, len(rec))
		for i, cell := range rec {
			if i >= len(header) || header[i] == "" {
				continue
			}
			row[header[i]] = typed(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// typed 推断单元格类型。
func typed(cell string) any {
	switch cell {
	case "":
		return nil
	case "true", "TRUE":
		return true
	case "false", "FALSE":
		return false
	}
	if looksNumeric(cell) {
		if f, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsInf(f, 0) && math.Abs(f) <= maxSafeInt {
			return f
		}
	}
	return cell
}

// looksNumeric 仅接受十进制写法（可带符号、小数点与指数），排除 0x/Inf/NaN 等 ParseFloat 也接受的形式。
func looksNumeric(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}
