// 包 export 负责导出当前视图：写为 linkedin_data_export.json（带缩进的 JSON 数组）。
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"linkedin-analytics/internal/model"
)

// Project 生成导出投影；空视图得到空切片（编码为 []）。
func Project(view []model.Record) []model.ExportRecord {
	out := make([]model.ExportRecord, 0, len(view))
	for _, r := range view {
		out = append(out, r.Export())
	}
	return out
}

// Write 将视图编码为 JSON 数组写入 w（两空格缩进，不转义 HTML 字符）。
func Write(w io.Writer, view []model.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Project(view)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// ToFile 将视图写入 path。
func ToFile(path string, view []model.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, view); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
