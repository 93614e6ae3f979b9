// 包 dashboard 持有仪表盘的显式应用状态：
// - 当前数据集（经由导入流水线）
// - 当前过滤条件与排序
// - 最近一次求出的视图（导出即导出该视图）
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"linkedin-analytics/internal/dataset"
	"linkedin-analytics/internal/export"
	"linkedin-analytics/internal/filter"
	"linkedin-analytics/internal/ingest"
	"linkedin-analytics/internal/model"
	"linkedin-analytics/internal/stats"
)

// 面向用户的提示，彼此可区分。
const (
	MsgNoValidData = "No valid data found in the CSV file."
	MsgNoMatches   = "No matches found for the current filters."
	MsgNoData      = "No data available. Please upload a CSV file."
)

// ProcessingError 为导入失败的提示文本。
func ProcessingError(err error) string {
	return fmt.Sprintf("Error processing file: %v", err)
}

// ErrNotLoaded 表示当前没有已加载的数据。
var ErrNotLoaded = errors.New(MsgNoData)

// Service 为仪表盘状态，可被并发请求安全调用。
type Service struct {
	pipeline *ingest.Pipeline

	mu     sync.Mutex
	spec   filter.Spec
	sort   filter.Sort
	view   []model.Record
	viewOf string // 视图所基于的快照 ID
}

func New(p *ingest.Pipeline) *Service {
	return &Service{
		pipeline: p,
		spec:     filter.DefaultSpec(),
		sort:     filter.DefaultSort(),
	}
}

// Pipeline 返回底层导入流水线。
func (s *Service) Pipeline() *ingest.Pipeline { return s.pipeline }

func (s *Service) snapshot() *dataset.Snapshot { return s.pipeline.Holder().Current() }

// Loaded 报告是否有已加载的数据。
func (s *Service) Loaded() bool { return s.snapshot().Loaded }

// Ingest 从 r 导入并返回面向用户的结果提示（成功且有数据时为空串）。
// 导入失败时返回错误与 "Error processing file" 提示。
func (s *Service) Ingest(ctx context.Context, r io.Reader) (*dataset.Snapshot, string, error) {
	snap, err := s.pipeline.IngestReader(ctx, r)
	return s.afterIngest(snap, err)
}

// IngestURL 从远程地址导入，语义同 Ingest。
func (s *Service) IngestURL(ctx context.Context, url string) (*dataset.Snapshot, string, error) {
	snap, err := s.pipeline.IngestURL(ctx, url)
	return s.afterIngest(snap, err)
}

func (s *Service) afterIngest(snap *dataset.Snapshot, err error) (*dataset.Snapshot, string, error) {
	if err != nil {
		return nil, ProcessingError(err), err
	}
	if !snap.Loaded {
		return snap, MsgNoValidData, nil
	}
	return snap, "", nil
}

// Reload 从缓存恢复数据。
func (s *Service) Reload(ctx context.Context) bool { return s.pipeline.Reload(ctx) }

// Clear 清空数据与当前视图。
func (s *Service) Clear(ctx context.Context) {
	s.pipeline.Clear(ctx)
	s.mu.Lock()
	s.view, s.viewOf = nil, ""
	s.mu.Unlock()
}

// Filters 返回当前过滤条件与排序。
func (s *Service) Filters() (filter.Spec, filter.Sort) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spec, s.sort
}

// SetFilters 替换当前过滤条件。
func (s *Service) SetFilters(spec filter.Spec) {
	if len(spec.Types) == 0 {
		spec.Types = []string{filter.TypeAll}
	}
	s.mu.Lock()
	s.spec = spec
	s.mu.Unlock()
}

// SetSort 设置排序字段与方向。
func (s *Service) SetSort(field, dir string) {
	s.mu.Lock()
	s.sort = filter.NewSort(field, dir)
	s.mu.Unlock()
}

// ToggleSort 模拟点击列标题：同字段倒序切为正序，否则按新字段倒序。
func (s *Service) ToggleSort(field filter.SortField) filter.Sort {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = s.sort.Toggle(field)
	return s.sort
}

// ResetFilters 恢复默认过滤条件（不改变排序）。
func (s *Service) ResetFilters() {
	s.mu.Lock()
	s.spec = filter.DefaultSpec()
	s.mu.Unlock()
}

// ApplyFilters 对当前快照应用当前条件并记录为当前视图。未加载时视图为空。
func (s *Service) ApplyFilters() []model.Record {
	snap := s.snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(snap)
}

// Apply 在同一临界区内设置过滤条件、排序（srt 为 nil 时保持当前排序）并求出视图，
// 返回视图副本与实际使用的排序。
func (s *Service) Apply(spec filter.Spec, srt *filter.Sort) ([]model.Record, filter.Sort) {
	if len(spec.Types) == 0 {
		spec.Types = []string{filter.TypeAll}
	}
	snap := s.snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spec = spec
	if srt != nil {
		s.sort = *srt
	}
	return s.applyLocked(snap), s.sort
}

// applyLocked 须在持有 s.mu 时调用。
func (s *Service) applyLocked(snap *dataset.Snapshot) []model.Record {
	if !snap.Loaded {
		s.view, s.viewOf = []model.Record{}, snap.ID
	} else {
		s.view, s.viewOf = filter.Apply(snap.Records, s.spec, s.sort), snap.ID
	}
	return slices.Clone(s.view)
}

// CurrentView 返回最近一次求出的视图副本；数据集已被新的导入替换时返回完整集合。
func (s *Service) CurrentView() []model.Record {
	snap := s.snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewOf != snap.ID || s.view == nil {
		return slices.Clone(snap.Records)
	}
	return slices.Clone(s.view)
}

// ViewMessage 返回视图为空时应展示的提示；非空视图返回空串。
func (s *Service) ViewMessage(view []model.Record) string {
	switch {
	case !s.Loaded():
		return MsgNoData
	case len(view) == 0:
		return MsgNoMatches
	}
	return ""
}

// Stats 汇总当前完整集合（与过滤条件无关）。
func (s *Service) Stats() (*model.Stats, error) {
	st, ok := stats.Summarize(s.snapshot())
	if !ok {
		return nil, ErrNotLoaded
	}
	return st, nil
}

// Export 将当前视图写入 w。
func (s *Service) Export(w io.Writer) error {
	return export.Write(w, s.CurrentView())
}

// ExportFile 将当前视图写入文件。
func (s *Service) ExportFile(path string) error {
	return export.ToFile(path, s.CurrentView())
}
