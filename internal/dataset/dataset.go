// 包 dataset 持有进程级的条目集合：
// - Snapshot：一次导入事件产出的只读快照（原始行 + 归一化条目）
// - Holder：以原子指针整体替换快照，读者不会看到半替换状态
package dataset

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"linkedin-analytics/internal/model"
)

// Snapshot 为一次导入的结果，构造后不再修改。
type Snapshot struct {
	ID       string
	Raw      []model.Row
	Records  []model.Record
	Loaded   bool
	LoadedAt time.Time
}

// NewSnapshot 以原始行与条目构造快照；至少有一条条目时才视为已加载。
func NewSnapshot(raw []model.Row, records []model.Record) *Snapshot {
	if records == nil {
		records = []model.Record{}
	}
	return &Snapshot{
		ID:       uuid.NewString(),
		Raw:      raw,
		Records:  records,
		Loaded:   len(records) > 0,
		LoadedAt: time.Now(),
	}
}

// empty 为清空后的快照。
var empty = &Snapshot{Records: []model.Record{}}

// Len 返回条目数。
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Holder 持有当前快照。
type Holder struct {
	cur atomic.Pointer[Snapshot]
}

func NewHolder() *Holder {
	h := &Holder{}
	h.cur.Store(empty)
	return h
}

// Current 返回当前快照（从不为 nil）。
func (h *Holder) Current() *Snapshot {
	if s := h.cur.Load(); s != nil {
		return s
	}
	return empty
}

// Replace 整体替换快照。
func (h *Holder) Replace(s *Snapshot) {
	if s == nil {
		s = empty
	}
	h.cur.Store(s)
}

// Clear 清空集合。
func (h *Holder) Clear() { h.cur.Store(empty) }

// Loaded 报告当前是否有已加载的数据。
func (h *Holder) Loaded() bool { return h.Current().Loaded }
