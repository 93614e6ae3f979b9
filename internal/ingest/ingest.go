// 包 ingest 实现导入流水线：
// - ParseCSV：CSV 文本 → Row 列表（表格解析协作者）
// - Build：过滤字段过少的行并构造 Record，产出快照
// - Pipeline：安装快照、写入缓存、从缓存恢复与清空
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"linkedin-analytics/internal/dataset"
	"linkedin-analytics/internal/fetch"
	"linkedin-analytics/internal/logx"
	"linkedin-analytics/internal/model"
	"linkedin-analytics/internal/rules"
	"linkedin-analytics/internal/source"
	"linkedin-analytics/internal/store"
)

// MinPopulated 为有效行至少需要的非空字段数。
const MinPopulated = 6

// ErrNoSource 表示未提供导入来源（空地址或未配置下载客户端）。
var ErrNoSource = errors.New("no ingestion source")

// Build 丢弃非空字段少于 MinPopulated 的行，其余每行构造一条 Record（保持输入顺序）。
// 原始行全部保留在快照中，供缓存恢复时重新构造。
func Build(rows []model.Row) *dataset.Snapshot {
	records := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		if row.Populated() < MinPopulated {
			continue
		}
		records = append(records, model.NewRecord(row))
	}
	return dataset.NewSnapshot(rows, records)
}

// Pipeline 负责导入事件：整体替换集合并尽力写入缓存。
type Pipeline struct {
	holder *dataset.Holder
	cache  store.BlobStore
	client *fetch.Client
	preset rules.Preset
}

// Option 配置 Pipeline。
type Option func(*Pipeline)

// WithCache 设置缓存；未设置时跳过持久化与恢复。
func WithCache(c store.BlobStore) Option { return func(p *Pipeline) { p.cache = c } }

// WithRemote 设置远程导入所用的客户端与网页解析预设。
func WithRemote(cl *fetch.Client, preset rules.Preset) Option {
	return func(p *Pipeline) {
		p.client = cl
		p.preset = preset
	}
}

func NewPipeline(holder *dataset.Holder, opts ...Option) *Pipeline {
	p := &Pipeline{holder: holder}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Holder 返回流水线维护的数据集。
func (p *Pipeline) Holder() *dataset.Holder { return p.holder }

// IngestReader 解析 r 并安装新快照。解析失败时不安装任何内容。
// 全部行被过滤时安装一个未加载的空快照，这不是错误。
func (p *Pipeline) IngestReader(ctx context.Context, r io.Reader) (*dataset.Snapshot, error) {
	rows, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	snap := Build(rows)
	p.holder.Replace(snap)
	logx.Infof("导入完成：%d 行，有效条目 %d", len(rows), snap.Len())
	p.persist(ctx, rows)
	return snap, nil
}

// IngestFile 从本地文件导入。
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*dataset.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()
	return p.IngestReader(ctx, f)
}

// IngestURL 下载远程 CSV（或在网页中定位 CSV 链接后下载）并导入。
func (p *Pipeline) IngestURL(ctx context.Context, rawURL string) (*dataset.Snapshot, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || p.client == nil {
		return nil, ErrNoSource
	}
	body, final, err := source.Resolve(ctx, p.client, rawURL, p.preset)
	if err != nil {
		return nil, fmt.Errorf("fetch csv %s: %w", rawURL, err)
	}
	logx.Infof("已下载 CSV：%s（%d 字节）", final, len(body))
	return p.IngestReader(ctx, bytes.NewReader(body))
}

// Reload 从缓存恢复原始行并重新构造集合。任何读取或解码失败都只记录日志，集合保持未加载。
func (p *Pipeline) Reload(ctx context.Context) bool {
	if p.cache == nil {
		return false
	}
	b, err := p.cache.Get(ctx, store.KeyData)
	if errors.Is(err, store.ErrNotFound) {
		return false
	}
	if err != nil {
		logx.Warnf("读取缓存失败：%v", err)
		return false
	}
	var rows []model.Row
	if err := json.Unmarshal(b, &rows); err != nil {
		logx.Warnf("解码缓存失败：%v", err)
		return false
	}
	snap := Build(rows)
	p.holder.Replace(snap)
	logx.Infof("已从缓存恢复：有效条目 %d", snap.Len())
	return snap.Loaded
}

// Clear 清空集合并删除缓存中的原始行；删除失败只记录日志。
func (p *Pipeline) Clear(ctx context.Context) {
	p.holder.Clear()
	if p.cache == nil {
		return
	}
	if err := p.cache.Delete(ctx, store.KeyData); err != nil {
		logx.Warnf("删除缓存失败：%v", err)
	}
}

// persist 尽力写入缓存，失败只记录日志。
func (p *Pipeline) persist(ctx context.Context, rows []model.Row) {
	if p.cache == nil {
		return
	}
	if rows == nil {
		rows = []model.Row{}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		logx.Warnf("编码缓存失败：%v", err)
		return
	}
	if err := p.cache.Put(ctx, store.KeyData, b); err != nil {
		logx.Warnf("写入缓存失败：%v", err)
	}
}
