// 包 rules 管理 rules.yaml 中的 CSS 选择器预设，用于在网页中定位 CSV 下载链接。
// 文件中的预设叠加在内置预设（default/table）之上，同名时覆盖内置。
package rules

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPreset 为未指定或找不到预设时使用的名称。
const DefaultPreset = "default"

// Rules 为按名称组织的预设集合。
type Rules struct {
	Presets map[string]Preset `yaml:",inline"`
}

// Preset 为单个预设。
type Preset struct {
	CSVLink *CSVLink `yaml:"csv_link"`
}

// CSVLink 的 Item 选中每个候选容器；Link/Name 为取值表达式：
// "@attr" 取容器属性，"sel@attr" 取子元素属性，"." 取容器文字，"sel" 取子元素文字，
// 多个表达式以 "||" 连接，取第一个非空值。
type CSVLink struct {
	Item string `yaml:"item"`
	Link string `yaml:"link"`
	Name string `yaml:"name"`
}

func (p Preset) validate() error {
	if p.CSVLink == nil || strings.TrimSpace(p.CSVLink.Item) == "" {
		return fmt.Errorf("missing csv_link.item")
	}
	return nil
}

// Builtin 返回内置预设：default 扫描页面上全部超链接，table 扫描表格行。
func Builtin() *Rules {
	return &Rules{Presets: map[string]Preset{
		DefaultPreset: {CSVLink: &CSVLink{Item: "a[href]", Link: "@href", Name: "."}},
		"table":       {CSVLink: &CSVLink{Item: "table tr", Link: "a@href||@data-href", Name: "td||."}},
	}}
}

// Load 读取 rules.yaml 并与内置预设合并。
func Load(path string) (*Rules, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	var file map[string]Preset
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("unmarshal rules %s: %w", path, err)
	}
	r := Builtin()
	for name, p := range file {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("rules %s: preset %q: %w", path, name, err)
		}
		r.Presets[name] = p
	}
	return r, nil
}

// Names 返回排序后的预设名。
func (r *Rules) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.Presets))
	for k := range r.Presets {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// GetPreset 按名称（不区分大小写）查找预设；找不到时回退到 default，
// 再回退到按名称排序的第一个预设。集合为空时返回 false。
func (r *Rules) GetPreset(name string) (Preset, bool) {
	if r == nil || len(r.Presets) == 0 {
		return Preset{}, false
	}
	if name == "" {
		name = DefaultPreset
	}
	if p, ok := r.Presets[name]; ok {
		return p, true
	}
	names := r.Names()
	for _, k := range names {
		if strings.EqualFold(k, name) {
			return r.Presets[k], true
		}
	}
	for _, k := range names {
		if strings.EqualFold(k, DefaultPreset) {
			return r.Presets[k], true
		}
	}
	return r.Presets[names[0]], true
}
