package rules_test

import (
	"os"
	"path/filepath"
	"testing"

	"linkedin-analytics/internal/rules"
)

func TestRules_GetPreset(t *testing.T) {
	r := &rules.Rules{Presets: map[string]rules.Preset{
		"Default": {CSVLink: &rules.CSVLink{Item: ".i"}},
		"clarity": {CSVLink: &rules.CSVLink{Item: ".c"}},
	}}
	p, ok := r.GetPreset("")
	if !ok || p.CSVLink == nil || p.CSVLink.Item == "" {
		t.Fatalf("default fallback failed")
	}
	p2, ok := r.GetPreset("DEFAULT")
	if !ok || p2.CSVLink.Item != ".i" {
		t.Fatalf("case-insensitive lookup failed: %+v", p2)
	}
	var nilRules *rules.Rules
	if _, ok := nilRules.GetPreset("x"); ok {
		t.Fatalf("nil rules must not resolve")
	}
}

func TestRules_LoadAndBuiltin(t *testing.T) {
	f := filepath.Join(t.TempDir(), "rules.yaml")
	_ = os.WriteFile(f, []byte("exports:\n  csv_link:\n    item: \"ul.files li\"\n    link: \"a@href\"\n    name: \".\"\n"), 0644)
	r, err := rules.Load(f)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p, ok := r.GetPreset("exports")
	if !ok || p.CSVLink.Item != "ul.files li" {
		t.Fatalf("preset: %+v", p)
	}

	_ = os.WriteFile(f, []byte("broken:\n  csv_link: {}\n"), 0644)
	if _, err := rules.Load(f); err == nil {
		t.Fatalf("expect error for preset without item")
	}

	_ = os.WriteFile(f, []byte("default:\n  csv_link:\n    item: \"a.download\"\n"), 0644)
	r, err = rules.Load(f)
	if err != nil {
		t.Fatalf("load override: %v", err)
	}
	if p, _ := r.GetPreset(""); p.CSVLink.Item != "a.download" {
		t.Fatalf("file preset must override builtin default: %+v", p.CSVLink)
	}
	if got := r.Names(); len(got) != 2 || got[0] != "default" || got[1] != "table" {
		t.Fatalf("builtin presets must survive a load: %v", got)
	}

	b := rules.Builtin()
	if p, ok := b.GetPreset("table"); !ok || p.CSVLink.Item != "table tr" {
		t.Fatalf("builtin table: %+v", p)
	}
	if p, ok := b.GetPreset("unknown"); !ok || p.CSVLink.Item != "a[href]" {
		t.Fatalf("builtin fallback: %+v", p)
	}
}
