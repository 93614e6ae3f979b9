package dataset_test

import (
	"sync"
	"testing"

	"linkedin-analytics/internal/dataset"
	"linkedin-analytics/internal/model"
)

func TestHolder_ReplaceAndClear(t *testing.T) {
	h := dataset.NewHolder()
	if h.Loaded() || h.Current() == nil || h.Current().Len() != 0 {
		t.Fatalf("new holder must be empty and not loaded")
	}

	snap := dataset.NewSnapshot([]model.Row{{"urn": "a"}}, []model.Record{model.NewRecord(model.Row{"urn": "a"})})
	h.Replace(snap)
	if !h.Loaded() || h.Current() != snap || snap.ID == "" {
		t.Fatalf("replace: %+v", h.Current())
	}

	empty := dataset.NewSnapshot([]model.Row{{"a": "1"}}, nil)
	if empty.Loaded || empty.Records == nil {
		t.Fatalf("snapshot without records must not be loaded: %+v", empty)
	}

	h.Clear()
	if h.Loaded() || h.Current().ID != "" {
		t.Fatalf("clear: %+v", h.Current())
	}
	h.Replace(nil)
	if h.Current() == nil {
		t.Fatalf("replace(nil) must keep a non-nil snapshot")
	}
}

func TestHolder_ConcurrentReaders(t *testing.T) {
	h := dataset.NewHolder()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if i%2 == 0 {
					rs := []model.Record{model.NewRecord(model.Row{"urn": "x"}), model.NewRecord(model.Row{"urn": "y"})}
					h.Replace(dataset.NewSnapshot(nil, rs))
					continue
				}
				// 读者只会看到完整快照
				if s := h.Current(); s.Loaded && s.Len() != 2 {
					t.Errorf("partial snapshot: %d", s.Len())
				}
			}
		}(i)
	}
	wg.Wait()
}
