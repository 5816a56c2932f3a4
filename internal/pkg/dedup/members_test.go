package dedup

import (
	"sort"
	"testing"
)

func TestDiffMembers(t *testing.T) {
	tests := []struct {
		name        string
		processed   []string
		current     []string
		wantAdded   []string
		wantRemoved []string
	}{
		{
			name:      "首次快照全部新增",
			processed: nil,
			current:   []string{"1", "2"},
			wantAdded: []string{"1", "2"},
		},
		{
			name:      "无变化",
			processed: []string{"1", "2"},
			current:   []string{"1", "2"},
		},
		{
			name:      "新增一名成员",
			processed: []string{"1", "2"},
			current:   []string{"1", "2", "3"},
			wantAdded: []string{"3"},
		},
		{
			name:        "离开的成员被剔除",
			processed:   []string{"1", "2", "3"},
			current:     []string{"1"},
			wantRemoved: []string{"2", "3"},
		},
		{
			name:        "同时有加入和离开",
			processed:   []string{"1", "2"},
			current:     []string{"2", "3"},
			wantAdded:   []string{"3"},
			wantRemoved: []string{"1"},
		},
		{
			name:        "快照清空",
			processed:   []string{"1"},
			current:     nil,
			wantRemoved: []string{"1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added, removed := diffMembers(tt.processed, tt.current)
			if !equalSets(added, tt.wantAdded) {
				t.Errorf("added = %v, want %v", added, tt.wantAdded)
			}
			if !equalSets(removed, tt.wantRemoved) {
				t.Errorf("removed = %v, want %v", removed, tt.wantRemoved)
			}
		})
	}
}

// 离开再加入的成员应重新出现在增量里
func TestDiffMembersRejoin(t *testing.T) {
	added, removed := diffMembers([]string{"1", "2"}, []string{"1"})
	if len(added) != 0 || !equalSets(removed, []string{"2"}) {
		t.Fatalf("leave step: added=%v removed=%v", added, removed)
	}

	// 集合同步剔除 2 后再次加入
	added, removed = diffMembers([]string{"1"}, []string{"1", "2"})
	if !equalSets(added, []string{"2"}) || len(removed) != 0 {
		t.Fatalf("rejoin step: added=%v removed=%v", added, removed)
	}
}

func equalSets(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	g := append([]string(nil), got...)
	w := append([]string(nil), want...)
	sort.Strings(g)
	sort.Strings(w)
	for i := range g {
		if g[i] != w[i] {
			return false
		}
	}
	return true
}
