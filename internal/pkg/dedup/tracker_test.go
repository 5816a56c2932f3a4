package dedup

import (
	pkgredis "Herald/internal/pkg/redis"
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func setupRedis(t *testing.T) {
	t.Helper()
	mr := miniredis.RunT(t)
	pkgredis.Rdb = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
}

func TestTryMarkOnce(t *testing.T) {
	setupRedis(t)
	tr := NewRedisTracker(time.Hour, 0)
	ctx := context.Background()
	key := Key("comment", "c1", "c1")

	marked, err := tr.TryMark(ctx, key)
	if err != nil || !marked {
		t.Fatalf("first mark = %v %v, want true nil", marked, err)
	}
	marked, err = tr.TryMark(ctx, key)
	if err != nil || marked {
		t.Fatalf("second mark = %v %v, want false nil", marked, err)
	}

	if err = tr.Unmark(ctx, key); err != nil {
		t.Fatal(err)
	}
	marked, err = tr.TryMark(ctx, key)
	if err != nil || !marked {
		t.Fatalf("mark after unmark = %v %v, want true nil", marked, err)
	}
}

// 静默期内首次观察到的实体只建立基线，不产生任何增量
func TestDiffMembersBaselineInGrace(t *testing.T) {
	setupRedis(t)
	tr := NewRedisTracker(time.Hour, 2*time.Minute)
	ctx := context.Background()
	key := MemberKey("volunteer", "v1")

	added, err := tr.DiffMembers(ctx, key, []string{"1", "2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 0 {
		t.Fatalf("in-grace baseline must be silent, got %v", added)
	}

	// 基线建立后，新成员正常走增量
	added, err = tr.DiffMembers(ctx, key, []string{"1", "2", "3"})
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 1 || added[0] != "3" {
		t.Fatalf("added = %v, want [3]", added)
	}
}

// 静默期过后首次观察按新基线处理，全部成员产生增量
func TestDiffMembersPostGrace(t *testing.T) {
	setupRedis(t)
	tr := NewRedisTracker(time.Hour, 2*time.Minute)
	tr.startedAt = time.Now().Add(-5 * time.Minute)
	ctx := context.Background()

	added, err := tr.DiffMembers(ctx, MemberKey("volunteer", "v1"), []string{"1", "2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 2 {
		t.Fatalf("post-grace delta = %v, want both members", added)
	}
}

// 同一快照的并发差分：每个新成员只能被一个调用方认领
func TestDiffMembersConcurrentClaim(t *testing.T) {
	setupRedis(t)
	tr := NewRedisTracker(time.Hour, 0)
	ctx := context.Background()
	snapshot := []string{"1", "2", "3"}

	for trial := 0; trial < 50; trial++ {
		key := MemberKey("volunteer", "v"+strconv.Itoa(trial))

		var wg sync.WaitGroup
		results := make([][]string, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				added, err := tr.DiffMembers(ctx, key, snapshot)
				if err != nil {
					t.Error(err)
					return
				}
				results[i] = added
			}(i)
		}
		wg.Wait()

		claimed := map[string]int{}
		for _, r := range results {
			for _, m := range r {
				claimed[m]++
			}
		}
		for _, m := range snapshot {
			if claimed[m] != 1 {
				t.Fatalf("trial %d: member %s claimed %d times, want exactly 1", trial, m, claimed[m])
			}
		}
	}
}

// 成员离开后被移出集合，重新加入再次产生增量
func TestDiffMembersRejoinResync(t *testing.T) {
	setupRedis(t)
	tr := NewRedisTracker(time.Hour, 0)
	ctx := context.Background()
	key := MemberKey("volunteer", "v1")

	if _, err := tr.DiffMembers(ctx, key, []string{"1", "2"}); err != nil {
		t.Fatal(err)
	}
	added, err := tr.DiffMembers(ctx, key, []string{"1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 0 {
		t.Fatalf("leave step added = %v, want none", added)
	}

	added, err = tr.DiffMembers(ctx, key, []string{"1", "2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 1 || added[0] != "2" {
		t.Fatalf("rejoin added = %v, want [2]", added)
	}
}

// 通知失败后移出成员，下一次快照重放重新认领
func TestRemoveMemberReclaim(t *testing.T) {
	setupRedis(t)
	tr := NewRedisTracker(time.Hour, 0)
	ctx := context.Background()
	key := MemberKey("volunteer", "v1")

	if _, err := tr.DiffMembers(ctx, key, []string{"1"}); err != nil {
		t.Fatal(err)
	}
	if err := tr.RemoveMember(ctx, key, "1"); err != nil {
		t.Fatal(err)
	}

	added, err := tr.DiffMembers(ctx, key, []string{"1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 1 || added[0] != "1" {
		t.Fatalf("reclaim added = %v, want [1]", added)
	}
}
