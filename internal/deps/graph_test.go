//nolint:testpackage // Tests require internal access for thorough testing
package deps

import (
	"context"
	"sync"
	"testing"

	tberrors "github.com/tgienger/teamboard/internal/errors"
	"github.com/tgienger/teamboard/internal/testutil"
)

func TestAddDependencyGuards(t *testing.T) {
	database := testutil.OpenDB(t)
	g := NewGraph(database, testutil.Logger())
	ctx := context.Background()

	a := testutil.MakeTask(t, database, "u1", "A")
	b := testutil.MakeTask(t, database, "u1", "B")

	tests := []struct {
		name     string
		task     int64
		prereq   int64
		wantKind tberrors.Kind
		wantErr  bool
	}{
		{"self dependency", a.ID, a.ID, tberrors.KindValidation, true},
		{"missing dependent", 999, b.ID, tberrors.KindNotFound, true},
		{"missing prerequisite", a.ID, 999, tberrors.KindNotFound, true},
		{"new edge", a.ID, b.ID, 0, false},
		{"same edge again is idempotent", a.ID, b.ID, 0, false},
		{"direct reverse edge", b.ID, a.ID, tberrors.KindConflict, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.AddDependency(ctx, tt.task, tt.prereq)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("AddDependency(%d, %d) = %v, want nil", tt.task, tt.prereq, err)
				}
				return
			}
			if got := tberrors.KindOf(err); got != tt.wantKind {
				t.Errorf("AddDependency(%d, %d) kind = %v, want %v (err: %v)", tt.task, tt.prereq, got, tt.wantKind, err)
			}
		})
	}

	deps, err := g.GetDependencies(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetDependencies: %v", err)
	}
	if len(deps) != 1 {
		t.Fatalf("GetDependencies length = %d, want 1", len(deps))
	}
	if deps[0].DependsOn == nil || deps[0].DependsOn.Title != "B" {
		t.Errorf("prerequisite task not attached: %+v", deps[0].DependsOn)
	}
}

func TestTransitiveCycleIsAccepted(t *testing.T) {
	database := testutil.OpenDB(t)
	g := NewGraph(database, testutil.Logger())
	ctx := context.Background()

	a := testutil.MakeTask(t, database, "u1", "A")
	b := testutil.MakeTask(t, database, "u1", "B")
	c := testutil.MakeTask(t, database, "u1", "C")

	// only direct reverse edges are rejected; A->B->C->A is allowed
	for _, edge := range [][2]int64{{a.ID, b.ID}, {b.ID, c.ID}, {c.ID, a.ID}} {
		if err := g.AddDependency(ctx, edge[0], edge[1]); err != nil {
			t.Fatalf("AddDependency(%d, %d) = %v, want nil", edge[0], edge[1], err)
		}
	}
}

func TestIsBlocked(t *testing.T) {
	database := testutil.OpenDB(t)
	g := NewGraph(database, testutil.Logger())
	ctx := context.Background()

	a := testutil.MakeTask(t, database, "u1", "A")
	b := testutil.MakeTask(t, database, "u1", "B")
	c := testutil.MakeTask(t, database, "u1", "C")
	d := testutil.MakeTask(t, database, "u1", "D")

	_ = g.AddDependency(ctx, b.ID, a.ID) // b waits on open a
	_ = g.AddDependency(ctx, d.ID, c.ID) // d waits on c, completed below
	testutil.Complete(t, database, c.ID)

	tests := []struct {
		name    string
		id      int64
		blocked bool
	}{
		{"no dependencies", a.ID, false},
		{"open prerequisite", b.ID, true},
		{"completed task without deps", c.ID, false},
		{"completed prerequisite", d.ID, false},
		{"unknown task", 999, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.IsBlocked(ctx, tt.id)
			if err != nil {
				t.Fatalf("IsBlocked: %v", err)
			}
			if got != tt.blocked {
				t.Errorf("IsBlocked(%d) = %v, want %v", tt.id, got, tt.blocked)
			}
		})
	}
}

func TestGetBlockersOnlyIncomplete(t *testing.T) {
	database := testutil.OpenDB(t)
	g := NewGraph(database, testutil.Logger())
	ctx := context.Background()

	target := testutil.MakeTask(t, database, "u1", "target")
	open1 := testutil.MakeTask(t, database, "u1", "open1")
	open2 := testutil.MakeTask(t, database, "u1", "open2")
	done := testutil.MakeTask(t, database, "u1", "done")
	testutil.Complete(t, database, done.ID)

	for _, p := range []int64{open1.ID, open2.ID, done.ID} {
		if err := g.AddDependency(ctx, target.ID, p); err != nil {
			t.Fatalf("AddDependency: %v", err)
		}
	}

	blockers, err := g.GetBlockers(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetBlockers: %v", err)
	}
	if len(blockers) != 2 {
		t.Fatalf("GetBlockers length = %d, want 2", len(blockers))
	}

	err = g.Blocked(ctx, target.ID)
	if !tberrors.Is(err, tberrors.KindBlocked) {
		t.Errorf("Blocked = %v, want BlockedError", err)
	}
}

func TestAddThenRemoveRestoresBlockedState(t *testing.T) {
	database := testutil.OpenDB(t)
	g := NewGraph(database, testutil.Logger())
	ctx := context.Background()

	a := testutil.MakeTask(t, database, "u1", "A")
	b := testutil.MakeTask(t, database, "u1", "B")

	before, _ := g.IsBlocked(ctx, a.ID)
	if err := g.AddDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if during, _ := g.IsBlocked(ctx, a.ID); !during {
		t.Fatal("task should be blocked while prerequisite is open")
	}
	if err := g.RemoveDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("RemoveDependency: %v", err)
	}
	// removing again is a no-op
	if err := g.RemoveDependency(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("RemoveDependency (second): %v", err)
	}
	if after, _ := g.IsBlocked(ctx, a.ID); after != before {
		t.Errorf("IsBlocked after remove = %v, want %v", after, before)
	}
}

func TestConcurrentReverseEdgesOnlyOneWins(t *testing.T) {
	database := testutil.OpenDB(t)
	g := NewGraph(database, testutil.Logger())
	ctx := context.Background()

	a := testutil.MakeTask(t, database, "u1", "A")
	b := testutil.MakeTask(t, database, "u1", "B")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, edge := range [][2]int64{{a.ID, b.ID}, {b.ID, a.ID}} {
		wg.Add(1)
		go func(i int, from, to int64) {
			defer wg.Done()
			errs[i] = g.AddDependency(ctx, from, to)
		}(i, edge[0], edge[1])
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case tberrors.Is(err, tberrors.KindConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("succeeded = %d, want exactly 1", succeeded)
	}
}

func TestBlockedSet(t *testing.T) {
	database := testutil.OpenDB(t)
	g := NewGraph(database, testutil.Logger())
	ctx := context.Background()

	a := testutil.MakeTask(t, database, "u1", "A")
	b := testutil.MakeTask(t, database, "u1", "B")
	c := testutil.MakeTask(t, database, "u1", "C")
	_ = g.AddDependency(ctx, a.ID, b.ID)

	set, err := g.BlockedSet(ctx, []int64{a.ID, b.ID, c.ID})
	if err != nil {
		t.Fatalf("BlockedSet: %v", err)
	}
	if !set[a.ID] || set[b.ID] || set[c.ID] {
		t.Errorf("BlockedSet = %v, want only %d", set, a.ID)
	}
}
