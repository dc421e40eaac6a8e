package cmsdb

import (
	"testing"
	"time"

	"github.com/calvinalkan/sitecms/internal/testutil"
)

func Test_Cache_Get_Hits_Until_TTL_Elapses(t *testing.T) {
	t.Parallel()

	clock := testutil.NewClock()
	ch := newCache(2*time.Second, clock.Now)

	ch.fill(Pages, ch.begin(Pages), []byte("[]"))

	clock.Advance(1999 * time.Millisecond)

	if _, ok := ch.get(Pages); !ok {
		t.Fatal("get before TTL: want hit")
	}

	clock.Advance(time.Millisecond)

	if _, ok := ch.get(Pages); ok {
		t.Fatal("get at TTL: want miss")
	}
}

func Test_Cache_Fill_Is_Dropped_When_Put_Happened_Since_Begin(t *testing.T) {
	t.Parallel()

	clock := testutil.NewClock()
	ch := newCache(time.Minute, clock.Now)

	gen := ch.begin(Users)
	ch.put(Users, []byte("new"))
	ch.fill(Users, gen, []byte("stale"))

	got, ok := ch.get(Users)
	if !ok || string(got) != "new" {
		t.Fatalf("get=%q,%v, want %q,true", got, ok, "new")
	}
}

func Test_Cache_Get_Misses_When_Invalidated_Or_Disabled(t *testing.T) {
	t.Parallel()

	clock := testutil.NewClock()

	ch := newCache(time.Minute, clock.Now)
	ch.put(Jobs, []byte("[]"))
	ch.invalidate(Jobs)

	if _, ok := ch.get(Jobs); ok {
		t.Fatal("get after invalidate: want miss")
	}

	disabled := newCache(-1, clock.Now)
	disabled.put(Jobs, []byte("[]"))

	if _, ok := disabled.get(Jobs); ok {
		t.Fatal("get with TTL<0: want miss")
	}
}
