package client

import (
	"testing"
	"time"
)

func TestInputThrottle(t *testing.T) {
	var th InputThrottle
	t0 := time.Unix(100, 0)

	if !th.Allow(0, false, t0) {
		t.Fatal("first input always goes out")
	}
	if th.Allow(0.05, false, t0.Add(10*time.Millisecond)) {
		t.Error("small turn inside the interval should wait")
	}
	if !th.Allow(0.2, false, t0.Add(20*time.Millisecond)) {
		t.Error("large turn should go out at once")
	}
	if !th.Allow(0.2, true, t0.Add(25*time.Millisecond)) {
		t.Error("boost toggle should go out at once")
	}
	if th.Allow(0.2, true, t0.Add(70*time.Millisecond)) {
		t.Error("unchanged input inside the interval should wait")
	}
	if !th.Allow(0.2, true, t0.Add(80*time.Millisecond)) {
		t.Error("input should refresh after the interval")
	}
}
