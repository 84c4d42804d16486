package cache

import (
	"context"
	"reflect"
	"testing"
)

func TestCache_SetGetInProcess(t *testing.T) {
	c := New()
	ctx := context.Background()
	key := Key("SELECT 1", "")

	if _, _, ok := c.Get(ctx, key); ok {
		t.Fatal("expected a miss before Set")
	}

	c.Set(ctx, key, []string{"n"}, [][]string{{"1"}})
	cols, rows, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("expected a hit after Set")
	}
	if !reflect.DeepEqual(cols, []string{"n"}) || !reflect.DeepEqual(rows, [][]string{{"1"}}) {
		t.Fatalf("cols/rows = %v/%v", cols, rows)
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := New()
	ctx := context.Background()
	key := Key("SELECT 1", "")
	c.Set(ctx, key, []string{"n"}, [][]string{{"1"}})
	c.Invalidate(ctx, key)
	if _, _, ok := c.Get(ctx, key); ok {
		t.Fatal("expected a miss after Invalidate")
	}
}

func TestKey_DependsOnFingerprint(t *testing.T) {
	a := Key("SELECT * FROM t WHERE id = x", "x=1")
	b := Key("SELECT * FROM t WHERE id = x", "x=2")
	if a == b {
		t.Fatal("different outer-row fingerprints should produce different keys")
	}
}

func TestKey_Stable(t *testing.T) {
	a := Key("SELECT 1", "fp")
	b := Key("SELECT 1", "fp")
	if a != b {
		t.Fatal("same inputs should produce the same key")
	}
}
