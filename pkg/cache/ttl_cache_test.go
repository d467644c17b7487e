package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	c.Set("a", 1)
	got, ok := c.Get("a")
	if !ok || got != 1 {
		t.Fatalf("Get(a) = %d,%t, want 1,true", got, ok)
	}

	if _, ok := c.Get("yok"); ok {
		t.Fatal("bilinmeyen anahtar bulunmamalı")
	}
}

func TestExpiry(t *testing.T) {
	c := New[string, string](20*time.Millisecond, time.Hour)
	defer c.Close()

	c.Set("a", "x")
	time.Sleep(40 * time.Millisecond)

	// Temizlik döngüsü daha çalışmadı ama Get süresi geçeni döndürmemeli.
	if _, ok := c.Get("a"); ok {
		t.Fatal("süresi dolan kayıt dönmemeli")
	}
}

func TestDelete(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("silinen kayıt dönmemeli")
	}
}

func TestOverwrite(t *testing.T) {
	c := New[string, int](time.Minute, time.Minute)
	defer c.Close()

	c.Set("a", 1)
	c.Set("a", 2)
	if got, _ := c.Get("a"); got != 2 {
		t.Fatalf("Get(a) = %d, want 2", got)
	}
}
