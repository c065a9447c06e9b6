package actions

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDiskCacheRoundTrip(t *testing.T) {
	c, err := OpenDiskCache("wflint", t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	meta := &Metadata{
		Name:    "Checkout",
		Inputs:  []Input{{Name: "token", Required: true}},
		Outputs: []string{"ref"},
		Tags:    []string{"v4", "v3"},
	}
	if err := c.Put("actions/checkout@v4", meta); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, found, err := c.Get("actions/checkout@v4")
	if err != nil || !found {
		t.Fatalf("Get = %v, %v", found, err)
	}
	if diff := cmp.Diff(meta, got); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
	if _, found, _ := c.Get("actions/checkout@v3"); found { //nolint:errcheck
		t.Fatal("unexpected hit for another key")
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".mp" {
			t.Fatalf("leftover temp file %s", e.Name())
		}
	}
}

func TestDiskCacheNegativeAndExpiry(t *testing.T) {
	c, err := OpenDiskCache("wflint", t.TempDir(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	if err := c.Put("ghost/action@v1", nil); err != nil {
		t.Fatal(err)
	}
	meta, found, err := c.Get("ghost/action@v1")
	if err != nil || !found || meta != nil {
		t.Fatalf("negative entry = %v, %v, %v", meta, found, err)
	}

	now = now.Add(2 * time.Minute)
	if _, found, _ := c.Get("ghost/action@v1"); found { //nolint:errcheck
		t.Fatal("stale entry served")
	}
}

func TestDiskCacheDropAll(t *testing.T) {
	c, err := OpenDiskCache("wflint", t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put("a/b@v1", &Metadata{Name: "b"}); err != nil {
		t.Fatal(err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := c.Get("a/b@v1"); found { //nolint:errcheck
		t.Fatal("entry survived DropAll")
	}
	if err := c.Put("a/b@v1", &Metadata{Name: "b"}); err != nil {
		t.Fatalf("Put after DropAll: %v", err)
	}
}

func TestNilDiskCache(t *testing.T) {
	var c *DiskCache
	if err := c.Put("k", nil); err != nil {
		t.Fatal(err)
	}
	if _, found, err := c.Get("k"); found || err != nil {
		t.Fatalf("nil cache Get = %v, %v", found, err)
	}
}
