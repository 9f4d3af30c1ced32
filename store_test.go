package spacetraveling

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) (*BannerStore, *fakeClock) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "test_banners.db")

	s, err := NewBannerStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	clock := newFakeClock()
	s.now = clock.now
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func TestNewBannerStore(t *testing.T) {
	s, _ := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestSaveAndGetBanner(t *testing.T) {
	s, _ := setupTestStore(t)

	banner := Banner{
		Source: "https://images.prismic.io/spacetraveling/banner.png",
		Data:   []byte{0xff, 0xd8, 0xff, 0xe0},
		Width:  800,
		Height: 450,
	}
	if err := s.Save(banner); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Get(banner.Source)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Source != banner.Source {
		t.Errorf("Source = %q, want %q", got.Source, banner.Source)
	}
	if !bytes.Equal(got.Data, banner.Data) {
		t.Errorf("Data = %v, want %v", got.Data, banner.Data)
	}
	if got.Width != 800 || got.Height != 450 {
		t.Errorf("size = %dx%d, want 800x450", got.Width, got.Height)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestSaveBannerReplaces(t *testing.T) {
	s, _ := setupTestStore(t)
	src := "https://images.prismic.io/spacetraveling/a.png"

	if err := s.Save(Banner{Source: src, Data: []byte("old"), Width: 10, Height: 10}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(Banner{Source: src, Data: []byte("new"), Width: 20, Height: 20}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := s.Get(src)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got.Data) != "new" || got.Width != 20 {
		t.Errorf("got %q %d, want replaced banner", got.Data, got.Width)
	}
}

func TestGetBannerNotFound(t *testing.T) {
	s, _ := setupTestStore(t)

	_, err := s.Get("https://images.prismic.io/missing.png")
	if !errors.Is(err, ErrBannerNotFound) {
		t.Fatalf("err = %v, want ErrBannerNotFound", err)
	}
}

func TestPruneRemovesStaleBanners(t *testing.T) {
	s, clock := setupTestStore(t)

	stale := "https://images.prismic.io/stale.png"
	fresh := "https://images.prismic.io/fresh.png"
	if err := s.Save(Banner{Source: stale, Data: []byte("a")}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(Banner{Source: fresh, Data: []byte("b")}); err != nil {
		t.Fatal(err)
	}

	clock.advance(20 * 24 * time.Hour)
	if _, err := s.Get(fresh); err != nil {
		t.Fatal(err)
	}
	clock.advance(15 * 24 * time.Hour)

	n, err := s.Prune(bannerRetention)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d banners, want 1", n)
	}
	if _, err := s.Get(stale); !errors.Is(err, ErrBannerNotFound) {
		t.Errorf("stale banner should be gone, err = %v", err)
	}
	if _, err := s.Get(fresh); err != nil {
		t.Errorf("fresh banner should remain, err = %v", err)
	}
}
