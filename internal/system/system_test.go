package system

import (
	"image"
	"syscall"
	"testing"
)

func TestImagePoolReturnsRequestedBounds(t *testing.T) {
	rect := image.Rect(0, 0, 12, 7)
	img := GetImage(rect)
	if img.Rect != rect {
		t.Fatalf("Expected %v, got %v", rect, img.Rect)
	}
	PutImage(img)
	PutImage(nil)

	other := GetImage(image.Rect(0, 0, 3, 3))
	if other.Rect.Dx() != 3 {
		t.Errorf("Pool mixed up buffer sizes: %v", other.Rect)
	}
}

func TestFramePoolAnchorsAtOrigin(t *testing.T) {
	var p FramePool
	img := p.Get(image.Rect(5, 5, 9, 8).Size())
	if img.Rect != image.Rect(0, 0, 4, 3) {
		t.Errorf("Expected origin-anchored canvas, got %v", img.Rect)
	}
	if st := p.Stats(); st.Allocated != 1 || st.Reused != 0 {
		t.Errorf("Unexpected stats after first Get: %+v", st)
	}
}

func TestFramePoolRejectsSubImages(t *testing.T) {
	var p FramePool
	parent := image.NewRGBA(image.Rect(0, 0, 8, 8))
	p.Put(parent.SubImage(image.Rect(0, 0, 4, 4)).(*image.RGBA))
	p.Put(parent.SubImage(image.Rect(2, 2, 6, 6)).(*image.RGBA))

	img := p.Get(image.Pt(4, 4))
	if img.Stride != 16 {
		t.Errorf("Pool returned a shared buffer with stride %d", img.Stride)
	}
	if st := p.Stats(); st.Reused != 0 {
		t.Errorf("Sub-images should never be reused, stats %+v", st)
	}
}

func TestRaiseOpenFileLimitNeverLowers(t *testing.T) {
	var before syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &before); err != nil {
		t.Skipf("rlimit unavailable: %v", err)
	}

	n, err := RaiseOpenFileLimit(1)
	if err != nil {
		t.Fatalf("RaiseOpenFileLimit failed: %v", err)
	}
	if n != before.Cur {
		t.Errorf("Soft limit changed from %d to %d for a lower target", before.Cur, n)
	}

	n, err = RaiseOpenFileLimit(before.Cur + 1)
	if err != nil {
		t.Logf("raise refused: %v", err)
		return
	}
	if n < before.Cur || n > before.Max {
		t.Errorf("Soft limit %d outside [%d, %d]", n, before.Cur, before.Max)
	}
}

func TestDefaultWorkers(t *testing.T) {
	if n := DefaultWorkers(); n < 1 {
		t.Errorf("Expected at least one worker, got %d", n)
	}
}
