package output

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func sample() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(1, 1, color.NRGBA{R: 51, G: 65, B: 16, A: 255})
	return img
}

func TestFormatFor(t *testing.T) {
	cases := map[string]Format{
		"image.png":  FormatPNG,
		"IMAGE.PNG":  FormatPNG,
		"out":        FormatPNG,
		"planet.bmp": FormatBMP,
		"a/b.tif":    FormatTIFF,
		"a/b.tiff":   FormatTIFF,
	}
	for path, want := range cases {
		got, err := FormatFor(path)
		if err != nil || got != want {
			t.Fatalf("FormatFor(%q) = %q,%v want %q", path, got, err, want)
		}
	}
	if _, err := FormatFor("image.gif"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestWriterWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	if err := (Writer{Path: path}).Write(sample()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := color.NRGBAModel.Convert(img.At(1, 1)).(color.NRGBA); got != (color.NRGBA{R: 51, G: 65, B: 16, A: 255}) {
		t.Fatalf("unexpected pixel: %+v", got)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestWriterWritesBMP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bmp")
	if err := (Writer{Path: path}).Write(sample()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := bmp.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Fatalf("unexpected bounds: %v", img.Bounds())
	}
}

func TestWriterFailureKeepsPreviousFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.png")
	if err := os.WriteFile(path, []byte("previous"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	err := (Writer{Path: path}).Write(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "previous" {
		t.Fatalf("previous output was modified: %q", data)
	}
}

func TestWriterMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "image.png")
	if err := (Writer{Path: path}).Write(sample()); !errors.Is(err, ErrWrite) {
		t.Fatalf("expected ErrWrite, got %v", err)
	}
}
