package editor

import (
	"bytes"
	"encoding/base64"
	"image"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func pngDataURL(t *testing.T, width, height int) string {
	t.Helper()
	img := imaging.New(width, height, image.White.C)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDownscaleDataURLWithinBounds(t *testing.T) {
	in := pngDataURL(t, 100, 60)
	out, err := DownscaleDataURL(in, 2048)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != in {
		t.Fatal("small image should pass through unchanged")
	}
}

func TestDownscaleDataURLShrinksOversized(t *testing.T) {
	in := pngDataURL(t, 300, 100)
	out, err := DownscaleDataURL(in, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == in {
		t.Fatal("oversized image was not resized")
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, "data:image/png;base64,"))
	if err != nil {
		t.Fatalf("output is not a valid data url: %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(decoded))
	if err != nil {
		t.Fatalf("decode resized image: %v", err)
	}
	if img.Bounds().Dx() != 150 || img.Bounds().Dy() != 50 {
		t.Fatalf("unexpected dimensions %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestDownscaleDataURLPassesThroughNonDataURLs(t *testing.T) {
	out, err := DownscaleDataURL("https://cdn.example/input.png", 2048)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "https://cdn.example/input.png" {
		t.Fatalf("non-data url modified: %q", out)
	}
}

func TestDownscaleDataURLRejectsBrokenBase64(t *testing.T) {
	if _, err := DownscaleDataURL("data:image/png;base64,!!!", 2048); err == nil {
		t.Fatal("expected error for broken base64")
	}
}
