package editor

import (
	"testing"
)

func TestExtractImagesFromImageParts(t *testing.T) {
	raw := []byte(`{
		"choices": [{"message": {"content": [
			{"type": "text", "text": "Here is your edit"},
			{"type": "image_url", "image_url": {"url": "https://cdn.example/out.png"}}
		]}}]
	}`)

	urls := ExtractImages(raw)
	if len(urls) != 1 || urls[0] != "https://cdn.example/out.png" {
		t.Fatalf("unexpected urls: %v", urls)
	}
}

func TestExtractImagesFromMessageImages(t *testing.T) {
	raw := []byte(`{
		"choices": [{"message": {
			"content": "done",
			"images": [
				{"image_url": {"url": "data:image/png;base64,AAAA"}},
				{"b64_json": "BBBB"}
			]
		}}]
	}`)

	urls := ExtractImages(raw)
	if len(urls) != 2 {
		t.Fatalf("expected 2 images, got %v", urls)
	}
	if urls[0] != "data:image/png;base64,AAAA" {
		t.Errorf("unexpected first url %q", urls[0])
	}
	if urls[1] != "data:image/png;base64,BBBB" {
		t.Errorf("b64_json not normalized to data url: %q", urls[1])
	}
}

func TestExtractImagesMinesTextOnlyAsFallback(t *testing.T) {
	raw := []byte(`{
		"choices": [{"message": {"content": "Result: ![edit](https://cdn.example/a.png) and data:image/png;base64,Zm9v"}}]
	}`)

	urls := ExtractImages(raw)
	if len(urls) != 2 {
		t.Fatalf("expected 2 mined urls, got %v", urls)
	}

	// Text mining must not run when structured images exist.
	raw = []byte(`{
		"choices": [{"message": {
			"content": "see https://cdn.example/other.png",
			"images": [{"url": "https://cdn.example/primary.png"}]
		}}]
	}`)
	urls = ExtractImages(raw)
	if len(urls) != 1 || urls[0] != "https://cdn.example/primary.png" {
		t.Fatalf("text mined despite structured image: %v", urls)
	}
}

func TestExtractImagesDeduplicates(t *testing.T) {
	raw := []byte(`{
		"choices": [{"message": {
			"content": [
				{"type": "image_url", "image_url": {"url": "https://cdn.example/x.png"}},
				{"type": "image_url", "image_url": {"url": "https://cdn.example/x.png"}}
			]
		}}]
	}`)

	urls := ExtractImages(raw)
	if len(urls) != 1 {
		t.Fatalf("duplicates not removed: %v", urls)
	}
}

func TestExtractImagesMalformedPayload(t *testing.T) {
	if urls := ExtractImages([]byte(`{not json`)); urls != nil {
		t.Fatalf("expected nil for malformed payload, got %v", urls)
	}
	if urls := ExtractImages([]byte(`{"choices": []}`)); urls != nil {
		t.Fatalf("expected nil for empty choices, got %v", urls)
	}
}
