package editor

import (
	"encoding/json"
	"regexp"
)

// The model returns images in whatever spot the routed provider picked:
// message.images, image_url content parts, or inline data/markdown URLs in
// the text content. ExtractImages mines all of them.

type messageImage struct {
	URL      string `json:"url"`
	B64JSON  string `json:"b64_json"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url"`
}

type contentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url"`
	Image *messageImage `json:"image"`
}

type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
			Images  []messageImage  `json:"images"`
		} `json:"message"`
	} `json:"choices"`
}

var (
	dataURLPattern     = regexp.MustCompile(`data:image/[a-zA-Z.+-]+;base64,[A-Za-z0-9+/=]+`)
	markdownURLPattern = regexp.MustCompile(`\((https?://[^)]+)\)`)
	directURLPattern   = regexp.MustCompile(`https?://\S+\.(?:png|jpg|jpeg|webp|gif)`)
)

// ExtractImages returns every image URL found in a chat completion payload,
// in order of discovery, without duplicates.
func ExtractImages(raw []byte) []string {
	var completion chatCompletion
	if err := json.Unmarshal(raw, &completion); err != nil || len(completion.Choices) == 0 {
		return nil
	}
	message := completion.Choices[0].Message

	seen := make(map[string]struct{})
	var urls []string
	add := func(url string) {
		if url == "" {
			return
		}
		if _, ok := seen[url]; ok {
			return
		}
		seen[url] = struct{}{}
		urls = append(urls, url)
	}

	// Content can be a plain string or an array of typed parts.
	var text string
	var parts []contentPart
	if err := json.Unmarshal(message.Content, &parts); err == nil {
		for _, part := range parts {
			switch part.Type {
			case "image_url":
				if part.ImageURL != nil {
					add(part.ImageURL.URL)
				}
			case "image":
				if part.ImageURL != nil {
					add(part.ImageURL.URL)
				}
				add(normalizeImage(part.Image))
			}
		}
	} else {
		_ = json.Unmarshal(message.Content, &text)
	}

	for i := range message.Images {
		add(normalizeImage(&message.Images[i]))
	}

	if len(urls) == 0 && text != "" {
		for _, url := range dataURLPattern.FindAllString(text, -1) {
			add(url)
		}
		for _, match := range markdownURLPattern.FindAllStringSubmatch(text, -1) {
			add(match[1])
		}
		for _, url := range directURLPattern.FindAllString(text, -1) {
			add(url)
		}
	}

	return urls
}

func normalizeImage(image *messageImage) string {
	if image == nil {
		return ""
	}
	if image.URL != "" {
		return image.URL
	}
	if image.ImageURL != nil && image.ImageURL.URL != "" {
		return image.ImageURL.URL
	}
	if image.B64JSON != "" {
		return "data:image/png;base64," + image.B64JSON
	}
	return ""
}
