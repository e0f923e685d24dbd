package editor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

// MaxInputDimension bounds the image sent upstream; larger inputs are
// downscaled to keep request payloads within the model's limits.
const MaxInputDimension = 2048

// DownscaleDataURL decodes a base64 image data URL and, when either side
// exceeds maxDim, scales it down to fit. Inputs already within bounds are
// returned unchanged. Non-data URLs pass through untouched.
func DownscaleDataURL(dataURL string, maxDim int) (string, error) {
	if !strings.HasPrefix(dataURL, "data:image/") {
		return dataURL, nil
	}
	idx := strings.Index(dataURL, ";base64,")
	if idx < 0 {
		return dataURL, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(dataURL[idx+len(";base64,"):])
	if err != nil {
		return "", fmt.Errorf("decode image data url: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(decoded))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= maxDim && bounds.Dy() <= maxDim {
		return dataURL, nil
	}

	resized := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.PNG); err != nil {
		return "", fmt.Errorf("encode resized image: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
