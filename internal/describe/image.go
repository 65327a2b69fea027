package describe

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"

	// decoders for formats outside the externally accepted set
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const jpegQuality = 85

// supportedImageTypes is the set of encodings the vision APIs accept
// without conversion.
var supportedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// ensureSupportedImage re-encodes the image as JPEG when its declared MIME
// type is not externally accepted. A decode failure is fatal for the
// request; there is no fallback.
func ensureSupportedImage(imageBytes []byte, mimeType string) ([]byte, string, error) {
	if supportedImageTypes[mimeType] {
		return imageBytes, mimeType, nil
	}

	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("cannot convert %s image: %w", mimeType, err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("cannot convert %s image: %w", mimeType, err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// imageDataURL encodes image bytes as a data URL for chat image parts.
func imageDataURL(imageBytes []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageBytes))
}
