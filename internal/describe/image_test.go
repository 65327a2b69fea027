package describe

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestEnsureSupportedImage_AcceptedTypesPassThrough(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47} // not decoded, returned as-is
	for _, mimeType := range []string{"image/png", "image/jpeg", "image/gif", "image/webp"} {
		out, outType, err := ensureSupportedImage(payload, mimeType)
		require.NoError(t, err)
		assert.Equal(t, payload, out)
		assert.Equal(t, mimeType, outType)
	}
}

func TestEnsureSupportedImage_ConvertsBMPToJPEG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))

	out, outType, err := ensureSupportedImage(buf.Bytes(), "image/bmp")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", outType)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), decoded.Bounds())
}

func TestEnsureSupportedImage_UndecodableImageIsFatal(t *testing.T) {
	_, _, err := ensureSupportedImage([]byte("definitely not an image"), "image/heic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot convert image/heic image")
}

func TestImageDataURL(t *testing.T) {
	url := imageDataURL([]byte{1, 2, 3}, "image/jpeg")
	assert.True(t, strings.HasPrefix(url, "data:image/jpeg;base64,"))
}

func TestFactory_GetProvider(t *testing.T) {
	factory := NewFactory(Config{
		OpenAIAPIKey:    "test-key",
		VisionModel:     "gpt-4o-mini",
		AudioModel:      "gpt-4o-mini-audio-preview",
		TranscribeModel: "gpt-4o-mini-transcribe",
	})

	provider, err := factory.GetProvider(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, "openai", provider.Name())

	provider, err = factory.GetProvider(t.Context(), "openai")
	require.NoError(t, err)
	assert.Equal(t, "openai", provider.Name())

	_, err = factory.GetProvider(t.Context(), "gemini")
	assert.Error(t, err, "gemini key not configured")

	_, err = factory.GetProvider(t.Context(), "anthropic")
	assert.Error(t, err)
}

func TestFactory_MissingOpenAIKey(t *testing.T) {
	factory := NewFactory(Config{})
	_, err := factory.GetProvider(t.Context(), "openai")
	assert.Error(t, err)
}
