package prompt

import "strings"

const (
	// opening and closing sentences are always present, regardless of
	// which fragments are supplied
	opening = "Instrumental music. Avoid vocals and spoken word."
	closing = "Make it coherent and emotionally aligned. 3-part arc: intro -> build -> release."
)

// Compose merges up to four optional text fragments into the final prompt
// handed to the generation engine. Fragments that are empty after trimming
// are omitted; the rest are labeled and concatenated in a fixed order.
func Compose(userTheme, imageDesc, voiceEmotion, voiceTranscript string) string {
	userTheme = strings.TrimSpace(userTheme)
	imageDesc = strings.TrimSpace(imageDesc)
	voiceEmotion = strings.TrimSpace(voiceEmotion)
	voiceTranscript = strings.TrimSpace(voiceTranscript)

	parts := []string{opening}

	if userTheme != "" {
		parts = append(parts, "User theme: "+userTheme+".")
	}
	if imageDesc != "" {
		parts = append(parts, "Image-derived intent: "+imageDesc)
	}
	if voiceEmotion != "" {
		parts = append(parts, "Voice-derived emotion/energy: "+voiceEmotion)
	}
	if voiceTranscript != "" {
		parts = append(parts, "Voice transcript (narrative hint): "+voiceTranscript)
	}

	parts = append(parts, closing)
	return strings.Join(parts, " ")
}
