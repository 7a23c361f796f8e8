// Package classify decides which generation branch a prompt belongs to.
package classify

import (
	"regexp"
)

// Intent is the classification of a prompt into a generation branch.
type Intent string

const (
	IntentText  Intent = "text"
	IntentImage Intent = "image"
	IntentAudio Intent = "audio"
)

// Keyword heuristics, matched against the raw prompt. An intent requires
// both an action and a subject keyword. Best effort: ambiguous prompts fall
// through to whichever branch matches first.
var (
	imageAction  = regexp.MustCompile(`(?i)\b(generate|create|make|draw|show|give me|imagine)\b`)
	imageSubject = regexp.MustCompile(`(?i)\b(image|picture|photo|artwork|drawing|illustration|logo|icon)\b`)

	audioAction  = regexp.MustCompile(`(?i)\b(generate|create|make|speak|say|tell|read)\b`)
	audioSubject = regexp.MustCompile(`(?i)\b(audio|speech|voice|sound|speak|talk)\b`)
)

// Detect classifies a prompt. Image is checked before audio, so a prompt
// matching both resolves to IntentImage.
func Detect(prompt string) Intent {
	if imageAction.MatchString(prompt) && imageSubject.MatchString(prompt) {
		return IntentImage
	}
	if audioAction.MatchString(prompt) && audioSubject.MatchString(prompt) {
		return IntentAudio
	}
	return IntentText
}
