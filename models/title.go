package models

// Title derivation from the first message of a session.
const (
	titleMaxRunes   = 30
	titleCutSuffix  = "... 💕"
	titleFullSuffix = " 💕"
)

// DeriveTitle builds a session title from the first sent message:
// the first 30 runes, marked when truncation occurred.
func DeriveTitle(text string) string {
	runes := []rune(text)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + titleCutSuffix
	}
	return text + titleFullSuffix
}
