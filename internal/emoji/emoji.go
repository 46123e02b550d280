// Package emoji maps symbolic names to emoji with plain-text fallbacks.
package emoji

import "sync/atomic"

// emojiMap holds emoji and fallback mappings
var emojiMap = map[string][2]string{
	// [emoji, fallback]
	"sent":       {"📤", "[YOU]"},
	"received":   {"🐾", "[BOT]"},
	"loading":    {"⏳", "[...]"},
	"action":     {"🔄", "[>>]"},
	"error":      {"❌", "[ERR]"},
	"success":    {"✅", "[OK]"},
	"warning":    {"⚠️", "[WRN]"},
	"info":       {"ℹ️", "[INF]"},
	"camera":     {"📷", "[IMG]"},
	"folder":     {"📂", "[DIR]"},
	"drop":       {"🎯", "[DROP]"},
	"statistics": {"📊", "[STATS]"},
	"question":   {"❓", "[?]"},
	"help":       {"❓", "[?]"},
	"door":       {"🚪", "[EXIT]"},
	"keyboard":   {"⌨️", "[KEY]"},
}

var emojiDisabled atomic.Bool

// SetEmojiDisabled sets the global emoji disabled state
func SetEmojiDisabled(disabled bool) {
	emojiDisabled.Store(disabled)
}

// IsEmojiDisabled returns the current emoji disabled state
func IsEmojiDisabled() bool {
	return emojiDisabled.Load()
}

// GetEmoji returns emoji or fallback based on no-emoji setting
func GetEmoji(key string) string {
	if mapping, exists := emojiMap[key]; exists {
		if emojiDisabled.Load() {
			return mapping[1]
		}
		return mapping[0]
	}
	return "[?]"
}

// ForKind returns the symbol for a conversation entry kind name
func ForKind(kind string) string {
	if _, ok := emojiMap[kind]; ok {
		return GetEmoji(kind)
	}
	return GetEmoji("question")
}
