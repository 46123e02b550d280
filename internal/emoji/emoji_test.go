package emoji

import "testing"

func TestGetEmojiFallback(t *testing.T) {
	t.Cleanup(func() { SetEmojiDisabled(false) })

	tests := []struct {
		key      string
		disabled bool
		want     string
	}{
		{"received", false, "🐾"},
		{"received", true, "[BOT]"},
		{"error", true, "[ERR]"},
		{"nope", false, "[?]"},
	}

	for _, tt := range tests {
		SetEmojiDisabled(tt.disabled)
		if got := GetEmoji(tt.key); got != tt.want {
			t.Errorf("GetEmoji(%q) with disabled=%v = %q, want %q", tt.key, tt.disabled, got, tt.want)
		}
	}
}

func TestForKind(t *testing.T) {
	SetEmojiDisabled(true)
	t.Cleanup(func() { SetEmojiDisabled(false) })

	if got := ForKind("action"); got != "[>>]" {
		t.Errorf("unexpected action symbol %q", got)
	}
	if got := ForKind("mystery"); got != "[?]" {
		t.Errorf("unexpected fallback %q", got)
	}
}
