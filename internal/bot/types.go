// Package bot turns chat messages into wallet operations and reply texts.
package bot

// Update is one incoming chat message.
type Update struct {
	ChatID       int64  `json:"chat_id"`
	UserID       int64  `json:"user_id"`
	Text         string `json:"text"`
	LanguageCode string `json:"language_code,omitempty"`
}

type Options struct {
	// Whitelist holds the allowed user ids. Empty allows everyone.
	Whitelist []int64
	// Network is shown in the help text.
	Network string
}
