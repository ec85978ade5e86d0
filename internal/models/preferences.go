package models

type Language string

const (
	English Language = "en"
	Korean  Language = "ko"
)

// Preferences are per-device display settings.
type Preferences struct {
	DarkMode bool     `json:"dark_mode"`
	Language Language `json:"language" binding:"omitempty,oneof=en ko"`
}

func DefaultPreferences() Preferences {
	return Preferences{Language: English}
}
