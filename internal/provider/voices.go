package provider

// Voice describes a prebuilt synthesized voice
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Gender      string `json:"gender,omitempty"`
	Description string `json:"description,omitempty"`
}

var voices = []Voice{
	{ID: "Kore", Name: "Kore", Gender: "female", Description: "Firm"},
	{ID: "Puck", Name: "Puck", Gender: "male", Description: "Upbeat"},
	{ID: "Charon", Name: "Charon", Gender: "male", Description: "Informative"},
	{ID: "Fenrir", Name: "Fenrir", Gender: "male", Description: "Excitable"},
	{ID: "Zephyr", Name: "Zephyr", Gender: "female", Description: "Bright"},
}

// Voices returns the prebuilt voices usable for narration and live sessions
func Voices() []Voice {
	return append([]Voice(nil), voices...)
}

// IsVoice reports whether id names a known voice
func IsVoice(id string) bool {
	for _, v := range voices {
		if v.ID == id {
			return true
		}
	}
	return false
}
