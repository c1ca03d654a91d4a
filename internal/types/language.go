package types

import "strings"

// Language is a supported conversation language.
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

// Languages lists the supported languages in display order.
var Languages = []Language{
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "hi", Name: "Hindi", NativeName: "हिंदी"},
	{Code: "mr", Name: "Marathi", NativeName: "मराठी"},
	{Code: "gu", Name: "Gujarati", NativeName: "ગુજરાતી"},
	{Code: "ta", Name: "Tamil", NativeName: "தமிழ்"},
	{Code: "te", Name: "Telugu", NativeName: "తెలుగు"},
	{Code: "kn", Name: "Kannada", NativeName: "ಕನ್ನಡ"},
	{Code: "ml", Name: "Malayalam", NativeName: "മലയാളം"},
	{Code: "pa", Name: "Punjabi", NativeName: "ਪੰਜਾਬੀ"},
	{Code: "bn", Name: "Bengali", NativeName: "বাংলা"},
}

// DefaultLanguage is used when nothing else is selected.
const DefaultLanguage = "English"

// LookupLanguage finds a language by code, English name or native name.
func LookupLanguage(s string) (Language, bool) {
	s = strings.TrimSpace(s)
	for _, l := range Languages {
		if strings.EqualFold(l.Code, s) || strings.EqualFold(l.Name, s) || l.NativeName == s {
			return l, true
		}
	}
	return Language{}, false
}

// LanguageName resolves s to the English language name the model is prompted
// with. Unknown values pass through unchanged; empty means DefaultLanguage.
func LanguageName(s string) string {
	if strings.TrimSpace(s) == "" {
		return DefaultLanguage
	}
	if l, ok := LookupLanguage(s); ok {
		return l.Name
	}
	return s
}
