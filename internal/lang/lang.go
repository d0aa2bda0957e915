// Package lang canonicalizes ComicInfo language codes and guesses a language
// from title text when asked to.
package lang

import (
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// Auto requests detection from the comic's title.
const Auto = "auto"

// Normalize returns the canonical BCP 47 form of code ("zh_cn" -> "zh-CN").
func Normalize(code string) (string, error) {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	tag, err := language.Parse(code)
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}

// Valid reports whether code is Auto or a parseable language tag.
func Valid(code string) bool {
	if strings.EqualFold(strings.TrimSpace(code), Auto) {
		return true
	}
	_, err := Normalize(code)
	return err == nil
}

// Detect guesses the ISO 639-1 code of sample. ok is false when the guess
// is unreliable or the language has no two-letter code.
func Detect(sample string) (code string, ok bool) {
	info := whatlanggo.Detect(sample)
	if !info.IsReliable() {
		return "", false
	}
	code = info.Lang.Iso6391()
	if code == "" {
		return "", false
	}
	return code, true
}

// Resolve turns a configured code into the value written to LanguageISO.
// Auto detects from sample and falls back to fallback; any other code is
// normalized, and left untouched when it does not parse.
func Resolve(code, sample, fallback string) string {
	if strings.EqualFold(strings.TrimSpace(code), Auto) {
		if detected, ok := Detect(sample); ok {
			return detected
		}
		code = fallback
	}
	if normalized, err := Normalize(code); err == nil {
		return normalized
	}
	return code
}
