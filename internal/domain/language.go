// Package domain contains entity without logic, just meta-data
package domain

import "errors"

var ErrUnknownLanguage = errors.New("unknown language")

// Language is a target language for the word game. The string value is
// the exact payload sent to the agent, so it must never be abbreviated.
type Language string

const (
	Portuguese Language = "Portuguese"
	Spanish    Language = "Spanish"
	French     Language = "French"
	Italian    Language = "Italian"
	German     Language = "German"
	Belarusian Language = "Belarusian"
)

// Languages lists every selectable language in display order.
func Languages() []Language {
	return []Language{Portuguese, Spanish, French, Italian, German, Belarusian}
}

// ParseLanguage validates a raw value coming from the view layer.
func ParseLanguage(raw string) (Language, error) {
	for _, l := range Languages() {
		if string(l) == raw {
			return l, nil
		}
	}
	return "", ErrUnknownLanguage
}

func (l Language) String() string { return string(l) }
