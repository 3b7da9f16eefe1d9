package usecase

import (
	"fmt"
	"strings"
)

const (
	DefaultCharacter = "Gojo Satoru"
	DefaultSeries    = "Jujutsu Kaisen"
)

// Persona is the fixed character injected into every prompt.
type Persona struct {
	Character string
	Series    string
}

// DefaultFallbacks are in-character lines used when the model gives nothing usable.
var DefaultFallbacks = []string{
	"No idea bro.",
	"Hmm, say that again?",
	"Still learning... lol",
	"That's above my pay grade.",
	"Brain's fried, try later.",
}

// Description renders the persona directive.
func (p Persona) Description() string {
	character := strings.TrimSpace(p.Character)
	if character == "" {
		character = DefaultCharacter
	}
	series := strings.TrimSpace(p.Series)
	if series == "" {
		series = DefaultSeries
	}
	return strings.Join([]string{
		"Character: " + character,
		"Series: " + series,
		"",
		fmt.Sprintf("Act like %s from %s. Be witty, sarcastic, flirty, or funny when needed.", character, series),
		`Use slangs, memes, short forms like "u", "r", "gonna", "lol". Talk like a real person.`,
		"Never say you're an assistant. You can write code, answer deeply, or just roast someone.",
		"Be engaging and act human. No assistant behavior.",
	}, "\n")
}

func buildPrompt(p Persona, text string) string {
	return p.Description() + "\nUser: " + text
}
