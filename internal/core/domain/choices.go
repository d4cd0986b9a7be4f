package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGeneratorUnavailable means no text generation capability is configured.
	ErrGeneratorUnavailable = errors.New("text generator not configured")
	ErrGenerationFailed     = errors.New("text generation failed")
)

// ProfileChoices are the four self-described traits collected by the
// mini-app. They are never persisted.
type ProfileChoices struct {
	Vibe    string `json:"vibe"`
	Weekend string `json:"weekend"`
	Valeurs string `json:"valeurs"`
	Plaisir string `json:"plaisir"`
}

// Normalize trims surrounding whitespace from every field.
func (c ProfileChoices) Normalize() ProfileChoices {
	return ProfileChoices{
		Vibe:    strings.TrimSpace(c.Vibe),
		Weekend: strings.TrimSpace(c.Weekend),
		Valeurs: strings.TrimSpace(c.Valeurs),
		Plaisir: strings.TrimSpace(c.Plaisir),
	}
}

// FallbackDescription is the deterministic text delivered when the text
// generator is unavailable, times out or fails.
func FallbackDescription(c ProfileChoices) string {
	c = c.Normalize()
	return fmt.Sprintf(
		"Plutôt %s, j'aime passer mes week-ends en mode %s. "+
			"Ce qui compte pour moi : %s. Mon petit plaisir : %s. "+
			"Envie de faire connaissance ?",
		orDefault(c.Vibe, "spontané(e)"),
		orDefault(c.Weekend, "découverte"),
		orDefault(c.Valeurs, "le respect"),
		orDefault(c.Plaisir, "les bonnes surprises"),
	)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
