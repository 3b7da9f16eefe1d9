package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPersonaDescription_Defaults(t *testing.T) {
	desc := Persona{}.Description()
	require.True(t, strings.HasPrefix(desc, "Character: Gojo Satoru\nSeries: Jujutsu Kaisen\n"))
	require.Contains(t, desc, "Act like Gojo Satoru from Jujutsu Kaisen.")
	require.Contains(t, desc, "No assistant behavior.")
}

func TestPersonaDescription_Custom(t *testing.T) {
	desc := Persona{Character: "Kakashi Hatake", Series: "Naruto"}.Description()
	require.Contains(t, desc, "Character: Kakashi Hatake")
	require.Contains(t, desc, "Act like Kakashi Hatake from Naruto.")
	require.NotContains(t, desc, "Gojo")
}

func TestBuildPrompt_AppendsUserLine(t *testing.T) {
	p := Persona{}
	prompt := buildPrompt(p, "who is the strongest?")
	require.Equal(t, p.Description()+"\nUser: who is the strongest?", prompt)
}

func TestDefaultFallbacks_NonEmpty(t *testing.T) {
	require.NotEmpty(t, DefaultFallbacks)
	for _, line := range DefaultFallbacks {
		require.NotEmpty(t, strings.TrimSpace(line))
	}
}
