package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certinal/booth-backend/config"
)

func TestGenerateRange(t *testing.T) {
	// Extremes of the draw map to the edges of the 6-digit space.
	assert.Equal(t, "100000", Generate(func(n int) int { return 0 }))
	assert.Equal(t, "999999", Generate(func(n int) int { return n - 1 }))
}

func TestGenerateAlwaysSixDigits(t *testing.T) {
	for i := 0; i < 1000; i++ {
		token := Generate(nil)
		require.Len(t, token, 6)
		for _, ch := range token {
			require.True(t, ch >= '0' && ch <= '9', "token %q has non-digit", token)
		}
		require.GreaterOrEqual(t, token, "100000")
		require.LessOrEqual(t, token, "999999")
	}
}

func TestRenderEmail(t *testing.T) {
	event := config.EventConfig{
		Dates:     "January 30-31, 2026",
		Venue:     "HICC, Hyderabad, India",
		Booth:     "#121",
		BookTitle: "When the CIO Holds the Scalpel",
	}

	html, err := RenderEmail("Asha Rao", "123456", event)
	require.NoError(t, err)
	assert.Contains(t, html, "Dear Asha Rao")
	assert.Contains(t, html, "123456")
	assert.Contains(t, html, "Booth #121")
	assert.Contains(t, html, "HICC, Hyderabad, India")
	assert.Contains(t, html, "When the CIO Holds the Scalpel")
}

func TestRenderEmailFallbackName(t *testing.T) {
	html, err := RenderEmail("", "123456", config.EventConfig{})
	require.NoError(t, err)
	assert.Contains(t, html, "Valued Guest")
}

func TestRenderEmailEscapesName(t *testing.T) {
	html, err := RenderEmail("<script>alert(1)</script>", "123456", config.EventConfig{})
	require.NoError(t, err)
	assert.False(t, strings.Contains(html, "<script>alert(1)</script>"))
}
