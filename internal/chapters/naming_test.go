package chapters

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"Randomphilia | Ch. 73":                 "randomphilia_ch_73",
		"JoJo's Bizarre Adventure (Colored)":    "jojos_bizarre_adventure_colored",
		"  --Vol. 1 — Ch. 1 / Joseph Joestar-- ": "vol_1_ch_1_joseph_joestar",
		"Un monde où la logique":                "un_monde_où_la_logique",
		"???":                                   "",
	}

	for in, want := range tests {
		assert.Equal(t, want, sanitize(in), in)
	}
}

func TestSanitizeTruncates(t *testing.T) {
	got := sanitize(strings.Repeat("ab ", 100))
	assert.LessOrEqual(t, len([]rune(got)), maxNameLen)
	assert.False(t, strings.HasSuffix(got, "_"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "randomphilia_ch_73_pg_1_MDX1234-1", FileName("Randomphilia | Ch. 73 | Pg. 1", "MDX1234-1"))
	assert.Equal(t, "MDX1-1", FileName("", "MDX1-1"))
	assert.Equal(t, "randomphilia_34326", TitleDir("Randomphilia", "34326"))
	assert.Equal(t, "randomphilia_ch_73_1234.cbz", CBZName("Randomphilia | Ch. 73", "1234"))
}
