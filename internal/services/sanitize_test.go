package services

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeScore(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"8.6":       "8.6",
		"8..6":      "8.6",
		"1.2.3":     "1.23",
		"abc":       "",
		"9.1 CGPA":  "9.1",
		".5":        ".5",
		"78%":       "78",
		"3.8/4.0":   "3.840",
		"":          "",
		"12.34.56.": "12.3456",
	}
	for in, want := range tests {
		got := SanitizeScore(in)
		assert.Equal(t, want, got, "input %q", in)
	}
}

func TestSanitizeScore_AlwaysMatchesPattern(t *testing.T) {
	t.Parallel()

	alphabet := []rune("0123456789..abc -/%٣é")
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		n := rng.Intn(12)
		buf := make([]rune, n)
		for j := range buf {
			buf[j] = alphabet[rng.Intn(len(alphabet))]
		}
		out := SanitizeScore(string(buf))
		require.True(t, isValidScore(out), "input %q produced %q", string(buf), out)
	}
}

func TestSanitizePhone(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "9876543210", SanitizePhone("98765-43210"))
	assert.Equal(t, "1234567890", SanitizePhone("123456789012"))
	assert.Equal(t, "", SanitizePhone("abc"))
}

func TestSanitizeTextFields(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "St Xavier's (Mumbai) & Co", SanitizeInstitution("St. Xavier's (Mumbai) & Co"))
	assert.Equal(t, "BTech, Hons ", SanitizeDegree("B.Tech, Hons 2"))
	assert.Equal(t, "Computer Science-AI ", SanitizeFieldOfStudy("Computer Science-AI 101"))
	assert.Equal(t, "Data Science", SanitizeFieldOfStudy("Data Science"))
}
