package services

import (
	"regexp"
	"strings"
)

const phoneDigits = 10

var (
	nonDigitRe        = regexp.MustCompile(`\D`)
	nonScoreRe        = regexp.MustCompile(`[^\d.]`)
	nonInstitutionRe  = regexp.MustCompile(`[^a-zA-Z\s\-'()&]`)
	nonDegreeRe       = regexp.MustCompile(`[^a-zA-Z\s\-,]`)
	nonFieldOfStudyRe = regexp.MustCompile(`[^a-zA-Z\s\-]`)
	digitRe           = regexp.MustCompile(`\d`)
	scoreRe           = regexp.MustCompile(`^\d*\.?\d*$`)
	decimalRunRe      = regexp.MustCompile(`\d+(\.\d+)?`)
)

// SanitizePhone keeps digits only, at most ten of them.
func SanitizePhone(value string) string {
	digits := nonDigitRe.ReplaceAllString(value, "")
	if len(digits) > phoneDigits {
		digits = digits[:phoneDigits]
	}
	return digits
}

// SanitizeScore keeps digits and the first decimal point.
func SanitizeScore(value string) string {
	clean := nonScoreRe.ReplaceAllString(value, "")
	parts := strings.Split(clean, ".")
	if len(parts) > 2 {
		return parts[0] + "." + strings.Join(parts[1:], "")
	}
	return clean
}

func SanitizeInstitution(value string) string {
	return nonInstitutionRe.ReplaceAllString(value, "")
}

func SanitizeDegree(value string) string {
	return nonDegreeRe.ReplaceAllString(value, "")
}

func SanitizeFieldOfStudy(value string) string {
	return nonFieldOfStudyRe.ReplaceAllString(value, "")
}

// stripDigits is applied to parsed education text, which never went
// through the keystroke sanitizers.
func stripDigits(value string) string {
	return strings.Join(strings.Fields(digitRe.ReplaceAllString(value, "")), " ")
}

// normalizeParsedPhone keeps the trailing ten digits so a country code
// prefix is dropped.
func normalizeParsedPhone(value string) string {
	digits := nonDigitRe.ReplaceAllString(value, "")
	if len(digits) > phoneDigits {
		digits = digits[len(digits)-phoneDigits:]
	}
	return digits
}

// normalizeParsedScore pulls the first number out of strings like "3.8/4.0".
func normalizeParsedScore(value string) string {
	return decimalRunRe.FindString(value)
}

func isValidScore(value string) bool {
	return scoreRe.MatchString(value)
}
