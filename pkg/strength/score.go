package strength

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxScore is the upper bound of Score.
const MaxScore = 100

// Strength labels returned by StrengthLabel.
const (
	LabelVeryWeak   = "Very Weak"
	LabelWeak       = "Weak"
	LabelFair       = "Fair"
	LabelStrong     = "Strong"
	LabelVeryStrong = "Very Strong"
)

// Lower bounds (inclusive) of each label above Very Weak.
const (
	ThresholdWeak       = 30
	ThresholdFair       = 50
	ThresholdStrong     = 70
	ThresholdVeryStrong = 85
)

// Scoring weights.
const (
	// MinLength is the length at which the flat length bonus applies.
	MinLength = 8

	lengthBonus   = 35
	perCharPoints = 4
	classBonus    = 10

	entropyPerChar = 4.0
)

// Pattern penalties. CommonWord is matched case-insensitively,
// CommonSequence as-is.
const (
	CommonWord            = "password"
	CommonWordPenalty     = 20
	CommonSequence        = "123"
	CommonSequencePenalty = 10
)

// Score returns the heuristic strength of password in the range [0, 100].
//
// The length term counts UTF-8 bytes, so a multi-byte character weighs more
// than one ASCII character. Each class bonus is awarded at most once.
func Score(password string) int {
	if password == "" {
		return 0
	}

	score := LengthScore(len(password))

	c := classify(password)
	if c.lower {
		score += classBonus
	}
	if c.upper {
		score += classBonus
	}
	if c.digit {
		score += classBonus
	}
	if c.symbol {
		score += classBonus
	}

	if strings.Contains(strings.ToLower(password), CommonWord) {
		score -= CommonWordPenalty
	}
	if strings.Contains(password, CommonSequence) {
		score -= CommonSequencePenalty
	}

	return clampScore(score)
}

// StrengthLabel maps score to a qualitative label. Any integer is accepted;
// negative values are Very Weak.
func StrengthLabel(score int) string {
	switch {
	case score < ThresholdWeak:
		return LabelVeryWeak
	case score < ThresholdFair:
		return LabelWeak
	case score < ThresholdStrong:
		return LabelFair
	case score < ThresholdVeryStrong:
		return LabelStrong
	default:
		return LabelVeryStrong
	}
}

// Entropy returns 4 bits per character. It ignores character classes and is
// not a real entropy estimate.
func Entropy(password string) float64 {
	return float64(utf8.RuneCountInString(password)) * entropyPerChar
}

// LengthScore is the length term of the score for a password of n units:
// a flat 35 from MinLength up, 4 per unit below it.
func LengthScore(n int) int {
	if n >= MinLength {
		return lengthBonus
	}
	return n * perCharPoints
}

// classes records which character classes occur in a password.
type classes struct {
	lower, upper, digit, symbol bool
}

func classify(s string) classes {
	var c classes
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			c.lower = true
		case r >= 'A' && r <= 'Z':
			c.upper = true
		case r >= '0' && r <= '9':
			c.digit = true
		}
		if !IsAlphanumeric(r) {
			c.symbol = true
		}
	}
	return c
}

// IsAlphanumeric reports whether r is a letter or number in the Unicode
// sense: any L or N category rune, or one carrying the Other_Alphabetic
// property (combining vowel signs and similar).
func IsAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Other_Alphabetic, r)
}

// clampScore restricts v to [0, MaxScore].
func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
