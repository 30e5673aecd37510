package strength

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Feedback messages emitted by Analyze.
const (
	FeedbackTooShort       = "Use at least 8 characters"
	FeedbackNoLower        = "Add lowercase letters"
	FeedbackNoUpper        = "Add uppercase letters"
	FeedbackNoDigit        = "Add numbers"
	FeedbackNoSymbol       = "Add special characters"
	FeedbackCommonWord     = "Avoid common words"
	FeedbackCommonSequence = "Avoid common sequences"

	// FeedbackNone is the summary when no feedback applies.
	FeedbackNone = "Great password!"
)

// Alphabet sizes per character class, used for the crack-time estimate.
const (
	charsetLower  = 26
	charsetUpper  = 26
	charsetDigit  = 10
	charsetSymbol = 32
)

// guessesPerSecond is the assumed offline attack rate.
const guessesPerSecond = 2e9

// Analysis is the composite result of scoring one password.
type Analysis struct {
	Score         int      `json:"score"`
	MaxScore      int      `json:"max_score"`
	StrengthLevel string   `json:"strength_level"`
	Entropy       float64  `json:"entropy"`
	Feedback      []string `json:"feedback"`
	CrackTime     string   `json:"time_to_crack"`
}

// Summary joins the feedback into one line, or returns FeedbackNone.
func (a Analysis) Summary() string {
	if len(a.Feedback) == 0 {
		return FeedbackNone
	}
	return strings.Join(a.Feedback, ", ")
}

// Analyze scores password and attaches the label, entropy, feedback and a
// crack-time estimate. Score, StrengthLevel and Entropy are exactly what the
// individual functions return.
func Analyze(password string) Analysis {
	score := Score(password)
	c := classify(password)

	return Analysis{
		Score:         score,
		MaxScore:      MaxScore,
		StrengthLevel: StrengthLabel(score),
		Entropy:       Entropy(password),
		Feedback:      feedback(password, c),
		CrackTime:     formatCrackTime(crackSeconds(utf8.RuneCountInString(password), c)),
	}
}

func feedback(password string, c classes) []string {
	out := []string{}
	if len(password) < MinLength {
		out = append(out, FeedbackTooShort)
	}
	if !c.lower {
		out = append(out, FeedbackNoLower)
	}
	if !c.upper {
		out = append(out, FeedbackNoUpper)
	}
	if !c.digit {
		out = append(out, FeedbackNoDigit)
	}
	if !c.symbol {
		out = append(out, FeedbackNoSymbol)
	}
	if strings.Contains(strings.ToLower(password), CommonWord) {
		out = append(out, FeedbackCommonWord)
	}
	if strings.Contains(password, CommonSequence) {
		out = append(out, FeedbackCommonSequence)
	}
	return out
}

// crackSeconds is the time to exhaust the alphabet implied by c at length n.
// It may be +Inf for long passwords.
func crackSeconds(n int, c classes) float64 {
	var charset float64
	if c.lower {
		charset += charsetLower
	}
	if c.upper {
		charset += charsetUpper
	}
	if c.digit {
		charset += charsetDigit
	}
	if c.symbol {
		charset += charsetSymbol
	}
	return math.Pow(charset, float64(n)) / guessesPerSecond
}

const (
	secondsPerMinute = 60
	secondsPerHour   = 3600
	secondsPerDay    = 86400
	secondsPerYear   = 31536000
	centuryYears     = 100
)

func formatCrackTime(s float64) string {
	switch {
	case s < 1:
		return "Instantly"
	case s < secondsPerMinute:
		return fmt.Sprintf("%.1f seconds", s)
	case s < secondsPerHour:
		return fmt.Sprintf("%.1f minutes", s/secondsPerMinute)
	case s < secondsPerDay:
		return fmt.Sprintf("%.1f hours", s/secondsPerHour)
	case s < secondsPerYear:
		return fmt.Sprintf("%.1f days", s/secondsPerDay)
	case s < secondsPerYear*centuryYears:
		return fmt.Sprintf("%.1f years", s/secondsPerYear)
	default:
		return "centuries"
	}
}
