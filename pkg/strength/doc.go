// Package strength scores passwords with a fixed heuristic.
//
// score.go holds the three pure operations:
//   - Score(password) returns 0–100: a length term (35 flat at ≥8 bytes,
//     otherwise 4 per byte), +10 for each character class present
//     (ASCII lower, ASCII upper, ASCII digit, Unicode non-alphanumeric),
//     −20 for "password" (case-insensitive), −10 for "123", clamped.
//   - StrengthLabel(score) maps any integer to one of five labels with
//     thresholds 30 / 50 / 70 / 85.
//   - Entropy(password) is the linear placeholder 4.0 × character count.
//
// analysis.go composes them into an Analysis with user-facing feedback and
// a brute-force crack-time estimate.
//
// None of these functions keep state; all are safe for concurrent use.
package strength
