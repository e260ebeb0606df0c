package util

import (
	"regexp"
	"strings"
)

var (
	reTypeMarker = regexp.MustCompile(`Type [23]`)
	reSpaces     = regexp.MustCompile(`[\s\p{Zs}\x{0085}]+`)
	reFirstDigit = regexp.MustCompile(`\d`)
	reLeadAlpha  = regexp.MustCompile(`^[A-Za-z]`)
	reHashRun    = regexp.MustCompile(`^#+$`)
)

// CleanText drops the vendor "Type 2"/"Type 3" markers and collapses whitespace.
func CleanText(input string) string {
	s := reTypeMarker.ReplaceAllString(input, "")
	return CollapseSpaces(s)
}

// CollapseSpaces folds any whitespace run, including no-break and other Unicode spaces,
// into one ASCII space and trims the ends.
func CollapseSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// SplitAtFirstDigit returns the text before the first ASCII digit and the text from it
// to the end. ok is false when there is no digit.
func SplitAtFirstDigit(input string) (prefix, rest string, ok bool) {
	loc := reFirstDigit.FindStringIndex(input)
	if loc == nil {
		return input, "", false
	}
	return input[:loc[0]], input[loc[0]:], true
}

func StartsWithLetter(input string) bool {
	return reLeadAlpha.MatchString(input)
}

func IsHashRun(input string) bool {
	return reHashRun.MatchString(input)
}
