package utils

import (
	"regexp"
	"strings"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

func IsValidSlug(slug string) bool {
	return slugPattern.MatchString(slug)
}

func SanitizeString(input string) string {
	return strings.TrimSpace(input)
}
