package recipe

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxNameLength is the longest accepted dish or plan name, in runes.
const MaxNameLength = 200

// MaxNameBytes caps a sanitized name in bytes. File systems limit names to
// 255 bytes, and stores append suffixes such as ".json" or "_dish".
const MaxNameBytes = 200

// letterCollectionPattern matches the names reserved for first-letter
// collections.
var letterCollectionPattern = regexp.MustCompile(`^letter_[a-z]$`)

var nameReplacer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_",
	`\`, "_", "|", "_", "?", "_", "*", "_", " ", "_",
)

// Sanitize turns a user supplied dish or plan name into a name that is safe
// as a directory or file name on every common platform. Names that end up
// empty or made only of underscores become fallback.
func Sanitize(name, fallback string) string {
	s := nameReplacer.Replace(strings.ToLower(name))
	s = truncateBytes(strings.Trim(s, ". "), MaxNameBytes)

	if strings.Trim(s, "_") == "" {
		return fallback
	}
	return s
}

// truncateBytes cuts s to at most limit bytes without splitting a rune.
func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := 0
	for cut < len(s) {
		_, size := utf8.DecodeRuneInString(s[cut:])
		if cut+size > limit {
			break
		}
		cut += size
	}
	return strings.TrimRight(s[:cut], ". ")
}

// CollectionName is the sanitized collection name for a dish search term.
// Dish names that would land on a first-letter collection get a "_dish"
// suffix so the two never share a directory.
func CollectionName(term string) string {
	name := Sanitize(term, CollectionFallback)
	if letterCollectionPattern.MatchString(name) {
		name += "_dish"
	}
	return name
}

// PlanFileStem is the sanitized file stem for a meal plan name.
func PlanFileStem(name string) string {
	return Sanitize(name, MealPlanFallback)
}

// LetterCollection is the collection that holds recipes found by a
// first-letter search.
func LetterCollection(letter string) string {
	return "letter_" + strings.ToLower(letter)
}
