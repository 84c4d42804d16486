package exec

import "regexp"

// regexpSearch reports whether pattern matches anywhere in text. The
// match is case-insensitive. Go's regexp is RE2, not POSIX ERE, but both
// speak the same practical subset (anchors, classes, quantifiers,
// alternation) that the REGEXP clause exercises.
func regexpSearch(text, pattern string) (bool, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(text), nil
}
