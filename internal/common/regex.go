package common

import (
	"regexp"
	"sync"
)

// patterns caches compiled expressions keyed by source.
var patterns sync.Map

// MatchRegex reports whether text matches pattern. Compiled patterns are
// reused across calls; an invalid pattern is returned as an error and never
// cached.
func MatchRegex(pattern, text string) (bool, error) {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp).MatchString(text), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, err
	}
	cached, _ := patterns.LoadOrStore(pattern, re)
	return cached.(*regexp.Regexp).MatchString(text), nil
}
