/*
   Copyright 2023 GitHub Inc.
	 See https://github.com/github/gh-ost/blob/master/LICENSE
*/

package base

import (
	"os"
	"regexp"
	"strings"
	"time"
)

var (
	prettifyDurationRegexp = regexp.MustCompile("([.][0-9]+)")
)

// PrettifyDurationOutput renders a duration without its sub-second remainder,
// used when printing the budget left after a switchover/failover run.
func PrettifyDurationOutput(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	return prettifyDurationRegexp.ReplaceAllString(d.String(), "")
}

func FileExists(fileName string) bool {
	if _, err := os.Stat(fileName); err == nil {
		return true
	}
	return false
}

// StringContainsAll returns true if `s` contains all non empty given `substrings`.
// The function returns `false` if no non-empty arguments are given.
func StringContainsAll(s string, substrings ...string) bool {
	nonEmptyStringsFound := false
	for _, substring := range substrings {
		if substring == "" {
			continue
		}
		if strings.Contains(s, substring) {
			nonEmptyStringsFound = true
		} else {
			return false
		}
	}
	return nonEmptyStringsFound
}
