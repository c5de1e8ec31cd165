package manifest

import (
	"strconv"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/matzehuels/crateman/pkg/errors"
)

// DefaultEdition is the edition of a package that does not declare one.
const DefaultEdition = "2015"

// editionFloor is the first toolchain release supporting each edition.
var editionFloor = map[string]string{
	"2015": "",
	"2018": "1.31.0",
	"2021": "1.56.0",
}

func parseEdition(s string) (string, error) {
	if _, ok := editionFloor[s]; ok {
		return s, nil
	}
	if y, err := strconv.Atoi(s); err == nil && y > 2021 && y < 2050 {
		return "", errors.New(errors.ErrCodeInvalidManifest,
			"this version of crateman is older than the `%s` edition, "+
				"and only supports `2015`, `2018`, and `2021` editions.", s)
	}
	return "", errors.New(errors.ErrCodeInvalidManifest,
		"supported edition values are `2015`, `2018`, or `2021`, but `%s` is unknown", s)
}

// checkRustVersion validates a rust-version against the edition it is
// declared with.
func checkRustVersion(rv, edition string) error {
	onlyDigits := strings.Trim(rv, "0123456789.") == ""
	v := "v" + rv
	if rv == "" || !onlyDigits || !semver.IsValid(v) {
		return errors.New(errors.ErrCodeInvalidManifest, "`rust-version` must be a value like \"1.32\"")
	}
	floor := editionFloor[edition]
	if floor == "" {
		return nil
	}
	if semver.Compare(semver.Canonical(v), "v"+floor) < 0 {
		return errors.New(errors.ErrCodeInvalidManifest,
			"rust-version %s is older than first version (%s) required by the specified edition (%s)",
			rv, floor, edition)
	}
	return nil
}

func parseResolver(s string) (string, error) {
	switch s {
	case "1", "2":
		return s, nil
	}
	return "", errors.New(errors.ErrCodeInvalidManifest,
		"`resolver` setting `%s` is not valid, valid options are \"1\" or \"2\"", s)
}

// closestMsg suggests the candidate nearest to name, if any is close
// enough to be a likely typo.
func closestMsg(name string, candidates []string) string {
	best, bestDist := "", 4
	for _, c := range candidates {
		if d := levenshtein(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	if best == "" {
		return ""
	}
	return "\n\n\tDid you mean `" + best + "`?"
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
