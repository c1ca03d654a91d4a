package groundtruth

import "strings"

// OrganicKeywords mark a treatment step as an organic method.
var OrganicKeywords = []string{"organic", "neem"}

// IsSafeOrganic reports whether any treatment step mentions an organic method.
func IsSafeOrganic(steps []string) bool {
	for _, s := range steps {
		lower := strings.ToLower(s)
		for _, kw := range OrganicKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
