// Package sql screens free-text inputs that end up in LIKE patterns.
// Queries are always parameterized; the screening rejects obvious injection
// probes early and makes them visible in the logs.
package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a search input that looks like SQL injection.
type InjectionCheckResult struct {
	Param       string // Name of the query parameter that failed the check
	Value       string // The value that was checked
	Fingerprint string // libinjection fingerprint of the detected pattern
}

// CheckSearchTerm runs libinjection over a search term. It returns nil when
// the term is clean.
//
//	CheckSearchTerm("q", "Milan")                  // nil
//	CheckSearchTerm("q", "x' OR '1'='1")           // Fingerprint "s&sos" (or similar)
func CheckSearchTerm(param, value string) *InjectionCheckResult {
	if value == "" {
		return nil
	}
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		Param:       param,
		Value:       value,
		Fingerprint: string(fingerprint),
	}
}

// CheckSearchTerms checks every named term and returns the failures in the
// order of names. Missing names are skipped.
func CheckSearchTerms(terms map[string]string, names ...string) []*InjectionCheckResult {
	var results []*InjectionCheckResult
	for _, name := range names {
		value, ok := terms[name]
		if !ok {
			continue
		}
		if result := CheckSearchTerm(name, value); result != nil {
			results = append(results, result)
		}
	}
	return results
}
