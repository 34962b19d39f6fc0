// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"fmt"

	"github.com/woozymasta/pathrules"
)

// pathSelector compiles ExtractOptions.Select into a matcher, repurposing
// the teacher's compressMatcher (a compile-time wrapper around
// pathrules.Matcher) from "which entries to compress when packing" into
// "which resolved entries to attempt when extracting".
type pathSelector struct {
	matcher *pathrules.Matcher
}

// newPathSelector compiles rules for extraction selection. A nil selector
// (no rules) selects every entry.
func newPathSelector(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*pathSelector, error) {
	rules = normalizeSelectRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("compile select rules: %w", err)
	}

	return &pathSelector{matcher: matcher}, nil
}

// normalizeSelectRules normalizes rule patterns and drops empty ones.
func normalizeSelectRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizePathForMatching(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether path is selected for extraction. A nil selector
// selects everything.
func (m *pathSelector) Match(path string) bool {
	if m == nil || m.matcher == nil {
		return true
	}

	candidate := NormalizePath(path)
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, false)
}
