package mwlog

import "github.com/windrift/mwlog/internal/report"

func reportTruncationCollision(a, b, truncated string) {
	report.Warn("two configured context ids collapsed to the same 4-byte identifier", map[string]any{
		"first":     a,
		"second":    b,
		"truncated": truncated,
	})
}
