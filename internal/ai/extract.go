package ai

import (
	"strings"

	"habit-coach-backend/internal/apperr"
)

// ExtractObject returns the greedy span from the first '{' to the last '}'
// of raw. Models wrap JSON in prose and code fences; everything outside the
// span is dropped.
func ExtractObject(op, raw string) (string, error) {
	return extractSpan(op, raw, '{', '}')
}

// ExtractArray is ExtractObject for '[' ... ']'.
func ExtractArray(op, raw string) (string, error) {
	return extractSpan(op, raw, '[', ']')
}

func extractSpan(op, raw string, open, close byte) (string, error) {
	start := strings.IndexByte(raw, open)
	end := strings.LastIndexByte(raw, close)
	if start < 0 || end < start {
		return "", apperr.New(apperr.KindMalformedOracleOutput, op,
			"no "+string(open)+"..."+string(close)+" span in oracle reply").WithRaw(raw)
	}
	return raw[start : end+1], nil
}
