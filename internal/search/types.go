package search

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	ErrUnknownMethod = errors.New("unknown search method")
	ErrNoTool        = errors.New("no executable configured for search method")
)

// Method selects which Infernal program runs the search
type Method string

const (
	// MethodCMSearch searches each model against the sequence database
	MethodCMSearch Method = "cmsearch"
	// MethodCMScan scans each sequence against the model database
	MethodCMScan Method = "cmscan"
)

// ValidMethods contains all valid search methods
var ValidMethods = []Method{
	MethodCMSearch,
	MethodCMScan,
}

// IsValid checks if the method is valid
func (m Method) IsValid() bool {
	for _, valid := range ValidMethods {
		if m == valid {
			return true
		}
	}
	return false
}

func (m Method) String() string {
	return string(m)
}

// ParseMethod accepts a method name, case-insensitively. The two-letter
// codes CS and CC are accepted as aliases for cmsearch and cmscan.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cmsearch", "cs":
		return MethodCMSearch, nil
	case "cmscan", "cc":
		return MethodCMScan, nil
	}
	return "", fmt.Errorf("%w: %q (want cmsearch or cmscan)", ErrUnknownMethod, s)
}

// Tools maps each method to the executable that implements it
type Tools map[Method]string

// Resolve returns the executable for m
func (t Tools) Resolve(m Method) (string, error) {
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, m)
	}
	tool, ok := t[m]
	if !ok || tool == "" {
		return "", fmt.Errorf("%w: %s", ErrNoTool, m)
	}
	return tool, nil
}
