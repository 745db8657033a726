// Package config reads the single piece of environment-driven
// configuration the CLI supports: enabling execution tracing without
// touching argv, for use by CI harnesses that invoke the interpreter
// without controlling its flags.
//
// This is the one ambient-stack corner built directly on the standard
// library rather than a third-party config library: a single boolean
// toggle does not justify pulling in a struct-tag/env-binding dependency,
// and no repo in the examined corpus reaches for one at this scale.
package config

import (
	"os"
	"strconv"
)

// TraceEnv is the environment variable name that enables tracing.
const TraceEnv = "RV64I_TRACE"

// TraceFromEnv reports whether RV64I_TRACE is set to a true-ish value
// (as parsed by strconv.ParseBool). An unset or unparsable value reports
// false.
func TraceFromEnv() bool {
	v, ok := os.LookupEnv(TraceEnv)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}
