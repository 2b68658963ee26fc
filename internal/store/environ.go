package store

import (
	"os"
	"strings"
	"unicode/utf8"
)

// EnvProvider supplies the process environment.
type EnvProvider interface {
	Environ() map[string]string
}

// OSEnviron reads the real process environment.
type OSEnviron struct{}

func (OSEnviron) Environ() map[string]string {
	return parseEnviron(os.Environ())
}

// StaticEnv is a fixed environment, mainly for tests.
type StaticEnv map[string]string

func (s StaticEnv) Environ() map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// EnvFunc adapts a function to EnvProvider.
type EnvFunc func() map[string]string

func (f EnvFunc) Environ() map[string]string { return f() }

func parseEnviron(kv []string) map[string]string {
	out := make(map[string]string, len(kv))
	for _, e := range kv {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			continue
		}
		if !utf8.ValidString(k) {
			continue
		}
		if !utf8.ValidString(v) {
			v = ""
		}
		out[k] = v
	}
	return out
}
