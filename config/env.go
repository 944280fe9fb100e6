package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// envRefPattern matches every supported reference form in one alternation,
// tried left to right so ${VAR:-default} wins over the bare ${VAR} form,
// which in turn wins over unbraced $VAR:
//
//	group 1: VAR name in ${VAR:-default}
//	group 2: default value in ${VAR:-default}
//	group 3: VAR name in ${VAR}
//	group 4: VAR name in $VAR
var envRefPattern = regexp.MustCompile(`\$(?:\{([A-Z_][A-Z0-9_]*):-(.*?)\}|\{([A-Z_][A-Z0-9_]*)\}|([A-Z_][A-Z0-9_]*))`)

// expandEnvVars substitutes every ${VAR:-default}, ${VAR}, and $VAR
// reference in s with the process environment's value (or the default, for
// the first form, when the variable is unset or empty). It walks s once,
// using submatch byte offsets to tell an empty-but-present default apart
// from a reference form that has no default at all.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}

	matches := envRefPattern.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}

	var out strings.Builder
	cursor := 0
	for _, m := range matches {
		out.WriteString(s[cursor:m[0]])
		out.WriteString(resolveEnvRef(s, m))
		cursor = m[1]
	}
	out.WriteString(s[cursor:])
	return out.String()
}

// resolveEnvRef looks up the environment variable named by whichever
// alternative of envRefPattern matched, given its submatch offset pairs.
func resolveEnvRef(s string, m []int) string {
	if m[2] != -1 { // ${VAR:-default}
		name, fallback := s[m[2]:m[3]], s[m[4]:m[5]]
		if val := os.Getenv(name); val != "" {
			return val
		}
		return fallback
	}
	if m[6] != -1 { // ${VAR}
		return os.Getenv(s[m[6]:m[7]])
	}
	return os.Getenv(s[m[8]:m[9]]) // $VAR
}

// typeParsers recovers a more specific Go type from a string once
// expansion has substituted an environment variable's raw text value,
// tried in order; the first parser to accept value wins.
var typeParsers = []func(string) (any, bool){
	func(v string) (any, bool) {
		switch strings.ToLower(v) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
		return nil, false
	},
	func(v string) (any, bool) {
		n, err := strconv.Atoi(v)
		return n, err == nil
	},
	func(v string) (any, bool) {
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	},
}

// parseValue returns value reinterpreted as a bool, int, or float64 if it
// looks like one, else value unchanged.
func parseValue(value string) any {
	for _, parse := range typeParsers {
		if v, ok := parse(value); ok {
			return v
		}
	}
	return value
}

// ExpandEnvVarsInData walks a decoded YAML document and expands
// environment variable references in every string leaf, recovering
// non-string types where expansion changed the value.
func ExpandEnvVarsInData(data any) any {
	switch v := data.(type) {
	case string:
		expanded := expandEnvVars(v)
		if expanded == v {
			return expanded
		}
		return parseValue(expanded)
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, value := range v {
			result[key] = ExpandEnvVarsInData(value)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = ExpandEnvVarsInData(item)
		}
		return result
	default:
		return v
	}
}

// LoadEnvFiles loads .env.local then .env into the process environment.
// System environment variables set before either file loads always win,
// since godotenv.Load never overwrites an existing variable.
func LoadEnvFiles() error {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}
