package log

import (
	"os"
	"strings"

	"github.com/iancoleman/strcase"
	"go.uber.org/zap/zapcore"
)

var envFunc = env

func parseLevel(s string) (zapcore.Level, bool) {
	var lvl zapcore.Level
	if err := lvl.Set(strings.ToLower(s)); err != nil {
		return zapcore.InfoLevel, false
	}
	return lvl, true
}

func env(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func parseLevelFromEnv(key string) (zapcore.Level, bool) {
	v, ok := envFunc(key)
	if !ok {
		return zapcore.InfoLevel, false
	}
	return parseLevel(v)
}

// moduleLevel resolves the level of a module path, most specific key first:
// LOG_LEVEL__SIGNAL__RELAY, then LOG_LEVEL__SIGNAL, then LOG_LEVEL.
func moduleLevel(names []string) zapcore.Level {
	keys := make([]string, 0, len(names)+1)
	for i := len(names); i > 0; i-- {
		parts := make([]string, i)
		for j, n := range names[:i] {
			parts[j] = strcase.ToScreamingSnake(n)
		}
		keys = append(keys, "LOG_LEVEL__"+strings.Join(parts, "__"))
	}
	keys = append(keys, "LOG_LEVEL")

	for _, k := range keys {
		if lv, ok := parseLevelFromEnv(k); ok {
			return lv
		}
	}
	return zapcore.InfoLevel
}
