package log

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zapcore"
)

type ModuleLevelTestSuite struct {
	suite.Suite
	originalEnvFunc func(string) (string, bool)
	testEnv         map[string]string
}

func TestModuleLevelTestSuite(t *testing.T) {
	suite.Run(t, new(ModuleLevelTestSuite))
}

func (s *ModuleLevelTestSuite) SetupTest() {
	s.originalEnvFunc = envFunc
	s.testEnv = make(map[string]string)
	envFunc = func(key string) (string, bool) {
		v := strings.TrimSpace(s.testEnv[key])
		return v, v != ""
	}
}

func (s *ModuleLevelTestSuite) TearDownTest() {
	envFunc = s.originalEnvFunc
}

func (s *ModuleLevelTestSuite) TestDefaultsToInfo() {
	s.Equal(zapcore.InfoLevel, moduleLevel([]string{"Relay"}))
	s.Equal(zapcore.InfoLevel, moduleLevel(nil))
}

func (s *ModuleLevelTestSuite) TestGlobalLevel() {
	s.testEnv["LOG_LEVEL"] = "debug"
	s.Equal(zapcore.DebugLevel, moduleLevel([]string{"Relay"}))
}

func (s *ModuleLevelTestSuite) TestMostSpecificWins() {
	s.testEnv["LOG_LEVEL"] = "warn"
	s.testEnv["LOG_LEVEL__SIGNAL"] = "info"
	s.testEnv["LOG_LEVEL__SIGNAL__WS_HOOK"] = "debug"

	s.Equal(zapcore.DebugLevel, moduleLevel([]string{"Signal", "WSHook"}))
	s.Equal(zapcore.InfoLevel, moduleLevel([]string{"Signal", "Relay"}))
	s.Equal(zapcore.WarnLevel, moduleLevel([]string{"SessionStore"}))
}

func (s *ModuleLevelTestSuite) TestCamelCaseBecomesScreamingSnake() {
	s.testEnv["LOG_LEVEL__SESSION_STORE"] = "error"
	s.Equal(zapcore.ErrorLevel, moduleLevel([]string{"SessionStore"}))
}

func (s *ModuleLevelTestSuite) TestInvalidLevelFallsThrough() {
	s.testEnv["LOG_LEVEL__PRESENCE"] = "loud"
	s.testEnv["LOG_LEVEL"] = "warn"
	s.Equal(zapcore.WarnLevel, moduleLevel([]string{"Presence"}))
}

func (s *ModuleLevelTestSuite) TestWhitespaceAndCase() {
	s.testEnv["LOG_LEVEL__PRESENCE"] = "  DEBUG "
	s.Equal(zapcore.DebugLevel, moduleLevel([]string{"Presence"}))
}

func TestParseLevel(t *testing.T) {
	suite.Run(t, new(ParseLevelTestSuite))
}

type ParseLevelTestSuite struct {
	suite.Suite
}

func (s *ParseLevelTestSuite) TestLevels() {
	for in, want := range map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"Info":  zapcore.InfoLevel,
		"WARN":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	} {
		lv, ok := parseLevel(in)
		s.True(ok, in)
		s.Equal(want, lv, in)
	}

	_, ok := parseLevel("trace")
	s.False(ok)
}
