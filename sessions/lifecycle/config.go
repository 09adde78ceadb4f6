package lifecycle

import (
	"time"

	"github.com/spf13/viper"

	"github.com/imtaco/livecast/internal/retry"
)

// RecordingConfig is the recording policy shared with capture.
type RecordingConfig struct {
	// Required refuses to end a session that has no recording attached.
	Required bool  `mapstructure:"required"`
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type DisconnectConfig struct {
	AutoEnd     bool          `mapstructure:"auto_end"`
	GracePeriod time.Duration `mapstructure:"grace_period"`
	// Retry bounds the system end after the grace period.
	Retry retry.Config `mapstructure:"retry"`
}

func SetupRecording(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("required"), true)
	v.SetDefault(p("max_bytes"), int64(512<<20))
}

func SetupDisconnect(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("auto_end"), true)
	v.SetDefault(p("grace_period"), "15s")
	retry.Setup(v, p("retry"))
}
