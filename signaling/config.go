package signaling

import "github.com/spf13/viper"

type Config struct {
	// MaxSignalBytes bounds the encoded size of one signal payload.
	MaxSignalBytes int     `mapstructure:"max_signal_bytes"`
	RatePerSec     float64 `mapstructure:"rate_per_sec"`
	RateBurst      int     `mapstructure:"rate_burst"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string {
		return prefix + "." + key
	}
	v.SetDefault(p("max_signal_bytes"), 64<<10)
	v.SetDefault(p("rate_per_sec"), 50)
	v.SetDefault(p("rate_burst"), 100)
}
