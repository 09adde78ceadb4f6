package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupAndPing(t *testing.T) {
	mr := miniredis.RunT(t)

	v := viper.New()
	Setup(v, "redis")
	v.Set("redis.addr", mr.Addr())

	var cfg Config
	require.NoError(t, v.UnmarshalKey("redis", &cfg))
	assert.Equal(t, mr.Addr(), cfg.Addr)
	assert.False(t, cfg.TLS)

	client := NewClient(&cfg)
	defer client.Close()
	require.NoError(t, Ping(context.Background(), client, time.Second))

	mr.Close()
	assert.Error(t, Ping(context.Background(), client, time.Second))
}
