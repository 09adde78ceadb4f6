package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/viper"

	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/log"
)

type Retry interface {
	// Do runs operation until it succeeds, fails permanently or the backoff
	// budget is spent. The last error is returned unwrapped.
	Do(ctx context.Context, operation func() error) error
}

type Config struct {
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("initial_interval"), "200ms")
	v.SetDefault(p("max_interval"), "2s")
	v.SetDefault(p("max_elapsed_time"), "15s")
}

// Permanent stops retrying and makes Do return err as is.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

type Option func(*retryImpl)

// WithRetryIf gives up on the first error retryable rejects.
func WithRetryIf(retryable func(error) bool) Option {
	return func(r *retryImpl) {
		r.retryable = retryable
	}
}

func New(logger *log.Logger, cfg Config, opts ...Option) Retry {
	r := &retryImpl{
		logger: logger,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type retryImpl struct {
	logger    *log.Logger
	cfg       Config
	retryable func(error) bool
}

func (r *retryImpl) Do(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.cfg.InitialInterval
	b.MaxInterval = r.cfg.MaxInterval
	b.MaxElapsedTime = r.cfg.MaxElapsedTime

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := operation()
		if err == nil {
			return nil
		}
		if _, ok := errors.As[*backoff.PermanentError](err); ok {
			return err
		}
		if r.retryable != nil && !r.retryable(err) {
			return backoff.Permanent(err)
		}
		r.logger.Warn("retry attempt failed",
			log.Int("attempt", attempt),
			log.Error(err))
		return err
	}, backoff.WithContext(b, ctx))
}
