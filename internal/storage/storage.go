// Package storage puts recording bytes somewhere viewers can fetch them: the
// local disk, an S3 compatible bucket or a remote upload service.
package storage

import (
	"context"
	"io"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/log"
	intotel "github.com/imtaco/livecast/internal/otel"
)

const (
	DriverLocal = "local"
	DriverS3    = "s3"
	DriverHTTP  = "http"
)

// Uploader stores an object under key and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type Config struct {
	Driver string      `mapstructure:"driver"`
	Local  LocalConfig `mapstructure:"local"`
	S3     S3Config    `mapstructure:"s3"`
	HTTP   HTTPConfig  `mapstructure:"http"`
}

func Setup(v *viper.Viper, prefix string) {
	p := func(key string) string { return prefix + "." + key }

	v.SetDefault(p("driver"), DriverLocal)

	v.SetDefault(p("local.base_path"), "./data")
	v.SetDefault(p("local.public_url"), "http://localhost:8080/files")

	v.SetDefault(p("s3.endpoint"), "")
	v.SetDefault(p("s3.region"), "us-east-1")
	v.SetDefault(p("s3.bucket"), "livecast")
	v.SetDefault(p("s3.access_key_id"), "")
	v.SetDefault(p("s3.secret_access_key"), "")
	v.SetDefault(p("s3.use_path_style"), false)
	v.SetDefault(p("s3.public_url"), "")

	v.SetDefault(p("http.url"), "")
	v.SetDefault(p("http.destroy_url"), "")
	v.SetDefault(p("http.token"), "")
	v.SetDefault(p("http.upload_preset"), "")
	v.SetDefault(p("http.folder"), "live_stream_videos")
	v.SetDefault(p("http.timeout"), "2m")
}

// New builds the configured driver wrapped with metrics.
func New(ctx context.Context, cfg Config, logger *log.Logger) (Uploader, error) {
	var (
		inner Uploader
		err   error
	)
	switch cfg.Driver {
	case DriverLocal:
		inner, err = NewLocal(cfg.Local)
	case DriverS3:
		inner, err = NewS3(ctx, cfg.S3)
	case DriverHTTP:
		inner, err = NewHTTP(cfg.HTTP, logger)
	default:
		return nil, errors.Newf(errors.ErrValidation, "unknown upload driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(cfg.Driver, inner), nil
}

type instrumented struct {
	inner Uploader
	attrs metric.MeasurementOption
}

// Instrument counts uploads, deletes and uploaded bytes per driver.
func Instrument(driver string, u Uploader) Uploader {
	return &instrumented{
		inner: u,
		attrs: metric.WithAttributes(attribute.String(intotel.AttrDriver, driver)),
	}
}

func (i *instrumented) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	cr := &countingReader{r: r}
	url, err := i.inner.Upload(ctx, key, cr, size, contentType)
	if err != nil {
		uploadsFailed.Add(ctx, 1, i.attrs)
		return "", err
	}
	uploadsSucceeded.Add(ctx, 1, i.attrs)
	uploadBytes.Record(ctx, cr.n, i.attrs)
	return url, nil
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	err := i.inner.Delete(ctx, key)
	if err != nil {
		deletesFailed.Add(ctx, 1, i.attrs)
		return err
	}
	deletes.Add(ctx, 1, i.attrs)
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
