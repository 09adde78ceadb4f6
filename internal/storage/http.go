package storage

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/log"
)

// HTTPConfig points at a multipart upload service answering with
// {"secure_url": ..., "url": ..., "public_id": ...}, such as Cloudinary.
type HTTPConfig struct {
	URL string `mapstructure:"url"`
	// DestroyURL accepts a form post with public_id. Delete is a no-op without it.
	DestroyURL   string        `mapstructure:"destroy_url"`
	Token        string        `mapstructure:"token"`
	UploadPreset string        `mapstructure:"upload_preset"`
	Folder       string        `mapstructure:"folder"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type uploadResult struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
	PublicID  string `json:"public_id"`
}

type HTTP struct {
	client *resty.Client
	cfg    HTTPConfig
	logger *log.Logger
}

func NewHTTP(cfg HTTPConfig, logger *log.Logger) (*HTTP, error) {
	if cfg.URL == "" {
		return nil, errors.New(errors.ErrValidation, "upload url is required")
	}
	client := resty.New().SetTimeout(cfg.Timeout)
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return &HTTP{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// publicID drops the extension, the service picks one from the content.
func publicID(key string) string {
	return strings.TrimSuffix(key, path.Ext(key))
}

func (h *HTTP) form(key string) map[string]string {
	form := map[string]string{"public_id": publicID(key)}
	if h.cfg.Folder != "" {
		form["folder"] = h.cfg.Folder
	}
	if h.cfg.UploadPreset != "" {
		form["upload_preset"] = h.cfg.UploadPreset
	}
	return form
}

func (h *HTTP) Upload(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	var result uploadResult
	resp, err := h.client.R().
		SetContext(ctx).
		SetFormData(h.form(key)).
		SetMultipartField("file", path.Base(key), contentType, r).
		SetResult(&result).
		Post(h.cfg.URL)
	if err != nil {
		return "", errors.Wrapf(errors.ErrUpload, err, "failed to post %s", key)
	}
	if resp.IsError() {
		return "", errors.Newf(errors.ErrUpload, "upload of %s refused: status %d", key, resp.StatusCode())
	}
	h.logger.Debug("uploaded",
		log.String("key", key),
		log.String("publicId", result.PublicID))

	if result.SecureURL != "" {
		return result.SecureURL, nil
	}
	if result.URL != "" {
		return result.URL, nil
	}
	return "", errors.Newf(errors.ErrUpload, "upload of %s returned no url", key)
}

func (h *HTTP) Delete(ctx context.Context, key string) error {
	if h.cfg.DestroyURL == "" {
		h.logger.Debug("no destroy url, keeping remote object", log.String("key", key))
		return nil
	}
	form := h.form(key)
	delete(form, "upload_preset")

	resp, err := h.client.R().
		SetContext(ctx).
		SetFormData(form).
		Post(h.cfg.DestroyURL)
	if err != nil {
		return errors.Wrapf(errors.ErrServer, err, "failed to delete %s", key)
	}
	if resp.IsError() {
		return errors.Newf(errors.ErrServer, "delete of %s refused: status %d", key, resp.StatusCode())
	}
	return nil
}
