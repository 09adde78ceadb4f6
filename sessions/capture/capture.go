package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/imtaco/livecast/auth"
	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/log"
	intotel "github.com/imtaco/livecast/internal/otel"
	"github.com/imtaco/livecast/sessions"
)

// sniffLen matches mimetype's default read limit.
const sniffLen = 3072

const octetStream = "application/octet-stream"

type commitFunc func(ctx context.Context, id, url string, requester auth.Identity) (*sessions.Session, error)

// Coordinator uploads a recording and attaches it to its session. An upload
// whose attach fails is deleted again.
type Coordinator struct {
	manager  sessions.Manager
	uploader sessions.Uploader
	maxBytes int64
	clock    clockwork.Clock
	tracer   trace.Tracer
	logger   *log.Logger
}

var _ sessions.Capturer = (*Coordinator)(nil)

func NewCoordinator(
	manager sessions.Manager,
	uploader sessions.Uploader,
	maxBytes int64,
	clock clockwork.Clock,
	logger *log.Logger,
) *Coordinator {
	return &Coordinator{
		manager:  manager,
		uploader: uploader,
		maxBytes: maxBytes,
		clock:    clock,
		tracer:   intotel.Tracer("livecast/capture"),
		logger:   logger,
	}
}

func (c *Coordinator) Capture(ctx context.Context, id string, requester auth.Identity, blob sessions.Blob) (*sessions.Session, error) {
	return c.capture(ctx, "capture", id, requester, blob, c.manager.AttachRecording)
}

// CaptureAndEnd uploads the recording and ends the session in the same write
// that attaches it.
func (c *Coordinator) CaptureAndEnd(ctx context.Context, id string, requester auth.Identity, blob sessions.Blob) (*sessions.Session, error) {
	return c.capture(ctx, "capture_and_end", id, requester, blob, c.manager.EndSessionWithRecording)
}

func (c *Coordinator) capture(
	ctx context.Context,
	op string,
	id string,
	requester auth.Identity,
	blob sessions.Blob,
	commit commitFunc,
) (*sessions.Session, error) {
	ctx, span := intotel.StartSpan(ctx, c.tracer, "sessions."+op,
		attribute.String(intotel.AttrSessionID, id))

	s, err := c.doCapture(ctx, id, requester, blob, commit)
	intotel.EndSpan(span, err)
	if err != nil {
		capturesFailed.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("kind", string(errors.KindOf(err)))))
		return nil, err
	}
	captures.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	return s, nil
}

func (c *Coordinator) doCapture(
	ctx context.Context,
	id string,
	requester auth.Identity,
	blob sessions.Blob,
	commit commitFunc,
) (*sessions.Session, error) {
	s, err := c.manager.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.OwnedBy(requester) {
		return nil, errors.Newf(errors.ErrForbidden, "only the owner can upload a recording for session %s", id)
	}
	if s.HasRecording() {
		return nil, errors.Newf(errors.ErrConflict, "session %s already has a recording", id)
	}
	if !s.Live() {
		return nil, errors.Newf(errors.ErrPrecondition, "session %s is already %s", id, s.Status)
	}

	if blob.Reader == nil || blob.Size == 0 {
		return nil, errors.New(errors.ErrValidation, "recording file is empty")
	}
	if c.maxBytes > 0 && blob.Size > c.maxBytes {
		return nil, errors.Newf(errors.ErrValidation, "recording exceeds %d bytes", c.maxBytes)
	}

	body, contentType, ext, err := detect(blob)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("recordings/%s/recording_%d%s", id, c.clock.Now().UnixMilli(), ext)
	logger := c.logger.With(log.SessionID(id), log.String("key", key))

	url, err := c.uploader.Upload(ctx, key, body, blob.Size, contentType)
	if err != nil {
		logger.Warn("recording upload failed", log.Error(err))
		if !errors.Is(err, errors.ErrUpload) {
			err = errors.Wrap(errors.ErrUpload, err, "failed to upload recording")
		}
		return nil, err
	}

	s, err = commit(ctx, id, url, requester)
	if err != nil {
		c.discard(ctx, logger, key)
		return nil, err
	}
	logger.Info("recording attached",
		log.String("url", url),
		log.String("contentType", contentType),
		log.Int64("size", blob.Size))
	return s, nil
}

func (c *Coordinator) discard(ctx context.Context, logger *log.Logger, key string) {
	if err := c.uploader.Delete(context.WithoutCancel(ctx), key); err != nil {
		orphansLeftOver.Add(ctx, 1)
		logger.Warn("failed to delete orphaned recording", log.Error(err))
		return
	}
	orphansDeleted.Add(ctx, 1)
}

// detect settles the content type of blob, sniffing it when the client did not
// declare one, and returns a reader that still yields every byte.
func detect(blob sessions.Blob) (io.Reader, string, string, error) {
	declared := ""
	if blob.ContentType != "" {
		mt, _, err := mime.ParseMediaType(blob.ContentType)
		if err != nil {
			return nil, "", "", errors.Newf(errors.ErrValidation, "invalid content type %q", blob.ContentType)
		}
		declared = mt
	}

	body := blob.Reader
	contentType := declared
	ext := extension(blob.Filename)

	if declared == "" || declared == octetStream {
		head := make([]byte, sniffLen)
		n, err := io.ReadFull(blob.Reader, head)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return nil, "", "", errors.Wrap(errors.ErrValidation, err, "failed to read recording")
		}
		head = head[:n]
		sniffed := mimetype.Detect(head)
		contentType = sniffed.String()
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			contentType = mt
		}
		if ext == "" {
			ext = sniffed.Extension()
		}
		body = rewind(blob.Reader, head)
	}

	if !strings.HasPrefix(contentType, "video/") && !strings.HasPrefix(contentType, "audio/") {
		return nil, "", "", errors.Newf(errors.ErrValidation, "recording must be audio or video, got %s", contentType)
	}
	if ext == "" {
		if m := mimetype.Lookup(contentType); m != nil {
			ext = m.Extension()
		}
	}
	return body, contentType, ext, nil
}

// rewind returns r positioned at its start, seeking when it can.
func rewind(r io.Reader, head []byte) io.Reader {
	if rs, ok := r.(io.ReadSeeker); ok {
		if _, err := rs.Seek(0, io.SeekStart); err == nil {
			return rs
		}
	}
	return io.MultiReader(bytes.NewReader(head), r)
}

func extension(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
