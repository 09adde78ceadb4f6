package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/log"
)

const testKey = "recordings/s1/recording_1700000000000.webm"

type LocalTestSuite struct {
	suite.Suite
	ctx   context.Context
	dir   string
	local *Local
}

func TestLocalSuite(t *testing.T) {
	suite.Run(t, new(LocalTestSuite))
}

func (s *LocalTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.dir = s.T().TempDir()
	l, err := NewLocal(LocalConfig{BasePath: s.dir, PublicURL: "http://localhost:8080/files/"})
	s.Require().NoError(err)
	s.local = l
}

func (s *LocalTestSuite) TestUploadWritesAndReturnsURL() {
	url, err := s.local.Upload(s.ctx, testKey, strings.NewReader("webm bytes"), 10, "video/webm")
	s.Require().NoError(err)
	s.Equal("http://localhost:8080/files/"+testKey, url)

	bs, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(testKey)))
	s.Require().NoError(err)
	s.Equal("webm bytes", string(bs))

	entries, err := os.ReadDir(filepath.Join(s.dir, "recordings", "s1"))
	s.Require().NoError(err)
	s.Len(entries, 1, "temp file left behind")
}

func (s *LocalTestSuite) TestUploadEscapesKey() {
	url, err := s.local.Upload(s.ctx, "recordings/a b/x.webm", strings.NewReader("x"), 1, "")
	s.Require().NoError(err)
	s.Equal("http://localhost:8080/files/recordings/a%20b/x.webm", url)
}

func (s *LocalTestSuite) TestRejectsEscapingKeys() {
	for _, key := range []string{"../etc/passwd", "..", "/abs/path", "."} {
		_, err := s.local.Upload(s.ctx, key, strings.NewReader("x"), 1, "")
		s.True(errors.Is(err, errors.ErrValidation), key)
	}
}

func (s *LocalTestSuite) TestFailedReadLeavesNothing() {
	_, err := s.local.Upload(s.ctx, testKey, io.MultiReader(strings.NewReader("part"), failingReader{}), 10, "")
	s.True(errors.Is(err, errors.ErrUpload))

	entries, err := os.ReadDir(filepath.Join(s.dir, "recordings", "s1"))
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *LocalTestSuite) TestDelete() {
	_, err := s.local.Upload(s.ctx, testKey, strings.NewReader("x"), 1, "")
	s.Require().NoError(err)

	s.NoError(s.local.Delete(s.ctx, testKey))
	_, err = os.Stat(filepath.Join(s.dir, filepath.FromSlash(testKey)))
	s.True(os.IsNotExist(err))

	// deleting again is fine
	s.NoError(s.local.Delete(s.ctx, testKey))
}

func (s *LocalTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := s.local.Upload(ctx, testKey, strings.NewReader("x"), 1, "")
	s.True(errors.Is(err, errors.ErrUpload))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

type HTTPTestSuite struct {
	suite.Suite
	ctx     context.Context
	srv     *httptest.Server
	handler http.HandlerFunc

	mu       sync.Mutex
	form     map[string]string
	file     string
	fileName string
	fileType string
}

func TestHTTPSuite(t *testing.T) {
	suite.Run(t, new(HTTPTestSuite))
}

func (s *HTTPTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.form = map[string]string{}
	s.handler = s.cloudinary
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.handler(w, r)
	}))
}

func (s *HTTPTestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *HTTPTestSuite) cloudinary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.URL.Path {
	case "/upload":
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for k := range r.MultipartForm.Value {
			s.form[k] = r.FormValue(k)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		bs, _ := io.ReadAll(f)
		s.file = string(bs)
		s.fileName = hdr.Filename
		s.fileType = hdr.Header.Get("Content-Type")
		s.form["auth"] = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"public_id":  s.form["public_id"],
			"url":        "http://cdn.example.com/v1/" + s.form["public_id"] + ".webm",
			"secure_url": "https://cdn.example.com/v1/" + s.form["public_id"] + ".webm",
		})
	case "/destroy":
		_ = r.ParseForm()
		s.form["destroyed"] = r.PostFormValue("public_id")
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *HTTPTestSuite) newHTTP(destroy bool) *HTTP {
	cfg := HTTPConfig{
		URL:          s.srv.URL + "/upload",
		Token:        "secret",
		UploadPreset: "recordings",
		Folder:       "live_stream_videos",
		Timeout:      5 * time.Second,
	}
	if destroy {
		cfg.DestroyURL = s.srv.URL + "/destroy"
	}
	h, err := NewHTTP(cfg, log.NewTest(s.T()))
	s.Require().NoError(err)
	return h
}

func (s *HTTPTestSuite) TestUploadPostsMultipart() {
	h := s.newHTTP(false)

	url, err := h.Upload(s.ctx, testKey, strings.NewReader("webm bytes"), 10, "video/webm")
	s.Require().NoError(err)
	s.Equal("https://cdn.example.com/v1/recordings/s1/recording_1700000000000.webm", url)

	s.Equal("webm bytes", s.file)
	s.Equal("recording_1700000000000.webm", s.fileName)
	s.Equal("video/webm", s.fileType)
	s.Equal("recordings/s1/recording_1700000000000", s.form["public_id"])
	s.Equal("live_stream_videos", s.form["folder"])
	s.Equal("recordings", s.form["upload_preset"])
	s.Equal("Bearer secret", s.form["auth"])
}

func (s *HTTPTestSuite) TestFallsBackToPlainURL() {
	s.handler = func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"http://cdn.example.com/x.webm"}`))
	}
	url, err := s.newHTTP(false).Upload(s.ctx, testKey, strings.NewReader("x"), 1, "video/webm")
	s.Require().NoError(err)
	s.Equal("http://cdn.example.com/x.webm", url)
}

func (s *HTTPTestSuite) TestErrors() {
	s.Run("refused", func() {
		s.handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}
		_, err := s.newHTTP(false).Upload(s.ctx, testKey, strings.NewReader("x"), 1, "video/webm")
		s.True(errors.Is(err, errors.ErrUpload))
	})

	s.Run("no url", func() {
		s.handler = func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{}`))
		}
		_, err := s.newHTTP(false).Upload(s.ctx, testKey, strings.NewReader("x"), 1, "video/webm")
		s.True(errors.Is(err, errors.ErrUpload))
	})

	s.Run("unreachable", func() {
		h := s.newHTTP(false)
		s.srv.Close()
		_, err := h.Upload(s.ctx, testKey, strings.NewReader("x"), 1, "video/webm")
		s.True(errors.Is(err, errors.ErrUpload))
	})
}

func (s *HTTPTestSuite) TestDelete() {
	s.NoError(s.newHTTP(false).Delete(s.ctx, testKey))
	s.NotContains(s.form, "destroyed")

	s.NoError(s.newHTTP(true).Delete(s.ctx, testKey))
	s.Equal("recordings/s1/recording_1700000000000", s.form["destroyed"])
}

func (s *HTTPTestSuite) TestRequiresURL() {
	_, err := NewHTTP(HTTPConfig{}, log.NewNop())
	s.True(errors.Is(err, errors.ErrValidation))
}

type s3Request struct {
	Method      string
	Path        string
	ContentType string
	Body        string
}

type S3TestSuite struct {
	suite.Suite
	ctx    context.Context
	srv    *httptest.Server
	status int
	reqs   chan s3Request
}

func TestS3Suite(t *testing.T) {
	suite.Run(t, new(S3TestSuite))
}

func (s *S3TestSuite) SetupTest() {
	s.ctx = context.Background()
	s.status = http.StatusOK
	s.reqs = make(chan s3Request, 4)
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bs, _ := io.ReadAll(r.Body)
		s.reqs <- s3Request{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(bs),
		}
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(s.status)
	}))
}

func (s *S3TestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *S3TestSuite) newS3(publicURL string) *S3 {
	st, err := NewS3(s.ctx, S3Config{
		Endpoint:        s.srv.URL,
		Region:          "us-east-1",
		Bucket:          "recordings",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		UsePathStyle:    true,
		PublicURL:       publicURL,
	})
	s.Require().NoError(err)
	return st
}

func (s *S3TestSuite) TestUploadPutsObject() {
	url, err := s.newS3("").Upload(s.ctx, testKey, bytes.NewReader([]byte("webm bytes")), 10, "video/webm")
	s.Require().NoError(err)
	s.Equal(s.srv.URL+"/recordings/"+testKey, url)

	req := <-s.reqs
	s.Equal(http.MethodPut, req.Method)
	s.Equal("/recordings/"+testKey, req.Path)
	s.Equal("video/webm", req.ContentType)
	s.Equal("webm bytes", req.Body)
}

func (s *S3TestSuite) TestPublicURL() {
	url, err := s.newS3("https://media.example.com/").Upload(s.ctx, testKey, bytes.NewReader([]byte("x")), 1, "video/webm")
	s.Require().NoError(err)
	s.Equal("https://media.example.com/"+testKey, url)
}

func (s *S3TestSuite) TestUploadFailure() {
	s.status = http.StatusForbidden
	_, err := s.newS3("").Upload(s.ctx, testKey, bytes.NewReader([]byte("x")), 1, "video/webm")
	s.True(errors.Is(err, errors.ErrUpload))
}

func (s *S3TestSuite) TestDelete() {
	s.NoError(s.newS3("").Delete(s.ctx, testKey))
	req := <-s.reqs
	s.Equal(http.MethodDelete, req.Method)
	s.Equal("/recordings/"+testKey, req.Path)
}

func (s *S3TestSuite) TestRequiresBucket() {
	_, err := NewS3(s.ctx, S3Config{})
	s.True(errors.Is(err, errors.ErrValidation))
}

func (s *S3TestSuite) TestObjectBaseURL() {
	s.Equal("https://b.s3.eu-west-1.amazonaws.com", objectBaseURL(S3Config{Bucket: "b", Region: "eu-west-1"}))
	s.Equal("http://minio:9000/b", objectBaseURL(S3Config{Bucket: "b", Endpoint: "http://minio:9000/", UsePathStyle: true}))
	s.Equal("https://cdn", objectBaseURL(S3Config{Bucket: "b", PublicURL: "https://cdn/"}))
}

type stubUploader struct {
	err error
}

func (u *stubUploader) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	if u.err != nil {
		return "", u.err
	}
	return "mem://" + key, nil
}

func (u *stubUploader) Delete(context.Context, string) error {
	return u.err
}

type StorageTestSuite struct {
	suite.Suite
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageTestSuite))
}

func (s *StorageTestSuite) TestInstrumentPassesThrough() {
	u := Instrument(DriverLocal, &stubUploader{})
	url, err := u.Upload(context.Background(), "k", strings.NewReader("abc"), 3, "")
	s.Require().NoError(err)
	s.Equal("mem://k", url)
	s.NoError(u.Delete(context.Background(), "k"))

	failing := Instrument(DriverLocal, &stubUploader{err: errors.New(errors.ErrUpload, "down")})
	_, err = failing.Upload(context.Background(), "k", strings.NewReader("abc"), 3, "")
	s.True(errors.Is(err, errors.ErrUpload))
}

func (s *StorageTestSuite) TestNewPicksDriver() {
	u, err := New(context.Background(), Config{
		Driver: DriverLocal,
		Local:  LocalConfig{BasePath: s.T().TempDir(), PublicURL: "http://x/files"},
	}, log.NewNop())
	s.Require().NoError(err)
	s.IsType(&instrumented{}, u)

	_, err = New(context.Background(), Config{Driver: "ftp"}, log.NewNop())
	s.True(errors.Is(err, errors.ErrValidation))
}
