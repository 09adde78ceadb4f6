package transport

import (
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/imtaco/livecast/auth"
	"github.com/imtaco/livecast/internal/errors"
	"github.com/imtaco/livecast/internal/httputil"
	"github.com/imtaco/livecast/internal/log"
	"github.com/imtaco/livecast/internal/validation"
	"github.com/imtaco/livecast/sessions"
)

const formFileField = "file"

type Config struct {
	AllowedOrigins []string
	// MaxBodyBytes caps every request body. Zero means no cap.
	MaxBodyBytes int64
	// FilesRoot is served under /files when set.
	FilesRoot string
}

type Router struct {
	manager  sessions.Manager
	capturer sessions.Capturer
	verifier auth.Verifier
	engine   *gin.Engine
	cfg      Config
	logger   *log.Logger
}

func NewRouter(
	manager sessions.Manager,
	capturer sessions.Capturer,
	verifier auth.Verifier,
	cfg Config,
	logger *log.Logger,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(otelgin.Middleware("livecast-api"))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r := &Router{
		manager:  manager,
		capturer: capturer,
		verifier: verifier,
		engine:   engine,
		cfg:      cfg,
		logger:   logger,
	}

	r.engine.Use(func(c *gin.Context) {
		r.logger.Debug("Incoming request",
			log.String("method", c.Request.Method),
			log.String("url", c.Request.URL.String()))
		if cfg.MaxBodyBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxBodyBytes)
		}
		c.Next()
	})

	r.setupRoutes()
	return r
}

func (r *Router) Handler() http.Handler {
	return r.engine
}

func (r *Router) setupRoutes() {
	owner := r.engine.Group("/sessions",
		auth.Middleware(r.verifier),
		auth.RequireRole(auth.RoleBroadcaster))
	owner.POST("/start", r.startSession)
	owner.POST("/:id/recording", r.uploadRecording)
	owner.POST("/:id/end", r.endSession)

	r.engine.GET("/sessions/live", r.listLive)
	r.engine.GET("/sessions/recordings", r.listRecordings)
	r.engine.GET("/sessions/:id", r.getSession)

	if r.cfg.FilesRoot != "" {
		r.engine.Static("/files", r.cfg.FilesRoot)
	}

	r.engine.GET("/health", r.healthCheck)
}

func (r *Router) fail(c *gin.Context, err error, msg string) {
	if errors.KindOf(err) == errors.ErrServer || errors.KindOf(err) == errors.ErrUpload {
		r.logger.Error(msg, log.String("path", c.FullPath()), log.Error(err))
	}
	httputil.AbortWithError(c, err, nil)
}

func bindFailed(c *gin.Context, err error) {
	httputil.AbortWithError(c,
		errors.New(errors.ErrValidation, "validation failed"),
		validation.FormatValidationError(err))
}

func (r *Router) startSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	id, _ := auth.Current(c)
	sess, err := r.manager.StartSession(c.Request.Context(), id, sessions.StartParams{
		Title:       req.Title,
		Description: req.Description,
		PlaybackURL: req.PlaybackURL,
	})
	if err != nil {
		r.fail(c, err, "Failed to start session")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"session": sess,
	})
}

// formFile returns the uploaded file, or nil when the request has none.
func formFile(c *gin.Context) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(formFileField)
	if err == nil {
		return fh, nil
	}
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if _, ok := errors.As[*http.MaxBytesError](err); ok {
		return nil, errors.New(errors.ErrValidation, "recording is too large")
	}
	return nil, errors.Wrap(errors.ErrValidation, err, "invalid multipart body")
}

func blobOf(fh *multipart.FileHeader) (sessions.Blob, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return sessions.Blob{}, nil, errors.Wrap(errors.ErrServer, err, "open uploaded file")
	}
	return sessions.Blob{
		Reader:      f,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Filename:    fh.Filename,
	}, func() { _ = f.Close() }, nil
}

func (r *Router) uploadRecording(c *gin.Context) {
	var uri SessionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindFailed(c, err)
		return
	}

	fh, err := formFile(c)
	if err != nil {
		r.fail(c, err, "Failed to read recording")
		return
	}
	if fh == nil {
		httputil.AbortWithError(c, errors.New(errors.ErrValidation, "file is required"), nil)
		return
	}
	blob, done, err := blobOf(fh)
	if err != nil {
		r.fail(c, err, "Failed to read recording")
		return
	}
	defer done()

	id, _ := auth.Current(c)
	sess, err := r.capturer.Capture(c.Request.Context(), uri.ID, id, blob)
	if err != nil {
		r.fail(c, err, "Failed to store recording")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": sess,
	})
}

func (r *Router) endSession(c *gin.Context) {
	var uri SessionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindFailed(c, err)
		return
	}
	id, _ := auth.Current(c)
	ctx := c.Request.Context()

	var fh *multipart.FileHeader
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var err error
		if fh, err = formFile(c); err != nil {
			r.fail(c, err, "Failed to read recording")
			return
		}
	}

	var (
		sess *sessions.Session
		err  error
	)
	if fh != nil {
		blob, done, berr := blobOf(fh)
		if berr != nil {
			r.fail(c, berr, "Failed to read recording")
			return
		}
		defer done()
		sess, err = r.capturer.CaptureAndEnd(ctx, uri.ID, id, blob)
	} else {
		sess, err = r.manager.EndSession(ctx, uri.ID, id)
	}
	if err != nil {
		r.fail(c, err, "Failed to end session")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": sess,
	})
}

func (r *Router) listLive(c *gin.Context) {
	list, err := r.manager.ListLive(c.Request.Context())
	if err != nil {
		r.fail(c, err, "Failed to list live sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"count":    len(list),
		"sessions": list,
	})
}

func (r *Router) listRecordings(c *gin.Context) {
	list, err := r.manager.ListEnded(c.Request.Context())
	if err != nil {
		r.fail(c, err, "Failed to list recordings")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"count":    len(list),
		"sessions": list,
	})
}

func (r *Router) getSession(c *gin.Context) {
	var uri SessionURI
	if err := c.ShouldBindUri(&uri); err != nil {
		bindFailed(c, err)
		return
	}

	sess, err := r.manager.GetSession(c.Request.Context(), uri.ID)
	if err != nil {
		r.fail(c, err, "Failed to get session")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": sess,
	})
}

func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "livecast",
		"timestamp": time.Now().Unix(),
	})
}
