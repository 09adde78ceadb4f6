package errors

// Domain error kinds shared by the HTTP and signaling boundaries.
const (
	ErrValidation   Code = "validation error"
	ErrUnauthorized Code = "unauthorized"
	ErrForbidden    Code = "forbidden"
	ErrNotFound     Code = "not found"
	ErrConflict     Code = "conflict"
	ErrPrecondition Code = "precondition failed"
	ErrUpload       Code = "upload error"
	ErrServer       Code = "server error"
)

var kinds = []Code{
	ErrValidation,
	ErrUnauthorized,
	ErrForbidden,
	ErrNotFound,
	ErrConflict,
	ErrPrecondition,
	ErrUpload,
	ErrServer,
}

// KindOf returns the domain kind carried by err. Errors without a known kind are
// reported as ErrServer.
func KindOf(err error) Code {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if Is(err, k) {
			return k
		}
	}
	return ErrServer
}

// Message returns the text that is safe to show a client. Server side failures
// never leak their cause.
func Message(err error) string {
	kind := KindOf(err)
	if kind == ErrServer || kind == ErrUpload {
		return string(kind)
	}
	if e, ok := As[*Error](err); ok && e.Err != nil {
		return e.Err.Error()
	}
	return string(kind)
}
