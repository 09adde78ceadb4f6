package transport

// StartSessionRequest is the body of POST /sessions/start.
type StartSessionRequest struct {
	// Title: 1-120 characters after trimming
	Title string `json:"title" binding:"required,title"`
	// Description: up to 500 characters after trimming (optional)
	Description string `json:"description" binding:"description"`
	// PlaybackURL: where viewers fetch the stream, when it is not peer-to-peer (optional)
	PlaybackURL string `json:"playbackUrl,omitempty" binding:"omitempty,url"`
}

// SessionURI is the :id path parameter.
type SessionURI struct {
	ID string `uri:"id" binding:"required,sessionid"`
}
