package tools

import (
	"io"
)

// DrainAndClose lets the transport reuse the connection.
func DrainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
