package api

import (
	"fmt"
	"io"
	"strings"
)

// maxSnippetSize bounds the amount of response text kept for diagnostics.
const maxSnippetSize = 64 * 1024

// HTTPError provides a way to pass more meaningful information regarding http errors without breaking interfaces.
type HTTPError struct {
	Err        error
	StatusCode int
	Body       string
}

func (e HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s, status code: %d", e.Err, e.StatusCode)
	}

	return fmt.Sprintf("%s, status code: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e HTTPError) Unwrap() error {
	return e.Err
}

// MissingFieldError reports a response that decoded correctly but lacks a required field.
type MissingFieldError struct {
	Field string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("response does not contain required field %q", e.Field)
}

// AuthenticationError is returned when the access token handshake or the user profile fetch fails.
// It always carries the original cause. Response holds whatever response text could be captured
// and is only meaningful when HasResponse is set.
type AuthenticationError struct {
	Op          string
	Host        string
	SiteCode    string
	Response    string
	HasResponse bool
	Err         error
}

func (e *AuthenticationError) Error() string {
	var b strings.Builder

	b.WriteString("authentication failed")

	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}

	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}

	fmt.Fprintf(&b, " (host: %s, site code: %s)", e.Host, e.SiteCode)

	if e.HasResponse {
		fmt.Fprintf(&b, ", response: %s", e.Response)
	}

	return b.String()
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Format prints the cause with its stack trace for %+v.
func (e *AuthenticationError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') && e.Err != nil {
			_, _ = io.WriteString(s, e.Error())
			_, _ = fmt.Fprintf(s, "\ncaused by: %+v", e.Err)

			return
		}

		_, _ = io.WriteString(s, e.Error())
	case 's':
		_, _ = io.WriteString(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// withResponse attaches the captured response text. A nil body means nothing could be captured.
func (e *AuthenticationError) withResponse(body []byte) *AuthenticationError {
	if body == nil {
		return e
	}

	if len(body) > maxSnippetSize {
		body = body[:maxSnippetSize]
	}

	e.Response = string(body)
	e.HasResponse = true

	return e
}

// readBody reads the whole body. On a read failure the bytes received so far are
// returned together with the error.
func readBody(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, nil
	}

	b, err := io.ReadAll(r)
	if err != nil && len(b) == 0 {
		return nil, err
	}

	return b, err
}
