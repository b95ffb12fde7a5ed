package api

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

const (
	connectionHeader  = "Connection"
	contentTypeHeader = "Content-Type"
	userAgentHeader   = "User-Agent"

	keepAlive = "Keep-Alive"
)

// exchange performs the request and returns the raw response body.
// Whatever part of the body was received is returned alongside an error, nil means nothing was received.
func exchange(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "could not perform http call")
	}

	defer resp.Body.Close()

	body, readErr := readBody(resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		cause := errors.Errorf("expected a successful response code, but got %d instead", resp.StatusCode)
		if readErr != nil {
			cause = errors.Wrapf(readErr, "could not read response body, expected a successful response code, but got %d instead", resp.StatusCode)
		}

		return body, HTTPError{
			Err:        cause,
			StatusCode: resp.StatusCode,
		}
	}

	if readErr != nil {
		return body, errors.Wrap(readErr, "could not read response body")
	}

	return body, nil
}

func decodeBody(body []byte, v interface{}) error {
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(err, "could not decode response body")
	}

	return nil
}
