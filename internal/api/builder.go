package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

type requestBuilder struct {
	ctx     context.Context
	method  string
	url     string
	query   url.Values
	body    interface{}
	headers map[string]string
}

func newRequestBuilder(ctx context.Context, method, url string) *requestBuilder {
	return &requestBuilder{
		ctx:     ctx,
		method:  method,
		url:     url,
		headers: make(map[string]string),
	}
}

func (r *requestBuilder) withBody(body interface{}) *requestBuilder {
	r.body = body

	return r
}

func (r *requestBuilder) withQuery(query url.Values) *requestBuilder {
	r.query = query

	return r
}

func (r *requestBuilder) addHeader(key, value string) *requestBuilder {
	r.headers[key] = value

	return r
}

func (r *requestBuilder) build() (*http.Request, error) {
	var body io.Reader

	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return nil, err
		}

		body = bytes.NewReader(b)
	}

	u := r.url
	if len(r.query) != 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(r.ctx, r.method, u, body)
	if err != nil {
		return nil, err
	}

	for key, value := range r.headers {
		req.Header.Set(key, value)
	}

	return req, nil
}
