package request

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/evgeny-myasishchev/ledger.transfers/pkg/lib-core-golang/diag"
)

var defaultLogger = diag.CreateLogger()

const defaultTimeout = 30 * time.Second

type sendCfg struct {
	logger  diag.Logger
	timeout time.Duration
	headers http.Header
}

// SendOpt is a send specific option
type SendOpt func(cfg *sendCfg)

// WithTimeout sets a timeout of the http client
func WithTimeout(timeout time.Duration) SendOpt {
	return func(cfg *sendCfg) {
		cfg.timeout = timeout
	}
}

// WithHeader adds the header to the request
func WithHeader(name string, value string) SendOpt {
	return func(cfg *sendCfg) {
		cfg.headers.Add(name, value)
	}
}

// ReqFactory is a function that creates an instance of a request
type ReqFactory func() (*http.Request, error)

// Get creates a new req factory that creates a get request for given url
func Get(url string) ReqFactory {
	return func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, url, nil)
	}
}

// PostJSON creates a new req factory that posts json encoded payload to given url
func PostJSON(url string, payload interface{}) ReqFactory {
	return func() (*http.Request, error) {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to marshal payload")
		}
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("content-type", "application/json")
		return req, nil
	}
}

// ResFactory is a function that holds a request result with a response or error
type ResFactory func() (*http.Response, error)

// ReadAll will read entire body as a byte array
func (f ResFactory) ReadAll() ([]byte, error) {
	res, err := f()
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	return ioutil.ReadAll(res.Body)
}

// DecodeJSON will decode the body into a given receiver
func (f ResFactory) DecodeJSON(receiver interface{}) error {
	res, err := f()
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(receiver); err != nil && err != io.EOF {
		return errors.Wrap(err, "Failed to decode response body")
	}
	return nil
}

func newResFactory(res *http.Response, err error) ResFactory {
	return func() (*http.Response, error) {
		if err != nil {
			return nil, err
		}
		if res.StatusCode >= 300 {
			return nil, NewHTTPErrorFromResponse(res)
		}
		return res, nil
	}
}

// Do will send the request. Will fail if response status is other than 2xx
func Do(ctx context.Context, factory ReqFactory, opts ...SendOpt) ResFactory {
	cfg := sendCfg{
		logger:  defaultLogger,
		timeout: defaultTimeout,
		headers: http.Header{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	httpClient := &http.Client{
		Transport: http.DefaultTransport,
		Timeout:   cfg.timeout,
	}
	req, err := factory()
	if err != nil {
		return newResFactory(nil, err)
	}
	for name, values := range cfg.headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	if requestID := diag.RequestIDValue(ctx); requestID != "" {
		req.Header.Set("x-request-id", requestID)
	}
	cfg.logger.Debug(ctx, "Sending %v %v", req.Method, req.URL.Redacted())
	res, err := httpClient.Do(req.WithContext(ctx))
	if err != nil {
		cfg.logger.WithError(err).Warn(ctx, "Request %v %v failed", req.Method, req.URL.Redacted())
		return newResFactory(nil, err)
	}
	cfg.logger.Debug(ctx, "Received %v response", res.StatusCode)
	return newResFactory(res, nil)
}
