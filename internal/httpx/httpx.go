package httpx

import (
    "errors"
    "fmt"
    "io"
    "net"
    "net/http"
    "net/url"
    "time"
)

// Doer is the subset of *http.Client the provider clients depend on.
//
//go:generate mockgen -package=httpxmock -destination=httpxmock/doer.go -source=httpx.go Doer
type Doer interface {
    Do(req *http.Request) (*http.Response, error)
}

// Client is a small wrapper around http.Client with sane defaults.
type Client struct {
    HTTP      *http.Client
    UserAgent string
}

// New returns a client whose every call is bounded by timeout.
func New(timeout time.Duration) *Client {
    transport := &http.Transport{
        Proxy: http.ProxyFromEnvironment,
        DialContext: (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
        MaxIdleConns:          50,
        MaxIdleConnsPerHost:   10,
        ForceAttemptHTTP2:     true,
        IdleConnTimeout:       90 * time.Second,
        TLSHandshakeTimeout:   3 * time.Second,
        ExpectContinueTimeout: 1 * time.Second,
        ResponseHeaderTimeout: 5 * time.Second,
    }
    return &Client{HTTP: &http.Client{Timeout: timeout, Transport: transport}, UserAgent: "priceboard/1.0"}
}

// Do sends req with the client's User-Agent unless the caller set one. The request context governs cancellation.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
    if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
        req.Header.Set("User-Agent", c.UserAgent)
    }
    return c.HTTP.Do(req)
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
    Method string
    URL    string
    Code   int
    Body   string
}

func (e *StatusError) Error() string {
    return fmt.Sprintf("%s %s -> %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// ReadOK returns the body of a 2xx response, at most limit bytes, and closes it.
// Non-2xx responses become a *StatusError carrying a short body excerpt.
func ReadOK(resp *http.Response, limit int64) ([]byte, error) {
    defer resp.Body.Close()
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
        se := &StatusError{Code: resp.StatusCode, Body: string(b)}
        if resp.Request != nil {
            se.Method = resp.Request.Method
            // query strings carry API keys for some upstreams
            u := *resp.Request.URL
            u.RawQuery = ""
            se.URL = u.Redacted()
        }
        return nil, se
    }
    b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
    if err != nil {
        return nil, fmt.Errorf("read body: %w", err)
    }
    return b, nil
}

// StripURL drops the *url.Error wrapper that net/http puts around transport
// failures, so request URLs (and their api keys) stay out of messages.
func StripURL(err error) error {
    var ue *url.Error
    if errors.As(err, &ue) && ue.Err != nil {
        return fmt.Errorf("%s: %w", ue.Op, ue.Err)
    }
    return err
}
