package httpx

import (
    "context"
    "errors"
    "io"
    "net/http"
    "net/http/httptest"
    "net/url"
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
)

func TestReadOK_NonOKHidesQuery(t *testing.T) {
    req, err := http.NewRequest(http.MethodGet, "https://example.test/v1/latest?api_key=secret", nil)
    require.NoError(t, err)
    resp := &http.Response{StatusCode: http.StatusTooManyRequests, Request: req, Body: io.NopCloser(strings.NewReader("slow down"))}

    _, err = ReadOK(resp, 1<<10)

    var se *StatusError
    require.ErrorAs(t, err, &se)
    require.Equal(t, http.StatusTooManyRequests, se.Code)
    require.Equal(t, "slow down", se.Body)
    require.NotContains(t, err.Error(), "secret")
}

func TestReadOK_LimitsBody(t *testing.T) {
    resp := &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("0123456789"))}

    b, err := ReadOK(resp, 4)

    require.NoError(t, err)
    require.Equal(t, "0123", string(b))
}

func TestStripURL(t *testing.T) {
    inner := errors.New("connection refused")
    err := StripURL(&url.Error{Op: "Get", URL: "https://x.test/?apikey=secret", Err: inner})

    require.ErrorIs(t, err, inner)
    require.NotContains(t, err.Error(), "secret")
    require.Equal(t, inner, StripURL(inner))
}

func TestClient_SetsUserAgent(t *testing.T) {
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        _, _ = io.WriteString(w, r.Header.Get("User-Agent"))
    }))
    defer srv.Close()
    c := New(2 * time.Second)

    for _, tc := range []struct{ set, want string }{
        {"", "priceboard/1.0"},
        {"custom/2", "custom/2"},
    } {
        req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL, nil)
        require.NoError(t, err)
        if tc.set != "" { req.Header.Set("User-Agent", tc.set) }
        resp, err := c.Do(req)
        require.NoError(t, err)
        b, err := ReadOK(resp, 1<<10)

        require.NoError(t, err)
        require.Equal(t, tc.want, string(b))
    }
}
