package proxy_test

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/mcp-oauth-gateway/proxy"
	"github.com/stretchr/testify/require"
)

func newForwarder(t *testing.T, upstream string) *proxy.Forwarder {
	t.Helper()
	f, err := proxy.NewForwarder(upstream, 2*time.Second)
	require.NoError(t, err)
	return f
}

func TestNewForwarder_InvalidTarget(t *testing.T) {
	_, err := proxy.NewForwarder("mcp.example.com/mcp", time.Second)
	require.Error(t, err)
	_, err = proxy.NewForwarder("ftp://mcp.example.com/mcp", time.Second)
	require.Error(t, err)
}

func TestForwarder_PassesRequestThrough(t *testing.T) {
	type seen struct {
		method, path, query, host, auth, session, conn, body string
	}
	got := make(chan seen, 1)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- seen{
			method:  r.Method,
			path:    r.URL.Path,
			query:   r.URL.RawQuery,
			host:    r.Host,
			auth:    r.Header.Get("Authorization"),
			session: r.Header.Get("Mcp-Session-Id"),
			conn:    r.Header.Get("X-Hop"),
			body:    string(body),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Mcp-Session-Id", "s-1")
		w.WriteHeader(http.StatusAccepted)
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","id":1,"result":{}}`)
	}))
	defer upstream.Close()

	f := newForwarder(t, upstream.URL+"/mcp")

	payload := `{"jsonrpc":"2.0","id":1,"method":"initialize"}`
	req := httptest.NewRequest(http.MethodPost, "http://gw.example.com/mcp/extra?debug=1", strings.NewReader(payload))
	req.Header.Set("Authorization", "Bearer abc")
	req.Header.Set("Mcp-Session-Id", "s-1")
	req.Header.Set("Connection", "X-Hop")
	req.Header.Set("X-Hop", "drop-me")
	rec := httptest.NewRecorder()

	f.ServeHTTP(rec, req)

	s := <-got
	require.Equal(t, http.MethodPost, s.method)
	require.Equal(t, "/mcp", s.path)
	require.Empty(t, s.query)
	require.Equal(t, strings.TrimPrefix(upstream.URL, "http://"), s.host)
	require.Equal(t, "Bearer abc", s.auth)
	require.Equal(t, "s-1", s.session)
	require.Empty(t, s.conn)
	require.Equal(t, payload, s.body)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "s-1", rec.Header().Get("Mcp-Session-Id"))
	require.Equal(t, `{"jsonrpc":"2.0","id":1,"result":{}}`, rec.Body.String())
}

func TestForwarder_RelaysErrorsVerbatim(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "upstream says no")
	}))
	defer upstream.Close()

	rec := httptest.NewRecorder()
	newForwarder(t, upstream.URL+"/mcp").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, `Bearer error="invalid_token"`, rec.Header().Get("WWW-Authenticate"))
	require.Equal(t, "upstream says no", rec.Body.String())
}

func TestForwarder_UnreachableUpstream(t *testing.T) {
	// Reserve a port then close it so nothing is listening
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	f := newForwarder(t, "http://"+addr+"/mcp")

	outcome := f.Forward(context.Background(), httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}")))
	failed, ok := outcome.(proxy.UpstreamFailed)
	require.True(t, ok)
	require.Error(t, failed.Reason)

	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}")))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, proxy.UpstreamErrorBody, rec.Body.String())
	require.NotContains(t, rec.Body.String(), addr)
}

func TestForwarder_StreamsEvents(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "data: first\n\n")
		w.(http.Flusher).Flush()
		<-release
		_, _ = io.WriteString(w, "data: second\n\n")
	}))
	defer upstream.Close()

	gateway := httptest.NewServer(newForwarder(t, upstream.URL+"/mcp"))
	defer gateway.Close()

	resp, err := http.Get(gateway.URL + "/mcp")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// The first event arrives while the upstream is still holding the stream open
	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "data: first\n", line)

	close(release)
	rest, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, "\ndata: second\n\n", string(rest))
}

func TestForwarder_UpstreamDropAfterHeadersAbortsConnection(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "data: first\n\n")
		rc := http.NewResponseController(w)
		_ = rc.Flush()

		// Drop the connection before the chunked body is terminated
		conn, _, err := rc.Hijack()
		if err != nil {
			return
		}
		_ = conn.Close()
	}))
	defer upstream.Close()

	gateway := httptest.NewServer(newForwarder(t, upstream.URL+"/mcp"))
	defer gateway.Close()

	resp, err := http.Get(gateway.URL + "/mcp")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Equal(t, "data: first\n\n", string(body))
	require.NotContains(t, string(body), proxy.UpstreamErrorBody)
}

func TestForwarder_ClientCancelStopsUpstream(t *testing.T) {
	upstreamDone := make(chan error, 1)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		upstreamDone <- r.Context().Err()
	}))
	defer upstream.Close()

	f := newForwarder(t, upstream.URL+"/mcp")

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan proxy.Outcome, 1)
	go func() {
		result <- f.Forward(ctx, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case outcome := <-result:
		_, failed := outcome.(proxy.UpstreamFailed)
		require.True(t, failed)
	case <-time.After(5 * time.Second):
		t.Fatal("forward did not return after cancellation")
	}

	select {
	case err := <-upstreamDone:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("upstream request was not cancelled")
	}
}
