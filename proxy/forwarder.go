package proxy

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	gwerrors "github.com/jrsteele09/mcp-oauth-gateway/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// UpstreamErrorBody is the JSON body returned when the upstream cannot be reached.
const UpstreamErrorBody = `{"error":"Upstream proxy error"}`

const relayBufferSize = 32 * 1024

// hopHeaders are connection-scoped and never forwarded (RFC 9110 section 7.6.1).
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Outcome is the result of forwarding one request: Forwarded or UpstreamFailed.
type Outcome interface {
	isOutcome()
}

// Forwarded carries the upstream response. The caller must close Body.
type Forwarded struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}

// UpstreamFailed means no upstream response was received. Reason is for logs
// only and is never sent to the client.
type UpstreamFailed struct {
	Reason error
}

func (Forwarded) isOutcome()      {}
func (UpstreamFailed) isOutcome() {}

// Forwarder sends admitted requests to one fixed upstream URL.
type Forwarder struct {
	target *url.URL
	client *http.Client
}

// NewForwarder targets upstreamURL, the upstream origin joined with its path.
// timeout bounds dialing and waiting for response headers; it does not cap
// how long a streamed body may run.
func NewForwarder(upstreamURL string, timeout time.Duration) (*Forwarder, error) {
	target, err := url.Parse(upstreamURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewForwarder] invalid upstream url")
	}
	if target.Scheme != "http" && target.Scheme != "https" || target.Host == "" {
		return nil, errors.Errorf("[NewForwarder] upstream url %q must be absolute http(s)", upstreamURL)
	}

	return &Forwarder{
		target: target,
		client: &http.Client{
			Transport: newTransport(timeout),
			// Upstream redirects are relayed to the client, not followed
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

func newTransport(timeout time.Duration) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if timeout > 0 {
		transport.DialContext = (&net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}).DialContext
		transport.ResponseHeaderTimeout = timeout
	}
	return transport
}

// Target is the upstream URL every request is sent to.
func (f *Forwarder) Target() string {
	return f.target.String()
}

// Forward sends r upstream. The inbound path suffix and query are dropped;
// method, headers and body pass through except Host and hop-by-hop headers.
// ctx should be the inbound request's context so a client disconnect
// cancels the upstream call.
func (f *Forwarder) Forward(ctx context.Context, r *http.Request) Outcome {
	out, err := http.NewRequestWithContext(ctx, r.Method, f.target.String(), r.Body)
	if err != nil {
		return UpstreamFailed{Reason: fmt.Errorf("%w: building request: %w", gwerrors.ErrUpstream, err)}
	}
	if r.Body == nil || r.Body == http.NoBody {
		out.Body = http.NoBody
	}
	out.ContentLength = r.ContentLength
	out.Header = r.Header.Clone()
	removeHopHeaders(out.Header)
	out.Host = f.target.Host

	resp, err := f.client.Do(out)
	if err != nil {
		return UpstreamFailed{Reason: fmt.Errorf("%w: %w", gwerrors.ErrUpstream, err)}
	}

	header := resp.Header.Clone()
	removeHopHeaders(header)
	return Forwarded{Status: resp.StatusCode, Header: header, Body: resp.Body}
}

// ServeHTTP forwards r and relays the outcome.
func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	Relay(w, r, f.Forward(r.Context(), r))
}

// Relay writes an Outcome to w. Upstream failure before any byte is written
// becomes 502 with UpstreamErrorBody. A failure while streaming the body
// aborts the connection, since the status line has already been sent.
func Relay(w http.ResponseWriter, r *http.Request, outcome Outcome) {
	switch o := outcome.(type) {
	case UpstreamFailed:
		if r.Context().Err() == nil {
			log.Warn().Err(o.Reason).Str("method", r.Method).Msg("upstream request failed")
		}
		writeUpstreamError(w)

	case Forwarded:
		defer o.Body.Close()

		// Upstream values replace any the gateway set for the same header
		for k, vs := range o.Header {
			w.Header()[k] = append([]string(nil), vs...)
		}
		w.WriteHeader(o.Status)

		if err := copyFlushing(w, o.Body); err != nil {
			log.Warn().Err(err).Str("method", r.Method).Msg("upstream response interrupted")
			panic(http.ErrAbortHandler)
		}

	default:
		panic(fmt.Sprintf("proxy: unknown outcome %T", outcome))
	}
}

func writeUpstreamError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	_, _ = io.WriteString(w, UpstreamErrorBody)
}

// copyFlushing copies body to w, flushing after each read so streamed
// responses (SSE) reach the client as they are produced.
func copyFlushing(w http.ResponseWriter, body io.Reader) error {
	rc := http.NewResponseController(w)
	buf := make([]byte, relayBufferSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return err
			}
			if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return err
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

func removeHopHeaders(h http.Header) {
	// Headers named in Connection are hop-by-hop too
	for _, field := range h.Values("Connection") {
		for _, name := range strings.Split(field, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopHeaders {
		h.Del(name)
	}
}
