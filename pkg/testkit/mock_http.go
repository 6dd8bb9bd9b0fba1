package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockTransport answers outgoing pkg/http calls from "http" mock steps.
// Unmatched requests fail, so a scenario never reaches the network.
//
//	mt := testkit.NewMockTransport(steps)
//	outbound.DefaultClient.Transport = mt
//	defer outbound.ResetTransport()
type MockTransport struct {
	mu    sync.Mutex
	steps []httpStep
}

type httpStep struct {
	MockStep
	calls int
}

func NewMockTransport(steps []MockStep) *MockTransport {
	mt := &MockTransport{}
	for _, s := range steps {
		if s.Kind == KindHTTP {
			mt.steps = append(mt.steps, httpStep{MockStep: s})
		}
	}
	return mt
}

func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	for i := range mt.steps {
		st := &mt.steps[i]
		if st.MatchURL != "" && !strings.HasPrefix(req.URL.String(), st.MatchURL) {
			continue
		}
		st.calls++

		code := st.Status
		if code == 0 {
			code = http.StatusOK
		}
		header := make(http.Header)
		header.Set("Content-Type", "application/json")
		return &http.Response{
			StatusCode: code,
			Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
			Header:     header,
			Body:       io.NopCloser(bytes.NewReader(st.Body)),
			Request:    req,
		}, nil
	}
	return nil, fmt.Errorf("testkit: unexpected outgoing call to %s", req.URL)
}

// Calls reports how many requests matched the step for matchURL.
func (mt *MockTransport) Calls(matchURL string) int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	n := 0
	for _, st := range mt.steps {
		if st.MatchURL == matchURL {
			n += st.calls
		}
	}
	return n
}

// Uncalled returns an error per step that matched nothing.
func (mt *MockTransport) Uncalled() []error {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	var errs []error
	for _, st := range mt.steps {
		if st.calls == 0 {
			errs = append(errs, fmt.Errorf("testkit: http mock %q was never called", st.MatchURL))
		}
	}
	return errs
}
