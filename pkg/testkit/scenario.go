// Package testkit drives HTTP API tests from JSON scenario files.
//
// A scenario file holds one scenario object or an array of them; arrays run
// in order against the same handler, so later steps see earlier writes:
//
//	[
//	  {
//	    "name": "checkout the cart",
//	    "as": "alice",
//	    "method": "POST",
//	    "url": "/api/orders",
//	    "body": {"shippingAddress": {...}, "paymentMethod": "Card"},
//	    "expectedCode": 201,
//	    "expect": {"data": {"itemsPrice": 20, "totalPrice": 28}},
//	    "mocks": [{"kind": "notify", "subject": "Your order has been placed"}]
//	  }
//	]
//
// "{{name}}" placeholders in url and body are replaced from Env.Vars, and
// "as" picks a bearer token from Env.Tokens. "expect" is matched as a
// subset of the response body; the string "*" matches any non-null value.
package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Scenario is one request and what should come back.
type Scenario struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	As          string            `json:"as"`
	Method      string            `json:"method"`
	URL         string            `json:"url"`
	Headers     map[string]string `json:"headers"`
	Body        json.RawMessage   `json:"body"`
	BodyFile    string            `json:"bodyFile"`

	ExpectedCode int             `json:"expectedCode"`
	Expect       json.RawMessage `json:"expect"`
	ExpectFile   string          `json:"expectFile"`

	Mocks []MockStep `json:"mocks"`

	dir string
}

// Mock kinds.
const (
	KindHTTP   = "http"
	KindNotify = "notify"
)

// MockStep stubs an outgoing HTTP call or asserts a notification.
//
// For "http", requests whose URL starts with MatchURL get Status and Body.
// For "notify", the scenario must send Times notices (default 1) with the
// given Subject, and Recipient when set.
type MockStep struct {
	Kind string `json:"kind"`

	MatchURL string          `json:"matchUrl"`
	Status   int             `json:"status"`
	Body     json.RawMessage `json:"body"`

	Subject   string `json:"subject"`
	Recipient string `json:"recipient"`
	Times     *int   `json:"times"`
}

func (m MockStep) times() int {
	if m.Times == nil {
		return 1
	}
	return *m.Times
}

// Load reads a scenario file holding one object or an array.
func Load(path string) ([]*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var list []*Scenario
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var one Scenario
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
		}
		list = []*Scenario{&one}
	} else if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}

	for i, s := range list {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("testkit: %q scenario %d: %w", abs, i, err)
		}
		s.dir = filepath.Dir(abs)
	}
	return list, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("url is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.Method == "" {
		s.Method = "GET"
	}
	for i, m := range s.Mocks {
		if m.Kind != KindHTTP && m.Kind != KindNotify {
			return fmt.Errorf("mocks[%d]: unknown kind %q", i, m.Kind)
		}
	}
	return nil
}

// RequestBody returns the inline body or the contents of BodyFile.
func (s *Scenario) RequestBody() ([]byte, error) {
	if len(s.Body) > 0 {
		return s.Body, nil
	}
	if s.BodyFile == "" {
		return nil, nil
	}
	return os.ReadFile(s.resolve(s.BodyFile))
}

// Expected returns the inline expectation or the contents of ExpectFile.
func (s *Scenario) Expected() ([]byte, error) {
	if len(s.Expect) > 0 {
		return s.Expect, nil
	}
	if s.ExpectFile == "" {
		return nil, nil
	}
	return os.ReadFile(s.resolve(s.ExpectFile))
}

func (s *Scenario) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}
