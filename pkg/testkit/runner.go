package testkit

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	outbound "github.com/Rasmogul/greatsoko/pkg/http"
)

// Env is what scenarios run against.
type Env struct {
	Handler http.Handler
	// Tokens maps a scenario's "as" to a bearer token.
	Tokens map[string]string
	// Vars fills "{{name}}" placeholders.
	Vars map[string]string
	// Notifier records notices for "notify" steps. May be nil when no
	// scenario asserts notifications.
	Notifier *Notifier
}

// Run executes every scenario in file as ordered subtests.
func Run(t *testing.T, env *Env, file string) {
	t.Helper()
	list, err := Load(file)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range list {
		if !t.Run(s.Name, func(t *testing.T) { runScenario(t, env, s) }) {
			return
		}
	}
}

// RunDir runs every *.json file in dir, one subtest per file.
func RunDir(t *testing.T, env *Env, dir string) {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(files) == 0 {
		t.Fatalf("testkit: no scenario files in %q", dir)
	}
	for _, f := range files {
		t.Run(strings.TrimSuffix(filepath.Base(f), ".json"), func(t *testing.T) { Run(t, env, f) })
	}
}

func runScenario(t *testing.T, env *Env, s *Scenario) {
	t.Helper()

	body, err := s.RequestBody()
	if err != nil {
		t.Fatalf("[%s] request body: %v", s.Name, err)
	}

	mt := NewMockTransport(s.Mocks)
	outbound.DefaultClient.Transport = mt
	defer outbound.ResetTransport()

	if env.Notifier != nil {
		env.Notifier.Reset()
	}

	req := httptest.NewRequest(strings.ToUpper(s.Method), env.expand(s.URL), bytes.NewReader([]byte(env.expand(string(body)))))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.As != "" {
		token, ok := env.Tokens[s.As]
		if !ok {
			t.Fatalf("[%s] no token for %q", s.Name, s.As)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	env.Handler.ServeHTTP(rec, req)

	assert.Equal(t, s.ExpectedCode, rec.Code, "[%s] status\nbody: %s", s.Name, rec.Body.String())

	expected, err := s.Expected()
	if err != nil {
		t.Errorf("[%s] expectation: %v", s.Name, err)
	} else if len(expected) > 0 {
		AssertSubset(t, s.Name, []byte(env.expand(string(expected))), rec.Body.Bytes())
	}

	for _, e := range mt.Uncalled() {
		assert.NoError(t, e, "[%s]", s.Name)
	}
	assertNotices(t, env.Notifier, s)
}

func (e *Env) expand(s string) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	for k, v := range e.Vars {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}

func assertNotices(t *testing.T, n *Notifier, s *Scenario) {
	t.Helper()
	for _, m := range s.Mocks {
		if m.Kind != KindNotify {
			continue
		}
		if n == nil {
			t.Errorf("[%s] notify step without an Env.Notifier", s.Name)
			return
		}
		got := n.Matching(m.Subject, m.Recipient)
		assert.Len(t, got, m.times(), "[%s] notices with subject %q", s.Name, m.Subject)
	}
}
