package testkit_test

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	outbound "github.com/Rasmogul/greatsoko/pkg/http"
	"github.com/Rasmogul/greatsoko/pkg/notification"
	"github.com/Rasmogul/greatsoko/pkg/testkit"
)

// notifyHandler stands in for an application route: it checks the bearer
// token, calls a webhook and sends a notice.
func notifyHandler(n notification.Notifier) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer alice-token" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"status":401,"message":"Not authorized"}`)) //nolint:errcheck
			return
		}

		var in struct{ Note string }
		_ = json.NewDecoder(r.Body).Decode(&in)
		order := strings.Split(r.URL.Path, "/")[2]

		resp, err := outbound.Post("https://hooks.slack.test/services/x").Body(map[string]string{"text": in.Note}).Send()
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		n.Notify(r.Context(), notification.Notice{
			Recipient: "alice@example.com",
			Subject:   "Your order has been delivered",
			Message:   "Your order " + order + " has been delivered.",
		})

		json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
			"status": 200,
			"data":   map[string]any{"order": order, "note": in.Note, "slack": string(resp.Raw)},
		})
	})
}

func TestRunScenarioFile(t *testing.T) {
	n := testkit.NewNotifier()
	env := &testkit.Env{
		Handler:  notifyHandler(n),
		Tokens:   map[string]string{"alice": "alice-token"},
		Vars:     map[string]string{"order": "65a1b2c3d4e5f60718293a4b"},
		Notifier: n,
	}
	testkit.Run(t, env, "testdata/echo.json")
}

func TestLoadRejectsUnknownMockKind(t *testing.T) {
	path := t.TempDir() + "/bad.json"
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"x","url":"/","expectedCode":200,"mocks":[{"kind":"sms"}]}`), 0o644))
	_, err := testkit.Load(path)
	assert.ErrorContains(t, err, `unknown kind "sms"`)
}

func TestSubset(t *testing.T) {
	var exp, act interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"total":28,"items":[{"qty":2}],"id":"*"}}`), &exp))
	require.NoError(t, json.Unmarshal([]byte(`{"status":201,"data":{"total":28,"items":[{"qty":2,"name":"Lens"}],"id":"65a1"}}`), &act))
	assert.Empty(t, testkit.Subset("", exp, act))

	require.NoError(t, json.Unmarshal([]byte(`{"data":{"total":30,"items":[],"id":null}}`), &act))
	diffs := testkit.Subset("", exp, act)
	assert.Len(t, diffs, 3)
}

func TestMockTransportRefusesUnmatchedCalls(t *testing.T) {
	mt := testkit.NewMockTransport([]testkit.MockStep{{Kind: testkit.KindHTTP, MatchURL: "https://hooks.slack.test/"}})
	outbound.DefaultClient.Transport = mt
	defer outbound.ResetTransport()

	_, err := outbound.Get("https://example.com/").Send()
	assert.Error(t, err)
	assert.Len(t, mt.Uncalled(), 1)

	_, err = outbound.Get("https://hooks.slack.test/a").Send()
	require.NoError(t, err)
	assert.Equal(t, 1, mt.Calls("https://hooks.slack.test/"))
	assert.Empty(t, mt.Uncalled())
}
