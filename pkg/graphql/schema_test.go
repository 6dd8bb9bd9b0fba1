package graphql

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pingSchema(t *testing.T) graphql.Schema {
	t.Helper()
	schema, err := NewSchema(graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"echo": &graphql.Field{
				Type: graphql.String,
				Args: graphql.FieldConfigArgument{"text": &graphql.ArgumentConfig{Type: graphql.String}},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Args["text"], nil
				},
			},
		},
	}))
	require.NoError(t, err)
	return schema
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRunsQueryWithVariables(t *testing.T) {
	rec := post(Handler(pingSchema(t)), `{"query":"query($t:String){ echo(text:$t) }","variables":{"t":"hi"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Data struct{ Echo string } `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "hi", out.Data.Echo)
}

func TestHandlerReportsQueryErrorsInBody(t *testing.T) {
	rec := post(Handler(pingSchema(t)), `{"query":"{ missing }"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"errors"`)
}

func TestHandlerRejectsEmptyBody(t *testing.T) {
	rec := post(Handler(pingSchema(t)), `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
