package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteListPrintsNamedRoutes(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"route:list"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	text := out.String()
	assert.Contains(t, text, "METHOD")
	assert.Regexp(t, `POST\s+/api/orders\s+orders\.store`, text)
	assert.Regexp(t, `PUT\s+/api/orders/\{id\}/deliver\s+orders\.deliver`, text)
}

func TestEveryCommandIsRegistered(t *testing.T) {
	want := []string{
		"serve", "route:list", "migrate", "migrate:rollback", "migrate:status",
		"seed", "queue:work", "queue:failed",
	}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, cmd.Name())
		}
	}
}
