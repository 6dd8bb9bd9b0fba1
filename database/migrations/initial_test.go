package migrations

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaIsOrderedAndNamed(t *testing.T) {
	names := make([]string, len(schema))
	for i, s := range schema {
		names[i] = s.name
	}
	assert.True(t, sort.StringsAreSorted(names), "migrations run in lexical order")

	seen := map[string]bool{}
	for _, s := range schema {
		require.NotEmpty(t, s.m.Models, s.name)
		for _, model := range s.m.Models {
			require.NotNil(t, model.Options, s.name)
			require.NotNil(t, model.Options.Name, "rollback drops indexes by name")
			name := *model.Options.Name
			assert.False(t, seen[name], "duplicate index name %s", name)
			seen[name] = true
		}
	}
}

func TestUniqueIndexesGuardIdentity(t *testing.T) {
	uniques := map[string]bool{}
	for _, s := range schema {
		for _, model := range s.m.Models {
			if model.Options.Unique != nil && *model.Options.Unique {
				uniques[*model.Options.Name] = true
			}
		}
	}
	assert.Equal(t, map[string]bool{
		"users_email_unique":  true,
		"products_sku_unique": true,
		"carts_user_unique":   true,
	}, uniques)
}
