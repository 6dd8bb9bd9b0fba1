// Package migrations registers the MongoDB index migrations. Importing it
// for side effects is enough:
//
//	import _ "github.com/Rasmogul/greatsoko/database/migrations"
package migrations
