// Package migrations holds the schema migrations. Each file registers its
// migrations from init(); cmd/bistro imports this package for migrate.
package migrations
