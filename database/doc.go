// Package database opens the SQLite job history database through GORM.
//
// Open retries the first connection, applies pool limits and routes GORM's
// query log through logger. Schema changes are applied with the migration
// subpackage before any repository touches the tables.
package database
