// Package authz decides which roles may perform which API operations.
//
// Permissions use a "resource:action" form and role grants may use "*" on
// either side, so "jobs:*" covers every jobs operation and "*:*" everything.
package authz
