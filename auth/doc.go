// Package auth holds the optional bearer-token guard on the job API.
//
// When enabled, every /api request must carry "Authorization: Bearer <jwt>"
// signed with the shared secret; the bot mints its own tokens from the same
// configuration.
package auth
