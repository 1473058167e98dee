// Package redis wraps go-redis with voxrelay logging, lifecycle support and
// a typed JSON store used by the job result mirror.
package redis
