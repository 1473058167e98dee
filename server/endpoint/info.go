// Package endpoint provides the /health and /info handlers.
package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voxrelay/version"
)

var startTime = time.Now()

// InfoFunc contributes service-specific fields to /info.
type InfoFunc func() map[string]any

// Info reports build information, uptime and any extra fields.
func Info(serviceName string, extra InfoFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.Get()
		body := gin.H{
			"service":    serviceName,
			"version":    v.Version,
			"git_commit": v.GitCommit,
			"build_time": v.BuildTime,
			"go_version": v.GoVersion,
			"uptime":     time.Since(startTime).Round(time.Second).String(),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		}
		if extra != nil {
			for k, val := range extra() {
				body[k] = val
			}
		}
		c.JSON(http.StatusOK, body)
	}
}
