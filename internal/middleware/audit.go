package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lux23/settings-service/pkg/logger"
	"github.com/lux23/settings-service/pkg/response"
)

const (
	maxAuditBody = 2000
	maxAdminBody = 8 << 10
)

var sensitiveKeys = []string{"pin", "pin_hash", "pinhash", "password", "secret", "token"}

// AuditLog records admin write operations (POST/PUT) with the request body,
// credentials masked.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != "POST" && method != "PUT" {
			c.Next()
			return
		}

		var bodySnippet string
		if c.Request.Body != nil {
			bodyBytes, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxAdminBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					response.Error(c, response.NewPayloadTooLarge("request body too large"))
				} else {
					response.Error(c, response.NewBadRequest("failed to read request body"))
				}
				c.Abort()
				logger.Warn().Err(err).
					Bool("audit", true).
					Str("request_id", c.GetString(logger.RequestIDKey)).
					Str("action", auditAction(c.FullPath(), method)).
					Str("ip", c.ClientIP()).
					Int("status", c.Writer.Status()).
					Msg("[Audit] admin request body rejected")
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodySnippet = maskSensitiveFields(bodyBytes)
			if len(bodySnippet) > maxAuditBody {
				bodySnippet = bodySnippet[:maxAuditBody] + "...[truncated]"
			}
		}

		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= 400 {
			event = logger.Warn()
		}
		event.
			Bool("audit", true).
			Str("request_id", c.GetString(logger.RequestIDKey)).
			Str("action", auditAction(c.FullPath(), method)).
			Str("method", method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("body", bodySnippet).
			Msg(auditOutcome(status))
	}
}

// auditAction names the operation from the route pattern,
// e.g. "/api/admin/settings" + "PUT" → "settings.update".
func auditAction(fullPath, method string) string {
	path := strings.TrimPrefix(fullPath, "/api/")
	path = strings.TrimPrefix(path, "admin/")
	if path == "" {
		path = "unknown"
	}
	resource := strings.ReplaceAll(path, "/", ".")

	switch {
	case resource == "verify":
		return "pin.verify"
	case method == "PUT" || method == "POST":
		return resource + ".update"
	default:
		return resource + "." + strings.ToLower(method)
	}
}

func auditOutcome(status int) string {
	if status >= 200 && status < 300 {
		return "[Audit] admin action succeeded"
	}
	return "[Audit] admin action failed"
}

// maskSensitiveFields returns body with credential values replaced by "***".
// Non-JSON bodies are not logged.
func maskSensitiveFields(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return "[unparseable body]"
	}
	masked, err := json.Marshal(maskValue(doc))
	if err != nil {
		return "[unparseable body]"
	}
	return string(masked)
}

func maskValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, child := range t {
			if isSensitiveKey(k) {
				t[k] = "***"
				continue
			}
			t[k] = maskValue(child)
		}
		return t
	case []interface{}:
		for i, child := range t {
			t[i] = maskValue(child)
		}
		return t
	default:
		return v
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range sensitiveKeys {
		if lower == k {
			return true
		}
	}
	return false
}
