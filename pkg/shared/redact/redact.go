package redact

import (
	"encoding/json"
	"net/http"
	"strings"
)

const Mask = "***"

var sensitiveKeys = []string{"authorization", "cookie", "set-cookie", "access_token", "id_token", "session", "apikey", "x-ucp-api-key", "x-api-key", "proxy-authorization"}

// Headers flattens h into a lowercase-keyed map, masking sensitive values.
// extra names are treated as sensitive too.
func Headers(h http.Header, extra ...string) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		key := strings.ToLower(k)
		if isSensitiveKey(key, extra) {
			out[key] = Mask
			continue
		}
		out[key] = strings.Join(vs, ", ")
	}
	return out
}

// Flatten is Headers without masking.
func Flatten(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		out[strings.ToLower(k)] = strings.Join(vs, ", ")
	}
	return out
}

// JSON masks sensitive fields in a JSON string best-effort.
func JSON(s string) string {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	redactNode(&v)
	b, err := json.Marshal(v)
	if err != nil {
		return s
	}
	return string(b)
}

func redactNode(n *any) {
	switch t := (*n).(type) {
	case map[string]any:
		for k, v := range t {
			if isSensitiveKey(k, nil) {
				t[k] = Mask
				continue
			}
			vv := any(v)
			redactNode(&vv)
			t[k] = vv
		}
	case []any:
		for i := range t {
			vv := any(t[i])
			redactNode(&vv)
			t[i] = vv
		}
	}
}

func isSensitiveKey(k string, extra []string) bool {
	k = strings.ToLower(k)
	for _, s := range sensitiveKeys {
		if k == s {
			return true
		}
	}
	for _, s := range extra {
		if strings.EqualFold(k, s) {
			return true
		}
	}
	return false
}
