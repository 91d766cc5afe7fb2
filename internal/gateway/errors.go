package gateway

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"sort"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	apperrors "github.com/medplus/medplus-client/internal/errors"
)

const maxPlainMessageLen = 300

// statusError maps a failure status and payload onto the error taxonomy:
// 401/403 reject the credential, 400/422 with field messages are validation
// failures, anything else is a server error carrying the remote message.
func (g *Gateway) statusError(status int, header http.Header, body []byte) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return apperrors.Auth(status, body)
	}

	payload, isJSON := parsePayload(body)
	if isJSON && (status == http.StatusBadRequest || status == http.StatusUnprocessableEntity) {
		if fields := g.fields(payload); len(fields) > 0 {
			return apperrors.ValidationFields(status, fields, body)
		}
	}

	var message string
	if isJSON {
		message = g.message(payload)
	} else if isPlainText(header) {
		message = plainMessage(body)
	}
	return apperrors.Server(status, message, body)
}

func parsePayload(body []byte) (any, bool) {
	if len(body) == 0 {
		return nil, false
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false
	}
	return payload, true
}

func isPlainText(header http.Header) bool {
	mediaType, _, err := mime.ParseMediaType(header.Get("Content-Type"))
	return err == nil && mediaType == "text/plain"
}

func plainMessage(body []byte) string {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxPlainMessageLen {
		return ""
	}
	return msg
}

func (g *Gateway) message(payload any) string {
	if s, ok := payload.(string); ok {
		return strings.TrimSpace(s)
	}
	v, err := jmespath.Search(g.messageExpr, payload)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// fields accepts either {"field": "message"} maps or lists of
// {"field"|"campo", "message"|"mensagem"|"defaultMessage"} objects.
func (g *Gateway) fields(payload any) map[string]string {
	v, err := jmespath.Search(g.fieldsExpr, payload)
	if err != nil || v == nil {
		return nil
	}

	out := map[string]string{}
	switch typed := v.(type) {
	case map[string]any:
		for k, msg := range typed {
			if s := fieldMessage(msg); s != "" {
				out[k] = s
			}
		}
	case []any:
		for _, item := range typed {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			name := firstString(obj, "field", "campo")
			msg := firstString(obj, "message", "mensagem", "defaultMessage")
			if name == "" || msg == "" {
				continue
			}
			if prev, dup := out[name]; dup {
				msg = prev + ", " + msg
			}
			out[name] = msg
		}
	}
	return out
}

func fieldMessage(v any) string {
	switch typed := v.(type) {
	case string:
		return strings.TrimSpace(typed)
	case []any:
		parts := make([]string, 0, len(typed))
		for _, p := range typed {
			if s := fieldMessage(p); s != "" {
				parts = append(parts, s)
			}
		}
		sort.Strings(parts)
		return strings.Join(parts, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprint(typed)
	}
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
