package webhook

import (
	"encoding/json"
	"strconv"

	"ucp-debugger/internal/domain"
)

// Shape names the payload layout a context was found in.
type Shape string

const (
	ShapeNone     Shape = ""
	ShapeNested   Shape = "context"
	ShapeTopLevel Shape = "top_level"
)

type matcher struct {
	shape Shape
	match func(obj map[string]any) (domain.WebhookContext, bool)
}

// matchers are tried in order; the first yielding a transaction id wins.
var matchers = []matcher{
	{shape: ShapeNested, match: nestedContext},
	{shape: ShapeTopLevel, match: topLevelContext},
}

// Extraction is the outcome of ExtractContext.
type Extraction struct {
	Context *domain.WebhookContext
	Shape   Shape
}

// Correlated reports whether a usable transaction id was found.
func (e Extraction) Correlated() bool {
	return e.Context != nil && e.Context.TransactionID != ""
}

// ExtractContext looks for transaction_id / message_id / action, first inside a nested
// "context" object and then at the top level. Without a transaction id the first partial
// context is returned, or none at all for non-object payloads.
func ExtractContext(payload any) Extraction {
	obj, ok := payload.(map[string]any)
	if !ok {
		return Extraction{}
	}
	var partial Extraction
	for _, m := range matchers {
		c, found := m.match(obj)
		if !found {
			continue
		}
		if c.TransactionID != "" {
			return Extraction{Context: &c, Shape: m.shape}
		}
		if partial.Context == nil {
			cc := c
			partial = Extraction{Context: &cc, Shape: m.shape}
		}
	}
	return partial
}

func nestedContext(obj map[string]any) (domain.WebhookContext, bool) {
	inner, ok := obj["context"].(map[string]any)
	if !ok {
		return domain.WebhookContext{}, false
	}
	return fieldsOf(inner), true
}

func topLevelContext(obj map[string]any) (domain.WebhookContext, bool) {
	c := fieldsOf(obj)
	return c, c != (domain.WebhookContext{})
}

func fieldsOf(obj map[string]any) domain.WebhookContext {
	return domain.WebhookContext{
		TransactionID: scalar(obj["transaction_id"]),
		MessageID:     scalar(obj["message_id"]),
		Action:        scalar(obj["action"]),
	}
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// ActionOf maps a context action onto the closed action set, defaulting to webhook.
func ActionOf(c *domain.WebhookContext) domain.Action {
	if c == nil {
		return domain.ActionWebhook
	}
	if a, ok := domain.ParseAction(c.Action); ok {
		return a
	}
	return domain.ActionWebhook
}
