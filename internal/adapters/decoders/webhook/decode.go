// Package webhook decodes inbound UCP webhook deliveries and finds their correlation context.
package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"strings"
)

var ErrTrailingData = errors.New("webhook: trailing data after JSON value")

type Kind string

const (
	KindStructured Kind = "structured"
	KindText       Kind = "text"
)

// Body is a decoded delivery. Value holds the JSON tree for structured bodies;
// Text holds the raw body otherwise.
type Body struct {
	Kind  Kind
	Value any
	Text  string
	// DecodeErr is set when a structured body failed to parse and fell back to text.
	DecodeErr error
}

// Payload is what gets stored: the tree, or the raw text as-is.
func (b Body) Payload() any {
	if b.Kind == KindStructured {
		return b.Value
	}
	return b.Text
}

// Decode picks a strategy from the declared content type. Malformed JSON is kept as text.
func Decode(contentType string, raw []byte) Body {
	if !isJSON(contentType) {
		return Body{Kind: KindText, Text: string(raw)}
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return Body{Kind: KindText, Text: string(raw), DecodeErr: err}
	}
	// the body must be exactly one JSON value
	if err := dec.Decode(new(any)); err != io.EOF {
		if err == nil {
			err = ErrTrailingData
		}
		return Body{Kind: KindText, Text: string(raw), DecodeErr: err}
	}
	return Body{Kind: KindStructured, Value: v}
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
