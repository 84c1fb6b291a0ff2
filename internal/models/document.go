// internal/models/document.go
package models

import (
	"strconv"
	"strings"
)

// Document is a snapshot of a created record as delivered by the change feed.
type Document map[string]interface{}

// String returns the first non-empty value among keys. Numbers are rendered
// without exponent so that numeric phone fields survive.
func (d Document) String(keys ...string) string {
	for _, k := range keys {
		v, ok := d[k]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case float64:
			s = strconv.FormatFloat(t, 'f', -1, 64)
		case int:
			s = strconv.Itoa(t)
		case int64:
			s = strconv.FormatInt(t, 10)
		case bool:
			s = strconv.FormatBool(t)
		}
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// DocumentEvent is the envelope every creation trigger carries: the path
// identifiers of the created record plus its snapshot.
type DocumentEvent struct {
	Params   map[string]string `json:"params"`
	Document Document          `json:"document"`
}

// Param returns a path identifier or "".
func (e DocumentEvent) Param(name string) string {
	if e.Params == nil {
		return ""
	}
	return e.Params[name]
}
