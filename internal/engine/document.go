package engine

import (
	"strconv"
	"strings"
)

const (
	LevelDebug   = 0
	LevelInfo    = 1
	LevelWarn    = 2
	LevelError   = 3
	LevelFatal   = 4
	LevelUnknown = 255
)

// Document is one searchable record (row-oriented view).
// Used for ingestion and for returning search results.
type Document struct {
	ID         string            `json:"id"`
	Timestamp  int64             `json:"timestamp"`
	Level      string            `json:"level"`
	Service    string            `json:"service"`
	Host       string            `json:"host"`
	Message    string            `json:"message"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Field resolves a query field name. Well-known fields have short aliases;
// anything else is looked up in Attributes.
func (d *Document) Field(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "id":
		return d.ID, true
	case "service", "svc":
		return d.Service, true
	case "host", "ip", "hostname":
		return d.Host, true
	case "message", "msg":
		return d.Message, true
	case "level", "lvl":
		return d.Level, true
	case "timestamp", "ts":
		return strconv.FormatInt(d.Timestamp, 10), true
	}
	v, ok := d.Attributes[name]
	return v, ok
}

// Text returns the fields searched by bare terms.
func (d *Document) Text() []string {
	return []string{d.Message, d.Service, d.Host, d.Level}
}

// EncodeLevel converts string level to uint8. An empty level counts as
// INFO; levels outside the known set map to LevelUnknown and keep their
// text in the MemTable.
func EncodeLevel(l string) uint8 {
	switch strings.ToUpper(l) {
	case "DEBUG":
		return LevelDebug
	case "INFO", "":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelUnknown
	}
}

// DecodeLevel converts uint8 level to string.
func DecodeLevel(l uint8) string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}
