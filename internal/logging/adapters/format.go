package adapters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"jobportal-cv/internal/logging/types"
)

const textTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// encode renders entry in the requested format; anything but "text" is JSON
func encode(entry *types.LogEntry, format string, colorized bool) ([]byte, error) {
	if strings.EqualFold(format, "text") {
		return encodeText(entry, colorized), nil
	}
	return encodeJSON(entry)
}

// encodeJSON flattens fields next to level, message and time. Fields never
// overwrite those three keys.
func encodeJSON(entry *types.LogEntry) ([]byte, error) {
	line := make(map[string]interface{}, len(entry.Fields)+3)
	for k, v := range entry.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		line[k] = v
	}
	line["level"] = entry.Level.String()
	line["message"] = entry.Message
	line["time"] = entry.Timestamp.Format(time.RFC3339)

	data, err := json.Marshal(line)
	if err != nil {
		return nil, fmt.Errorf("failed to format log entry: %w", err)
	}
	return data, nil
}

// encodeText renders "time [LEVEL] message k=v ..." with keys sorted
func encodeText(entry *types.LogEntry, colorized bool) []byte {
	level := strings.ToUpper(entry.Level.String())
	if colorized {
		level = colorizeLevel(level)
	}

	var b strings.Builder
	b.WriteString(entry.Timestamp.Format(textTimeLayout))
	b.WriteString(" [")
	b.WriteString(level)
	b.WriteString("] ")
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}
	return []byte(b.String())
}

func colorizeLevel(level string) string {
	const reset = "\033[0m"
	colors := map[string]string{
		"DEBUG": "\033[90m",
		"INFO":  "\033[34m",
		"WARN":  "\033[33m",
		"ERROR": "\033[31m",
		"FATAL": "\033[31m",
	}
	if c, ok := colors[level]; ok {
		return c + level + reset
	}
	return level
}
