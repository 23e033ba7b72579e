package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dynamicDatePrefix = "$date:"

var dateLayouts = map[string]string{
	"day":      "2006-01-02",
	"month":    "2006-01",
	"year":     "2006",
	"datetime": "2006-01-02 15:04:05",
	"stamp":    "20060102",
}

// ParseDynamicDate resolves "$date:format:unit:offset" relative to base.
// Example: "$date:day:day:-1" -> yesterday as "2006-01-02".
// Strings without the prefix are returned unchanged.
func ParseDynamicDate(expression string, base time.Time) (string, error) {
	rest, ok := strings.CutPrefix(expression, dynamicDatePrefix)
	if !ok {
		return expression, nil
	}

	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid dynamic date format: %s", expression)
	}
	format, unit := parts[0], parts[1]

	offset, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", fmt.Errorf("invalid offset in dynamic date: %s", expression)
	}

	var t time.Time
	switch unit {
	case "day":
		t = base.AddDate(0, 0, offset)
	case "month":
		t = base.AddDate(0, offset, 0)
	case "year":
		t = base.AddDate(offset, 0, 0)
	default:
		return "", fmt.Errorf("unsupported unit in dynamic date: %s", unit)
	}

	layout, ok := dateLayouts[format]
	if !ok {
		layout = dateLayouts["day"]
	}
	return t.Format(layout), nil
}
