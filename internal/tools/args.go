// In file: internal/tools/args.go
package tools

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

const dateLayout = "2006-01-02"

// decodeArgs maps validated tool arguments onto a typed struct. Keys match
// case-insensitively and ignoring '_' and '-', so "site_code", "siteCode" and
// "SITE-CODE" all land on the same field. Strings are split on commas into
// []string fields.
func decodeArgs(tool string, args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		MatchName: func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to build argument decoder for %s: %w", tool, err)
	}
	if err := decoder.Decode(plainNumbers(args)); err != nil {
		return &ValidationError{Tool: tool, Reason: err.Error()}
	}
	return nil
}

// plainNumbers turns json.Number values into their text. Weak typing then
// parses them into numeric fields or keeps them as strings, and the comma
// split only ever sees real strings.
func plainNumbers(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if n, ok := v.(json.Number); ok {
			v = n.String()
		}
		out[k] = v
	}
	return out
}

func normalizeKey(value string) string {
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", "")
	return strings.ReplaceAll(value, "-", "")
}

// cleanList trims each entry and drops blanks.
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// checkDates verifies that every non-empty value is a YYYY-MM-DD date.
func checkDates(tool string, fields map[string]string) error {
	for field, value := range fields {
		if value == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, value); err != nil {
			return &ValidationError{Tool: tool, Field: field, Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", value)}
		}
	}
	return nil
}

// checkRange rejects a window whose start is after its end.
func checkRange(tool, startField, start, end string) error {
	if start == "" || end == "" {
		return nil
	}
	s, _ := time.Parse(dateLayout, start)
	e, _ := time.Parse(dateLayout, end)
	if s.After(e) {
		return &ValidationError{Tool: tool, Field: startField, Reason: fmt.Sprintf("start %s is after end %s", start, end)}
	}
	return nil
}

var yearPattern = regexp.MustCompile(`^\d{4}$`)

func checkYears(tool string, years []string) error {
	for _, y := range years {
		if !yearPattern.MatchString(y) && !strings.EqualFold(y, "ALL") {
			return &ValidationError{Tool: tool, Field: "years", Reason: fmt.Sprintf("%q is not a four-digit year", y)}
		}
	}
	return nil
}

// requireList rejects a required list argument that holds only separators.
func requireList(tool, field string, values []string) error {
	if len(values) == 0 {
		return &ValidationError{Tool: tool, Field: field, Reason: "must name at least one value"}
	}
	return nil
}
