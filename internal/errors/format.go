package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	var le *LogError
	if !errors.As(err, &le) {
		le = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Error: %s\n", le.Message))
	if le.Cause != nil && le.Cause.Error() != le.Message {
		sb.WriteString(fmt.Sprintf("  Cause: %v\n", le.Cause))
	}

	keys := make([]string, 0, len(le.Details))
	for k := range le.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", k, le.Details[k]))
	}

	if le.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", le.Suggestion))
	}

	sb.WriteString(fmt.Sprintf("  Code: %s\n", le.Code))

	return sb.String()
}

// FormatForLog formats an error for structured logging.
// Returns key-value pairs suitable for slog attributes.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	var le *LogError
	if !errors.As(err, &le) {
		return map[string]any{
			"error": err.Error(),
		}
	}

	result := map[string]any{
		"error_code": le.Code,
		"message":    le.Message,
		"category":   string(le.Category),
		"severity":   string(le.Severity),
	}

	if le.Cause != nil {
		result["cause"] = le.Cause.Error()
	}

	if le.Suggestion != "" {
		result["suggestion"] = le.Suggestion
	}

	for k, v := range le.Details {
		result["detail_"+k] = v
	}

	return result
}
