package engine

import (
	"github.com/codingersid/slim-template/value"
)

// DefaultHelpers returns the helper methods registered on every ViewModel
// the engine builds. User helpers added through WithHelpers/AddHelper live
// alongside these in the same table.
func DefaultHelpers() map[string]value.MethodFunc {
	return map[string]value.MethodFunc{
		// format("%05.2f", x) — sprintf-style formatting
		"format":  helperFormat,
		"sprintf": helperFormat,

		// raw(v) marks a value as HTML-safe, skipping output escaping
		"raw": func(recv value.Value, args []value.Value, block *value.Proc) (value.Value, error) {
			if len(args) != 1 {
				return nil, &value.ArgumentCountError{Method: "raw", Expected: 1, Got: len(args)}
			}
			return value.NewHtmlSafeString(args[0].ToString()), nil
		},

		// html_escape(v) escapes eagerly and returns the result HTML-safe
		"html_escape": helperEscape,
		"h":           helperEscape,
	}
}

// DefaultConstants returns the constants registered on every ViewModel the
// engine builds: the Time and Regexp construction classes.
func DefaultConstants() map[string]value.Value {
	return map[string]value.Value{
		"Time":   value.TimeClass,
		"Regexp": value.RegexpClass,
	}
}

func helperFormat(recv value.Value, args []value.Value, block *value.Proc) (value.Value, error) {
	if len(args) < 1 {
		return nil, &value.ArgumentCountError{Method: "format", Expected: 1, Got: 0}
	}
	format, ok := args[0].(*value.Str)
	if !ok {
		return nil, &value.TypeError{Expected: "String", Got: args[0].TypeName(), Context: "format"}
	}
	out, err := value.FormatString(format.S, args[1:])
	if err != nil {
		return nil, err
	}
	return value.NewString(out), nil
}

func helperEscape(recv value.Value, args []value.Value, block *value.Proc) (value.Value, error) {
	if len(args) != 1 {
		return nil, &value.ArgumentCountError{Method: "html_escape", Expected: 1, Got: len(args)}
	}
	return value.NewHtmlSafeString(value.EscapeHTML(args[0].ToString())), nil
}
