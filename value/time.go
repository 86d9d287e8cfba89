package value

import (
	"fmt"
	"strconv"
	"strings"
	gotime "time"
)

// Time is a point in time stored as whole seconds since the Unix epoch, UTC
// only. Construction forms accepting a utc_offset convert to UTC up front;
// no zone is retained (spec.md §9 Open Questions).
type Time struct {
	Sec int64
}

// NewTime wraps a seconds-since-epoch count.
func NewTime(sec int64) *Time { return &Time{Sec: sec} }

func (t *Time) goTime() gotime.Time { return gotime.Unix(t.Sec, 0).UTC() }

func (t *Time) Kind() Kind       { return KindTime }
func (t *Time) TypeName() string { return "Time" }

func (t *Time) ToString() string {
	return t.goTime().Format("2006-01-02 15:04:05") + " UTC"
}

func (t *Time) Inspect() string { return t.ToString() }
func (t *Time) Truthy() bool    { return true }

func (t *Time) Eq(o Value) bool {
	ot, ok := o.(*Time)
	return ok && ot.Sec == t.Sec
}

func (t *Time) Cmp(o Value) (int, error) {
	ot, ok := o.(*Time)
	if !ok {
		return 0, &UnorderableTypeError{Op: "<=>", Left: "Time", Right: o.TypeName()}
	}
	switch {
	case t.Sec < ot.Sec:
		return -1, nil
	case t.Sec > ot.Sec:
		return 1, nil
	default:
		return 0, nil
	}
}

func (t *Time) HashKey() string { return "time:" + strconv.FormatInt(t.Sec, 10) }

// Add implements `+ seconds`.
func (t *Time) Add(o Value) (Value, error) {
	n, ok := o.(*Number)
	if !ok {
		return nil, unsupported("+", o)
	}
	return NewTime(t.Sec + int64(n.F)), nil
}

// Sub implements `- seconds` and `- time` (difference in seconds).
func (t *Time) Sub(o Value) (Value, error) {
	switch other := o.(type) {
	case *Number:
		return NewTime(t.Sec - int64(other.F)), nil
	case *Time:
		return NewNumber(float64(t.Sec - other.Sec)), nil
	default:
		return nil, unsupported("-", o)
	}
}

var monthAbbrs = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// timeArg reads the i-th constructor argument as an integer, with month-name
// handling when isMonth is set (integer 1..12 or a three-letter lowercase
// abbreviation).
func timeArg(args []Value, i, def int, isMonth bool) (int, error) {
	if i >= len(args) {
		return def, nil
	}
	if isMonth {
		if s, ok := args[i].(*Str); ok {
			if m, ok := monthAbbrs[s.S]; ok {
				return m, nil
			}
			return 0, &ArgumentError{Message: "invalid month: " + s.S}
		}
	}
	num, err := asNumber(args[i], "Time")
	if err != nil {
		return 0, err
	}
	n := int(num.F)
	if isMonth && (n < 1 || n > 12) {
		return 0, &ArgumentError{Message: "month out of range"}
	}
	return n, nil
}

// parseUTCOffset accepts a signed "+HH:MM"/"-HH:MM" string or a number of
// seconds.
func parseUTCOffset(v Value) (int, error) {
	switch arg := v.(type) {
	case *Number:
		return int(arg.F), nil
	case *Str:
		s := arg.S
		if len(s) != 6 || (s[0] != '+' && s[0] != '-') || s[3] != ':' {
			return 0, &ArgumentError{Message: "invalid utc_offset: " + s}
		}
		hh, err1 := strconv.Atoi(s[1:3])
		mm, err2 := strconv.Atoi(s[4:6])
		if err1 != nil || err2 != nil {
			return 0, &ArgumentError{Message: "invalid utc_offset: " + s}
		}
		off := hh*3600 + mm*60
		if s[0] == '-' {
			off = -off
		}
		return off, nil
	default:
		return 0, &TypeError{Expected: "String or Number", Got: v.TypeName(), Context: "utc_offset"}
	}
}

// timeFromParts builds a Time from year..sec constructor arguments plus an
// optional trailing utc_offset (the `new` form).
func timeFromParts(args []Value, allowOffset bool) (Value, error) {
	if len(args) < 1 {
		return nil, &ArgumentCountError{Method: "Time", Expected: 1, Got: 0}
	}
	year, err := timeArg(args, 0, 0, false)
	if err != nil {
		return nil, err
	}
	month, err := timeArg(args, 1, 1, true)
	if err != nil {
		return nil, err
	}
	day, err := timeArg(args, 2, 1, false)
	if err != nil {
		return nil, err
	}
	hour, err := timeArg(args, 3, 0, false)
	if err != nil {
		return nil, err
	}
	min, err := timeArg(args, 4, 0, false)
	if err != nil {
		return nil, err
	}
	sec, err := timeArg(args, 5, 0, false)
	if err != nil {
		return nil, err
	}
	offset := 0
	if len(args) > 6 {
		if !allowOffset {
			return nil, &ArgumentCountError{Method: "Time", Expected: 6, Got: len(args)}
		}
		offset, err = parseUTCOffset(args[6])
		if err != nil {
			return nil, err
		}
	}
	t := gotime.Date(year, gotime.Month(month), day, hour, min, sec, 0, gotime.UTC)
	return NewTime(t.Unix() - int64(offset)), nil
}

func timeCtor(allowOffset bool) MethodFunc {
	return func(recv Value, args []Value, block *Proc) (Value, error) {
		return timeFromParts(args, allowOffset)
	}
}

// TimeClass is the constant registered as `Time` on view models, carrying
// the construction class methods.
var TimeClass = NewObject("Time", MethodTable{
	"now": func(recv Value, args []Value, block *Proc) (Value, error) {
		return NewTime(gotime.Now().Unix()), nil
	},
	"at": func(recv Value, args []Value, block *Proc) (Value, error) {
		if len(args) != 1 {
			return nil, &ArgumentCountError{Method: "at", Expected: 1, Got: len(args)}
		}
		num, err := asNumber(args[0], "at")
		if err != nil {
			return nil, err
		}
		return NewTime(int64(num.F)), nil
	},
	"utc":    timeCtor(false),
	"gm":     timeCtor(false),
	"local":  timeCtor(false),
	"mktime": timeCtor(false),
	"new":    timeCtor(true),
})

var timeMethods MethodTable

func init() {
	field := func(fn func(t gotime.Time) int) MethodFunc {
		return func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(float64(fn(recv.(*Time).goTime()))), nil
		}
	}
	timeMethods = MethodTable{
		"to_i": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(float64(recv.(*Time).Sec)), nil
		},
		"to_f": func(recv Value, args []Value, block *Proc) (Value, error) {
			return NewNumber(float64(recv.(*Time).Sec)), nil
		},
		"year":  field(func(t gotime.Time) int { return t.Year() }),
		"month": field(func(t gotime.Time) int { return int(t.Month()) }),
		"mon":   field(func(t gotime.Time) int { return int(t.Month()) }),
		"day":   field(func(t gotime.Time) int { return t.Day() }),
		"mday":  field(func(t gotime.Time) int { return t.Day() }),
		"hour":  field(func(t gotime.Time) int { return t.Hour() }),
		"min":   field(func(t gotime.Time) int { return t.Minute() }),
		"sec":   field(func(t gotime.Time) int { return t.Second() }),
		"wday":  field(func(t gotime.Time) int { return int(t.Weekday()) }),
		"yday":  field(func(t gotime.Time) int { return t.YearDay() }),
		"utc?": func(recv Value, args []Value, block *Proc) (Value, error) {
			return True, nil
		},
		"strftime": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "strftime", Expected: 1, Got: len(args)}
			}
			fmtStr, err := asString(args[0], "strftime")
			if err != nil {
				return nil, err
			}
			out, err := strftime(recv.(*Time).goTime(), fmtStr.S)
			if err != nil {
				return nil, err
			}
			return NewString(out), nil
		},
		"+": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "+", Expected: 1, Got: len(args)}
			}
			return recv.(*Time).Add(args[0])
		},
		"-": func(recv Value, args []Value, block *Proc) (Value, error) {
			if len(args) != 1 {
				return nil, &ArgumentCountError{Method: "-", Expected: 1, Got: len(args)}
			}
			return recv.(*Time).Sub(args[0])
		},
	}
}

// strftime renders the documented directive set (spec.md §4.2) with flags
// `-` (no pad), `_` (space pad), `0` (zero pad), `^` (uppercase), `:` (colon
// in %z), an optional width 1..99, and the accepted-and-ignored E/O
// modifiers.
func strftime(t gotime.Time, format string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(format) {
			return "", &ArgumentError{Message: "trailing % in strftime format"}
		}

		// flags
		noPad, spacePad, zeroPad, upcase, colons := false, false, false, false, false
		for i < len(format) {
			switch format[i] {
			case '-':
				noPad = true
			case '_':
				spacePad = true
			case '0':
				zeroPad = true
			case '^':
				upcase = true
			case ':':
				colons = true
			default:
				goto flagsDone
			}
			i++
		}
	flagsDone:
		// width
		width := 0
		for i < len(format) && format[i] >= '0' && format[i] <= '9' {
			width = width*10 + int(format[i]-'0')
			if width > 99 {
				return "", &ArgumentError{Message: "strftime width too large"}
			}
			i++
		}
		// E and O modifiers are accepted and ignored
		if i < len(format) && (format[i] == 'E' || format[i] == 'O') {
			i++
		}
		if i >= len(format) {
			return "", &ArgumentError{Message: "truncated strftime directive"}
		}

		conv := format[i]
		text, defWidth, defPad, err := strftimeConv(t, conv, colons)
		if err != nil {
			return "", err
		}
		pad := defPad
		if zeroPad {
			pad = '0'
		}
		if spacePad {
			pad = ' '
		}
		w := defWidth
		if width > 0 {
			w = width
		}
		if !noPad && pad != 0 {
			if pad == '0' && strings.HasPrefix(text, "-") {
				// sign stays ahead of zero padding
				body := text[1:]
				for len(body) < w-1 {
					body = "0" + body
				}
				text = "-" + body
			} else {
				for len(text) < w {
					text = string(pad) + text
				}
			}
		}
		if upcase {
			text = strings.ToUpper(text)
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

// strftimeConv produces the unpadded text for one directive plus its default
// width and pad character (0 means no padding applies).
func strftimeConv(t gotime.Time, conv byte, colons bool) (string, int, byte, error) {
	num := func(n, w int) (string, int, byte, error) {
		return strconv.Itoa(n), w, '0', nil
	}
	sub := func(f string) (string, int, byte, error) {
		s, err := strftime(t, f)
		return s, 0, 0, err
	}
	switch conv {
	case 'Y':
		return num(t.Year(), 4)
	case 'C':
		return num(t.Year()/100, 2)
	case 'y':
		return num(t.Year()%100, 2)
	case 'm':
		return num(int(t.Month()), 2)
	case 'B':
		return t.Month().String(), 0, 0, nil
	case 'b', 'h':
		return t.Month().String()[:3], 0, 0, nil
	case 'd':
		return num(t.Day(), 2)
	case 'e':
		return strconv.Itoa(t.Day()), 2, ' ', nil
	case 'j':
		return num(t.YearDay(), 3)
	case 'A':
		return t.Weekday().String(), 0, 0, nil
	case 'a':
		return t.Weekday().String()[:3], 0, 0, nil
	case 'u':
		wd := int(t.Weekday())
		if wd == 0 {
			wd = 7
		}
		return num(wd, 1)
	case 'w':
		return num(int(t.Weekday()), 1)
	case 'H':
		return num(t.Hour(), 2)
	case 'k':
		return strconv.Itoa(t.Hour()), 2, ' ', nil
	case 'I':
		return num(hour12(t), 2)
	case 'l':
		return strconv.Itoa(hour12(t)), 2, ' ', nil
	case 'P':
		if t.Hour() < 12 {
			return "am", 0, 0, nil
		}
		return "pm", 0, 0, nil
	case 'p':
		if t.Hour() < 12 {
			return "AM", 0, 0, nil
		}
		return "PM", 0, 0, nil
	case 'M':
		return num(t.Minute(), 2)
	case 'S':
		return num(t.Second(), 2)
	case 'L':
		return "000", 3, '0', nil
	case 'N':
		return "000000000", 9, '0', nil
	case 'z':
		if colons {
			return "+00:00", 0, 0, nil
		}
		return "+0000", 0, 0, nil
	case 'Z':
		return "UTC", 0, 0, nil
	case 'c':
		return sub("%a %b %e %H:%M:%S %Y")
	case 'D', 'x':
		return sub("%m/%d/%y")
	case 'F':
		return sub("%Y-%m-%d")
	case 'v':
		return sub("%e-%^b-%Y")
	case 'r':
		return sub("%I:%M:%S %p")
	case 'R':
		return sub("%H:%M")
	case 'T', 'X':
		return sub("%H:%M:%S")
	case 'n':
		return "\n", 0, 0, nil
	case 't':
		return "\t", 0, 0, nil
	case '%':
		return "%", 0, 0, nil
	default:
		return "", 0, 0, &ArgumentError{Message: fmt.Sprintf("unknown strftime directive: %%%c", conv)}
	}
}

func hour12(t gotime.Time) int {
	h := t.Hour() % 12
	if h == 0 {
		h = 12
	}
	return h
}
