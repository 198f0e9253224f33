package framevm

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ToStr renders v the way str() does.
func ToStr(v Value) string {
	if s, ok := v.(Str); ok {
		return string(s)
	}
	return Repr(v)
}

// Repr renders v the way repr() does.
func Repr(v Value) string {
	var b strings.Builder
	writeRepr(&b, v, false)
	return b.String()
}

// ASCII is Repr with non-ASCII characters escaped.
func ASCII(v Value) string {
	var b strings.Builder
	writeRepr(&b, v, true)
	return b.String()
}

func writeRepr(b *strings.Builder, v Value, ascii bool) {
	switch v := v.(type) {
	case nil, NoneType:
		b.WriteString("None")
	case nullMarker:
		b.WriteString("<NULL>")
	case Bool:
		if v {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case Int:
		b.WriteString(strconv.FormatInt(int64(v), 10))
	case BigInt:
		b.WriteString(v.i.String())
	case Float:
		b.WriteString(floatRepr(float64(v)))
	case Str:
		quoteStr(b, string(v), ascii)
	case *List:
		b.WriteString("[")
		writeElems(b, v.Elems, ascii)
		b.WriteString("]")
	case Tuple:
		b.WriteString("(")
		writeElems(b, v, ascii)
		if len(v) == 1 {
			b.WriteString(",")
		}
		b.WriteString(")")
	case *Dict:
		b.WriteString("{")
		for i, e := range v.entries {
			if i > 0 {
				b.WriteString(", ")
			}
			writeRepr(b, e.Key, ascii)
			b.WriteString(": ")
			writeRepr(b, e.Value, ascii)
		}
		b.WriteString("}")
	case *Set:
		if v.Len() == 0 {
			b.WriteString("set()")
			return
		}
		b.WriteString("{")
		writeElems(b, v.elems, ascii)
		b.WriteString("}")
	case Slice:
		b.WriteString("slice(")
		writeElems(b, []Value{v.Start, v.Stop, v.Step}, ascii)
		b.WriteString(")")
	case *Range:
		if v.Step == 1 {
			fmt.Fprintf(b, "range(%d, %d)", v.Start, v.Stop)
		} else {
			fmt.Fprintf(b, "range(%d, %d, %d)", v.Start, v.Stop, v.Step)
		}
	case *Function:
		fmt.Fprintf(b, "<function %s>", v.Code.Name)
	case *BoundMethod:
		fmt.Fprintf(b, "<bound method %s.%s>", kindOf(v.Receiver), v.Name)
	case *Builtin:
		fmt.Fprintf(b, "<built-in function %s>", v.Name)
	case *Type:
		fmt.Fprintf(b, "<class '%s'>", v.Name)
	case *Code:
		fmt.Fprintf(b, "<code object %s>", v.Name)
	case Iterator:
		b.WriteString("<iterator>")
	default:
		fmt.Fprintf(b, "<%s>", v.Kind())
	}
}

func writeElems(b *strings.Builder, elems []Value, ascii bool) {
	for i, e := range elems {
		if i > 0 {
			b.WriteString(", ")
		}
		writeRepr(b, e, ascii)
	}
}

func floatRepr(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return e
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func quoteStr(b *strings.Builder, s string, ascii bool) {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == rune(quote) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(b, `\x%02x`, r)
		case r >= utf8.RuneSelf && (ascii || !unicode.IsPrint(r)):
			switch {
			case r <= 0xff:
				fmt.Fprintf(b, `\x%02x`, r)
			case r <= 0xffff:
				fmt.Fprintf(b, `\u%04x`, r)
			default:
				fmt.Fprintf(b, `\U%08x`, r)
			}
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
}

// Convert applies a FormatValue conversion: 0 for none, or one of 's', 'r', 'a'.
func Convert(v Value, conversion rune) (Value, error) {
	switch conversion {
	case 0:
		return v, nil
	case 's':
		return Str(ToStr(v)), nil
	case 'r':
		return Str(Repr(v)), nil
	case 'a':
		return Str(ASCII(v)), nil
	}
	return nil, &UnsupportedOperationError{
		Op:     "FormatValue",
		Detail: fmt.Sprintf("unsupported conversion %q", conversion),
	}
}

type formatSpec struct {
	fill      rune
	align     byte
	sign      byte
	alt       bool
	width     int
	grouping  byte
	precision int
	typ       byte
}

func parseFormatSpec(spec string) (fs formatSpec, err error) {
	fs.fill = ' '
	fs.precision = -1
	runes := []rune(spec)
	i := 0
	isAlign := func(r rune) bool {
		return r == '<' || r == '>' || r == '^' || r == '='
	}
	if len(runes) >= 2 && isAlign(runes[1]) {
		fs.fill = runes[0]
		fs.align = byte(runes[1])
		i = 2
	} else if len(runes) >= 1 && isAlign(runes[0]) {
		fs.align = byte(runes[0])
		i = 1
	}
	if i < len(runes) && (runes[i] == '+' || runes[i] == '-' || runes[i] == ' ') {
		fs.sign = byte(runes[i])
		i++
	}
	if i < len(runes) && runes[i] == '#' {
		fs.alt = true
		i++
	}
	if i < len(runes) && runes[i] == '0' {
		if fs.align == 0 {
			fs.fill = '0'
			fs.align = '='
		}
		i++
	}
	start := i
	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		i++
	}
	if i > start {
		fs.width, _ = strconv.Atoi(string(runes[start:i]))
	}
	if i < len(runes) && (runes[i] == ',' || runes[i] == '_') {
		fs.grouping = byte(runes[i])
		i++
	}
	if i < len(runes) && runes[i] == '.' {
		i++
		start = i
		for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
			i++
		}
		if i == start {
			return fs, &ValueError{Msg: "format specifier missing precision"}
		}
		fs.precision, _ = strconv.Atoi(string(runes[start:i]))
	}
	if i < len(runes) {
		if !strings.ContainsRune("bcdeEfFgGnosxX%", runes[i]) {
			return fs, &ValueError{Msg: fmt.Sprintf("unknown format code '%c'", runes[i])}
		}
		fs.typ = byte(runes[i])
		i++
	}
	if i != len(runes) {
		return fs, &ValueError{Msg: "invalid format specifier " + strconv.Quote(spec)}
	}
	return fs, nil
}

// Format implements format(v, spec) for the mini-language
// [[fill]align][sign][#][0][width][,][.precision][type].
func Format(v Value, spec string) (string, error) {
	if spec == "" {
		return ToStr(v), nil
	}
	fs, err := parseFormatSpec(spec)
	if err != nil {
		return "", err
	}

	switch v := v.(type) {
	case Str:
		if fs.typ != 0 && fs.typ != 's' {
			return "", &ValueError{Msg: fmt.Sprintf("unknown format code '%c' for str", fs.typ)}
		}
		s := string(v)
		if fs.precision >= 0 {
			if runes := []rune(s); len(runes) > fs.precision {
				s = string(runes[:fs.precision])
			}
		}
		return pad("", s, fs, '<'), nil

	case Bool, Int, BigInt:
		switch fs.typ {
		case 'e', 'E', 'f', 'F', 'g', 'G', '%':
			f, _ := floatValue(v)
			return formatFloat(f, fs), nil
		case 's':
			return "", &ValueError{Msg: "unknown format code 's' for int"}
		}
		small, large, _ := intValue(v)
		return formatInt(toBig(small, large), fs)

	case Float:
		switch fs.typ {
		case 'b', 'c', 'd', 'o', 'x', 'X', 'n', 's':
			return "", &ValueError{Msg: fmt.Sprintf("unknown format code '%c' for float", fs.typ)}
		}
		return formatFloat(float64(v), fs), nil
	}

	if fs.typ == 0 && fs.sign == 0 && fs.precision < 0 {
		return pad("", ToStr(v), fs, '<'), nil
	}
	return "", unsupported("format", v)
}

func formatInt(i *big.Int, fs formatSpec) (string, error) {
	if fs.typ == 'c' {
		if !i.IsInt64() || i.Int64() < 0 || i.Int64() > unicode.MaxRune {
			return "", &ValueError{Msg: "%c arg not in range"}
		}
		return pad("", string(rune(i.Int64())), fs, '<'), nil
	}
	base, prefix := 10, ""
	switch fs.typ {
	case 'b':
		base, prefix = 2, "0b"
	case 'o':
		base, prefix = 8, "0o"
	case 'x':
		base, prefix = 16, "0x"
	case 'X':
		base, prefix = 16, "0X"
	}
	digits := new(big.Int).Abs(i).Text(base)
	if fs.typ == 'X' {
		digits = strings.ToUpper(digits)
	}
	if fs.grouping != 0 {
		every := 3
		if base != 10 {
			every = 4
		}
		digits = group(digits, fs.grouping, every)
	}
	lead := signOf(i.Sign() < 0, fs.sign)
	if fs.alt {
		lead += prefix
	}
	return pad(lead, digits, fs, '>'), nil
}

func formatFloat(f float64, fs formatSpec) string {
	neg := math.Signbit(f) && !math.IsNaN(f)
	f = math.Abs(f)
	upper := fs.typ == 'E' || fs.typ == 'F' || fs.typ == 'G'

	var body string
	switch {
	case math.IsInf(f, 0):
		body = "inf"
	case math.IsNaN(f):
		body = "nan"
	default:
		prec := fs.precision
		switch fs.typ {
		case 'f', 'F':
			if prec < 0 {
				prec = 6
			}
			body = strconv.FormatFloat(f, 'f', prec, 64)
		case 'e', 'E':
			if prec < 0 {
				prec = 6
			}
			body = strconv.FormatFloat(f, 'e', prec, 64)
		case 'g', 'G':
			if prec < 0 {
				prec = 6
			} else if prec == 0 {
				prec = 1
			}
			body = strconv.FormatFloat(f, 'g', prec, 64)
		case '%':
			if prec < 0 {
				prec = 6
			}
			body = strconv.FormatFloat(f*100, 'f', prec, 64)
		default:
			if prec < 0 {
				body = floatRepr(f)
			} else {
				if prec == 0 {
					prec = 1
				}
				body = strconv.FormatFloat(f, 'g', prec, 64)
				if !strings.ContainsAny(body, ".e") {
					body += ".0"
				}
			}
		}
		if fs.grouping != 0 {
			intPart, rest := body, ""
			if i := strings.IndexAny(body, ".e"); i >= 0 {
				intPart, rest = body[:i], body[i:]
			}
			body = group(intPart, fs.grouping, 3) + rest
		}
	}
	if upper {
		body = strings.ToUpper(body)
	}
	if fs.typ == '%' {
		body += "%"
	}
	return pad(signOf(neg, fs.sign), body, fs, '>')
}

func signOf(negative bool, sign byte) string {
	switch {
	case negative:
		return "-"
	case sign == '+':
		return "+"
	case sign == ' ':
		return " "
	}
	return ""
}

func group(digits string, sep byte, every int) string {
	if len(digits) <= every {
		return digits
	}
	var b strings.Builder
	first := len(digits) % every
	if first > 0 {
		b.WriteString(digits[:first])
	}
	for i := first; i < len(digits); i += every {
		if b.Len() > 0 {
			b.WriteByte(sep)
		}
		b.WriteString(digits[i : i+every])
	}
	return b.String()
}

func pad(lead, body string, fs formatSpec, defaultAlign byte) string {
	n := utf8.RuneCountInString(lead) + utf8.RuneCountInString(body)
	if n >= fs.width {
		return lead + body
	}
	fill := strings.Repeat(string(fs.fill), fs.width-n)
	align := fs.align
	if align == 0 {
		align = defaultAlign
	}
	switch align {
	case '<':
		return lead + body + fill
	case '^':
		half := (fs.width - n) / 2
		left := strings.Repeat(string(fs.fill), half)
		right := strings.Repeat(string(fs.fill), fs.width-n-half)
		return left + lead + body + right
	case '=':
		return lead + fill + body
	}
	return fill + lead + body
}

// percentFormat implements the printf-style Str % value operator.
func percentFormat(format Str, arg Value) (Value, error) {
	var args []Value
	mapping, _ := arg.(*Dict)
	if t, ok := arg.(Tuple); ok {
		args = t
	} else {
		args = []Value{arg}
	}
	next := 0
	nextArg := func() (Value, error) {
		if next >= len(args) {
			return nil, &ValueError{Msg: "not enough arguments for format string"}
		}
		v := args[next]
		next++
		return v, nil
	}

	var b strings.Builder
	s := []rune(string(format))
	usedMapping := false
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			b.WriteRune(s[i])
			continue
		}
		i++
		if i >= len(s) {
			return nil, &ValueError{Msg: "incomplete format"}
		}

		var value Value
		if s[i] == '(' {
			if mapping == nil {
				return nil, &ValueError{Msg: "format requires a mapping"}
			}
			end := i + 1
			for end < len(s) && s[end] != ')' {
				end++
			}
			if end >= len(s) {
				return nil, &ValueError{Msg: "incomplete format key"}
			}
			key := Str(s[i+1 : end])
			v, ok, err := mapping.Get(key)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &KeyLookupError{Key: key}
			}
			value = v
			usedMapping = true
			i = end + 1
		}

		fs := formatSpec{
			fill:      ' ',
			precision: -1,
		}
		for ; i < len(s) && strings.ContainsRune("-+ 0#", s[i]); i++ {
			switch s[i] {
			case '-':
				fs.align = '<'
			case '+', ' ':
				if fs.sign != '+' {
					fs.sign = byte(s[i])
				}
			case '0':
				if fs.align == 0 {
					fs.fill = '0'
					fs.align = '='
				}
			case '#':
				fs.alt = true
			}
		}
		if fs.align == '<' {
			fs.fill = ' '
		}
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i > start {
			fs.width, _ = strconv.Atoi(string(s[start:i]))
		}
		if i < len(s) && s[i] == '.' {
			i++
			start = i
			for i < len(s) && s[i] >= '0' && s[i] <= '9' {
				i++
			}
			fs.precision, _ = strconv.Atoi(string(s[start:i]))
		}
		if i >= len(s) {
			return nil, &ValueError{Msg: "incomplete format"}
		}

		conv := s[i]
		if conv == '%' {
			b.WriteByte('%')
			continue
		}
		if value == nil {
			v, err := nextArg()
			if err != nil {
				return nil, err
			}
			value = v
		}

		var out string
		var err error
		switch conv {
		case 's', 'r', 'a':
			text := ToStr(value)
			if conv == 'r' {
				text = Repr(value)
			} else if conv == 'a' {
				text = ASCII(value)
			}
			if fs.precision >= 0 {
				if runes := []rune(text); len(runes) > fs.precision {
					text = string(runes[:fs.precision])
				}
			}
			if fs.align == '=' {
				fs.align, fs.fill = '>', ' '
			}
			out = pad("", text, fs, '>')
		case 'd', 'i', 'u':
			iv, ierr := percentInt(value)
			if ierr != nil {
				return nil, ierr
			}
			fs.typ = 'd'
			out, err = formatInt(iv, fs)
		case 'x', 'X', 'o':
			iv, ierr := percentInt(value)
			if ierr != nil {
				return nil, ierr
			}
			fs.typ = byte(conv)
			out, err = formatInt(iv, fs)
		case 'c':
			if str, ok := value.(Str); ok && utf8.RuneCountInString(string(str)) == 1 {
				out = pad("", string(str), fs, '>')
				break
			}
			iv, ierr := percentInt(value)
			if ierr != nil {
				return nil, ierr
			}
			fs.typ = 'c'
			out, err = formatInt(iv, fs)
		case 'f', 'F', 'e', 'E', 'g', 'G':
			f, ok := floatValue(value)
			if !ok {
				return nil, unsupported("%"+string(conv), value)
			}
			fs.typ = byte(conv)
			out = formatFloat(f, fs)
		default:
			return nil, &ValueError{Msg: fmt.Sprintf("unsupported format character '%c'", conv)}
		}
		if err != nil {
			return nil, err
		}
		b.WriteString(out)
	}
	if !usedMapping && next < len(args) && mapping == nil {
		return nil, &ValueError{Msg: "not all arguments converted during string formatting"}
	}
	return Str(b.String()), nil
}

func percentInt(v Value) (*big.Int, error) {
	if f, ok := v.(Float); ok {
		if math.IsInf(float64(f), 0) || math.IsNaN(float64(f)) {
			return nil, &ValueError{Msg: "cannot convert float to integer"}
		}
		i, _ := big.NewFloat(math.Trunc(float64(f))).Int(nil)
		return i, nil
	}
	small, large, ok := intValue(v)
	if !ok {
		return nil, unsupported("%d", v)
	}
	return toBig(small, large), nil
}
