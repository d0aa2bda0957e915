// Package extraparam parses the free-text override string accepted on the
// command line, e.g. `series="Foo", number="2"`.
//
// The grammar is permissive: every non-overlapping match of name="value" is
// taken left to right and everything between matches is ignored. Escaped
// quotes are not supported; a value ends at the first double quote.
package extraparam

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/MimeLyc/comic-packer/internal/metadata"
)

var tokenPattern = regexp.MustCompile(`([\p{L}\p{N}_]+)="([^"]*)"`)

// Value is a captured override value. All-digit values also carry their
// integer form.
type Value struct {
	raw   string
	n     int
	isInt bool
	// pos is the index of the token in the parsed text.
	pos int
}

func StringValue(s string) Value {
	return Value{raw: s}
}

func IntValue(n int) Value {
	return Value{raw: strconv.Itoa(n), n: n, isInt: true}
}

func (v Value) String() string { return v.raw }

func (v Value) IsInt() bool { return v.isInt }

func (v Value) Int() (int, bool) { return v.n, v.isInt }

// Params maps override names to values.
type Params map[string]Value

// Parse extracts name="value" tokens from text. It never fails; an empty
// text yields an empty map.
func Parse(text string) Params {
	params := make(Params)
	if text == "" {
		return params
	}

	for i, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		v := coerce(m[2])
		v.pos = i
		params[m[1]] = v
	}
	return params
}

func coerce(raw string) Value {
	if !isDecimal(raw) {
		return StringValue(raw)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		// overflow
		return StringValue(raw)
	}
	return Value{raw: raw, n: n, isInt: true}
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Keys returns the names in the order they last appeared in the text.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return p[keys[i]].pos < p[keys[j]].pos })
	return keys
}

// Overrides maps recognized names onto metadata fields. Unrecognized names,
// and recognized names whose value has the wrong shape, land in Extra.
// Names that map to the same field (title/Title, lang/language) are applied
// in text order, so the later one wins.
func (p Params) Overrides() metadata.Overrides {
	var o metadata.Overrides
	extra := make(map[string]string)

	for _, key := range p.Keys() {
		v := p[key]
		raw := v.String()
		switch strings.ToLower(key) {
		case "title":
			o.Title = &raw
		case "series":
			o.Series = &raw
		case "language", "language_iso", "lang":
			o.Language = &raw
		case "format":
			o.Format = &raw
		case "summary":
			o.Summary = &raw
		case "writer":
			o.Writer = &raw
		case "publisher":
			o.Publisher = &raw
		case "genre":
			o.Genre = &raw
		case "web":
			o.Web = &raw
		case "number":
			if n, ok := v.Int(); ok {
				o.Number = &n
			} else {
				extra[key] = raw
			}
		case "year":
			if n, ok := v.Int(); ok {
				o.Year = &n
			} else {
				extra[key] = raw
			}
		case "volume":
			if n, ok := v.Int(); ok {
				o.Volume = &n
			} else {
				extra[key] = raw
			}
		case "manga":
			if m, ok := metadata.ParseManga(raw); ok {
				o.Manga = &m
			} else {
				extra[key] = raw
			}
		case "black_white", "blackandwhite":
			if yn, ok := metadata.ParseYesNo(raw); ok {
				o.BlackAndWhite = &yn
			} else {
				extra[key] = raw
			}
		case "age_rating", "agerating":
			if r, ok := metadata.ParseAgeRating(raw); ok {
				o.AgeRating = &r
			} else {
				extra[key] = raw
			}
		default:
			extra[key] = raw
		}
	}

	if len(extra) > 0 {
		o.Extra = extra
	}
	return o
}
