package version

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/cruciblehq/cruxrel/internal/errs"
)

// Matches a `name = "value"` or `name = 'value'` assignment at line start.
//
// Groups: 1 indent, 2 identifier, 3 operator with surrounding blanks,
// 4 double-quoted value, 5 single-quoted value.
var assignmentPattern = regexp.MustCompile(`(?m)^([ \t]*)([A-Za-z_][A-Za-z0-9_]*)([ \t]*=[ \t]*)(?:"([^"\r\n]*)"|'([^'\r\n]*)')`)

// The recognised assignment within a declaration file.
type Assignment struct {
	Indent   string // Leading blanks on the line.
	Name     string // Assigned identifier.
	Operator string // "=" with its surrounding blanks, verbatim.
	Quote    byte   // Quote character used around the value.
	Value    string // Unquoted value.
}

// Renders the assignment exactly as it appears in the file.
func (a Assignment) String() string {
	q := string(a.Quote)
	return a.Indent + a.Name + a.Operator + q + a.Value + q
}

// A version file split around its single assignment.
type Declaration struct {
	preamble   []byte
	assignment Assignment
	postamble  []byte
}

// Splits data around the assignment to name.
//
// An empty name accepts any identifier. Exactly one matching assignment must
// be present; zero or several fail with [ErrVersionFormat].
func ParseDeclaration(data []byte, name string) (Declaration, error) {
	var found [][]int
	for _, m := range assignmentPattern.FindAllSubmatchIndex(data, -1) {
		if name == "" || string(data[m[4]:m[5]]) == name {
			found = append(found, m)
		}
	}

	switch len(found) {
	case 0:
		if name == "" {
			return Declaration{}, errs.Wrapf(ErrVersionFormat, "no quoted assignment found")
		}
		return Declaration{}, errs.Wrapf(ErrVersionFormat, "no quoted assignment to %s found", name)
	case 1:
	default:
		return Declaration{}, errs.Wrapf(ErrVersionFormat, "%d candidate assignments found, expected exactly one", len(found))
	}

	m := found[0]
	a := Assignment{
		Indent:   string(data[m[2]:m[3]]),
		Name:     string(data[m[4]:m[5]]),
		Operator: string(data[m[6]:m[7]]),
	}
	if m[8] >= 0 {
		a.Quote = '"'
		a.Value = string(data[m[8]:m[9]])
	} else {
		a.Quote = '\''
		a.Value = string(data[m[10]:m[11]])
	}

	return Declaration{
		preamble:   bytes.Clone(data[:m[0]]),
		assignment: a,
		postamble:  bytes.Clone(data[m[1]:]),
	}, nil
}

// Returns the declared version.
func (d Declaration) Value() string {
	return d.assignment.Value
}

// Returns the parsed assignment.
func (d Declaration) Assignment() Assignment {
	return d.assignment
}

// Returns a copy of the declaration with the value replaced.
//
// The value must be representable inside the existing quotes.
func (d Declaration) WithValue(value string) (Declaration, error) {
	if strings.ContainsAny(value, "\r\n") || strings.IndexByte(value, d.assignment.Quote) >= 0 {
		return Declaration{}, errs.Wrapf(ErrVersionFormat, "value %q cannot be quoted with %c", value, d.assignment.Quote)
	}
	d.assignment.Value = value
	return d, nil
}

// Renders the full file content.
func (d Declaration) Bytes() []byte {
	var b bytes.Buffer
	b.Grow(len(d.preamble) + len(d.postamble) + 64)
	b.Write(d.preamble)
	b.WriteString(d.assignment.String())
	b.Write(d.postamble)
	return b.Bytes()
}

// Implements fmt.Stringer for log output.
func (d Declaration) String() string {
	return fmt.Sprintf("%s=%q", d.assignment.Name, d.assignment.Value)
}
