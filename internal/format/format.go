// Package format renders a secret map into one of the supported file
// grammars and checks output paths against the grammar's file extension.
package format

import (
	"strings"

	"github.com/systmms/secrets-action/internal/secrets"
)

// Format names an output grammar
type Format string

const (
	Terraform  Format = "terraform"
	Raw        Format = "raw"
	Shell      Format = "shell"
	Dotenv     Format = "dotenv"
	DotenvSafe Format = "dotenv-safe"
)

// Parse normalizes a format name. Unknown names are returned as-is and
// render with the dotenv-safe rules.
func Parse(name string) Format {
	return Format(strings.ToLower(strings.TrimSpace(name)))
}

// Known reports whether f is one of the named grammars
func (f Format) Known() bool {
	switch f {
	case Terraform, Raw, Shell, Dotenv, DotenvSafe:
		return true
	}
	return false
}

// Pass is one literal substitution applied to a value
type Pass struct {
	Old string
	New string
}

// Escaper applies its passes either one after another or, when combined,
// in a single left-to-right scan so no pass sees another's output.
type Escaper struct {
	Passes   []Pass
	Combined bool
}

// Escape returns value with every pass applied
func (e Escaper) Escape(value string) string {
	if e.Combined {
		oldnew := make([]string, 0, 2*len(e.Passes))
		for _, p := range e.Passes {
			oldnew = append(oldnew, p.Old, p.New)
		}
		return strings.NewReplacer(oldnew...).Replace(value)
	}
	for _, p := range e.Passes {
		value = strings.ReplaceAll(value, p.Old, p.New)
	}
	return value
}

// Backslash always comes first so later passes do not get their inserted
// backslashes doubled.
var (
	terraformEscaper = Escaper{Passes: []Pass{
		{`\`, `\\`},
		{`"`, `\"`},
		{"\n", `\n`},
		{"\r", `\r`},
		{"\t", `\t`},
	}}

	rawEscaper = Escaper{Combined: true, Passes: []Pass{
		{`'`, `\'`},
		{`"`, `\"`},
		{`$`, `\$`},
		{"`", "\\`"},
		{`\`, `\\`},
	}}

	shellEscaper = Escaper{Passes: []Pass{
		{`'`, `'\''`},
	}}

	dotenvEscaper = Escaper{Passes: []Pass{
		{`\`, `\\`},
		{`"`, `\"`},
		{`$`, `\$`},
		{"\n", `\n`},
		{"\r", `\r`},
	}}
)

// EscaperFor returns the escaping rules of f
func EscaperFor(f Format) Escaper {
	switch f {
	case Terraform:
		return terraformEscaper
	case Raw:
		return rawEscaper
	case Shell:
		return shellEscaper
	default:
		return dotenvEscaper
	}
}

// Line renders a single entry
func Line(f Format, key, value string) string {
	escaped := EscaperFor(f).Escape(value)
	switch f {
	case Terraform:
		return key + ` = "` + escaped + `"`
	case Raw:
		return key + "=" + escaped
	case Shell:
		return "export " + key + "='" + escaped + "'"
	default:
		return key + `="` + escaped + `"`
	}
}

// Render serializes every secret as one line of the given grammar, with
// prefix and suffix wrapped around each key. Lines are joined with "\n" and
// there is no trailing newline.
func Render(m *secrets.Map, f Format, prefix, suffix string) string {
	lines := make([]string, 0, m.Len())
	m.Each(func(key, value string) {
		lines = append(lines, Line(f, prefix+key+suffix, value))
	})
	return strings.Join(lines, "\n")
}
