// Package introspect turns describe metadata into Go model declarations,
// the schema-to-code half of the inspect command.
package introspect

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/forceql/forceql/pkg/core"
)

// Options controls model generation.
type Options struct {
	// Package is the generated package name; "models" when empty.
	Package string

	// SkipReadOnly drops fields that can be neither created nor updated
	// (formula and system fields), keeping the id field.
	SkipReadOnly bool
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// GenerateModels renders one Go source file declaring a struct per object.
func GenerateModels(metas []*core.ObjectMetadata, opts Options) ([]byte, error) {
	pkg := opts.Package
	if pkg == "" {
		pkg = "models"
	}

	var needsTime bool
	var body strings.Builder
	for _, meta := range metas {
		if meta == nil {
			continue
		}
		if err := renderObject(&body, meta, opts, &needsTime); err != nil {
			return nil, err
		}
	}

	var out strings.Builder
	out.WriteString("// Code generated by forceql inspect; DO NOT EDIT.\n")
	out.WriteString("package " + pkg + "\n\n")
	if needsTime {
		out.WriteString("import \"time\"\n\n")
	}
	out.WriteString(body.String())
	return []byte(out.String()), nil
}

func renderObject(out *strings.Builder, meta *core.ObjectMetadata, opts Options, needsTime *bool) error {
	structName := GoName(meta.Name)
	if structName == "" {
		return fmt.Errorf("object name %q yields no usable identifier", meta.Name)
	}

	fmt.Fprintf(out, "// %s is the %s object", structName, meta.Label)
	if meta.KeyPrefix != "" {
		fmt.Fprintf(out, " (id prefix %s)", meta.KeyPrefix)
	}
	out.WriteString(".\n")
	fmt.Fprintf(out, "type %s struct {\n", structName)

	for _, f := range meta.Fields {
		if opts.SkipReadOnly && !f.Createable && !f.Updateable && !f.IsPrimaryKey() {
			continue
		}
		fieldName := GoName(f.Name)
		if fieldName == "" {
			continue
		}
		typ := goType(f)
		if strings.Contains(typ, "time.Time") {
			*needsTime = true
		}
		fmt.Fprintf(out, "\t%s %s `soql:%q`", fieldName, typ, f.Name)
		if comment := fieldComment(f); comment != "" {
			out.WriteString(" // " + comment)
		}
		out.WriteString("\n")
	}
	out.WriteString("}\n\n")
	return nil
}

// GoName converts a remote field or object name to an exported Go
// identifier: My_Custom_Field__c -> MyCustomField.
func GoName(remote string) string {
	remote = strings.TrimSuffix(remote, "__c")
	remote = strings.TrimSuffix(remote, "__r")

	var b strings.Builder
	for _, part := range strings.Split(remote, "_") {
		if part == "" {
			continue
		}
		if strings.EqualFold(part, "id") {
			b.WriteString("ID")
			continue
		}
		b.WriteString(titleCaser.String(part))
	}

	name := b.String()
	// Remote names are alphanumeric already; guard against a leading digit.
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "X" + name
	}
	return name
}

// goType maps a describe field type to a Go type. Nillable non-string
// fields become pointers so null survives a round trip.
func goType(f core.Field) string {
	var typ string
	switch f.Type {
	case "boolean":
		return "bool"
	case "int":
		typ = "int64"
	case "double", "currency", "percent":
		typ = "float64"
	case "date", "datetime", "time":
		typ = "time.Time"
	default:
		// id, string, textarea, phone, url, email, picklist,
		// multipicklist, reference, address and friends all surface
		// as strings.
		return "string"
	}
	if f.Nillable {
		return "*" + typ
	}
	return typ
}

func fieldComment(f core.Field) string {
	switch {
	case f.IsPrimaryKey():
		return "primary key"
	case f.IsReference():
		return "references " + strings.Join(f.ReferenceTo, ", ")
	case f.Type == "picklist" && len(f.PicklistValues) > 0:
		const max = 4
		vals := f.PicklistValues
		if len(vals) > max {
			return strings.Join(vals[:max], ", ") + ", ..."
		}
		return strings.Join(vals, ", ")
	}
	return ""
}
