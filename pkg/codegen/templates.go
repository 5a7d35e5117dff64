package codegen

import (
	"fmt"
	"io"
	"text/template"

	"github.com/cockroachdb/errors"
)

var funcMap = template.FuncMap{
	"hex":   func(v uint64) string { return fmt.Sprintf("0x%x", v) },
	"hex64": func(v uint64) string { return fmt.Sprintf("0x%016x", v) },
}

var templates = template.Must(template.New("").Funcs(funcMap).Parse(
	unionTmpl +
		headerConversionTmpl +
		inlineConversionTmpl +
		umbrellaTmpl,
))

func renderTemplate(w io.Writer, name string, data interface{}) error {
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		return errors.Wrapf(err, "template %s", name)
	}
	return nil
}

type unionData struct {
	Name     string
	ID       string
	Guard    string
	Inline   bool
	Includes []string
	Fields   []fieldData
}

type fieldData struct {
	Name        string
	Description string
	Type        string
	WriteMask   uint64
	FieldMask   uint64
	Shift       uint
}

type umbrellaData struct {
	Headers []string
}

const unionTmpl = `{{define "union"}}
{{- if .Guard}}#ifndef {{.Guard}}
#define {{.Guard}}

{{end}}
{{- range .Includes}}#include <{{.}}>
{{end}}
#define {{.Name}}_ID {{.ID}}

typedef union {
    uint8_t bytes[8];
    uint64_t raw;
{{range .Fields}}
    // Sets {{.Description}}
    void set_{{.Name}}({{.Type}} value){ raw = (raw & {{hex64 .WriteMask}}) | (((uint64_t)value & {{hex .FieldMask}}) << {{.Shift}}); }
    // Gets {{.Description}}
    {{.Type}} get_{{.Name}}() { return ({{.Type}})((raw >> {{.Shift}}) & {{hex .FieldMask}}); }
{{end}}
{{if .Inline}}{{template "inlineConversion" .}}{{else}}{{template "headerConversion" .}}{{end -}}
} {{.Name}};
{{- if .Guard}}

#endif
{{- end}}
{{end}}`

const headerConversionTmpl = `{{define "headerConversion"}}    void import_frame(uint32_t cid, uint8_t* data, uint8_t len) {
        if (cid == {{.Name}}_ID) {
            for (int i = 0; i < len && i < 8; i++) {
                bytes[7-i] = data[i];
            }
        }
    }

    void export_frame(uint32_t* cid, uint8_t* data, uint8_t* len) {
        *cid = {{.Name}}_ID;
        *len = 8;
        for (int i = 0; i < *len; i++) {
            data[i] = bytes[7-i];
        }
    }
{{end}}`

const inlineConversionTmpl = `{{define "inlineConversion"}}    void import_frame(CAN_FRAME &f) {
        if (f.id == {{.Name}}_ID) {
            for (int i = 0; i < f.length && i < 8; i++) {
                bytes[7-i] = f.data.bytes[i];
            }
        }
    }

    void export_frame(CAN_FRAME &f) {
        f.id = {{.Name}}_ID;
        f.length = 8;
        f.priority = 4;
        f.rtr = false;
        f.extended = false;
        for (int i = 0; i < 8; i++) {
            f.data.bytes[i] = bytes[7-i];
        }
    }
{{end}}`

const umbrellaTmpl = `{{define "umbrella"}}#ifndef CAN_FRAMES_H_
#define CAN_FRAMES_H_

{{range .Headers}}#include "{{.}}"
{{end}}
#endif
{{end}}`
