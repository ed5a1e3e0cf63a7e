package codegen

import (
	"bytes"
	"go/format"
	"io"
	"text/template"
)

type TemplateData struct {
	CommandLine string
	PackageName string
	Idents      []Ident
}

var goTemplate = template.Must(template.New("ids").Parse(`// Code generated by "gramophone {{.CommandLine}}"; DO NOT EDIT.

package {{.PackageName}}

import "github.com/arr-ai/gramophone/grammar"

const (
{{- range .Idents}}
	{{.GoName}} grammar.NonterminalID = {{.ID}} // {{printf "%q" .Rule}}
{{- end}}
)

var Names = map[grammar.NonterminalID]string{
{{- range .Idents}}
	{{.GoName}}: {{printf "%q" .Rule}},
{{- end}}
}
`))

// Write renders data as gofmt-ed Go source.
func Write(w io.Writer, data TemplateData) error {
	var buf bytes.Buffer
	if err := goTemplate.Execute(&buf, data); err != nil {
		return err
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
