package redfish

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"strings"
	"text/template"

	"github.com/mpramodhpe/oneview-redfish-toolkit/internal/config"
)

//go:embed templates/metadata.xml.tmpl
var metadataTemplate string

var metadataTmpl = template.Must(template.New("metadata").Funcs(template.FuncMap{
	"xml": xmlEscape,
}).Parse(metadataTemplate))

// RenderMetadata renders the $metadata document with one reference per schema,
// in the order given. baseURL is prefixed to every schema file name.
func RenderMetadata(baseURL string, schemas []config.Schema) ([]byte, error) {
	var buf bytes.Buffer
	err := metadataTmpl.Execute(&buf, struct {
		BaseURL string
		Schemas []config.Schema
	}{
		BaseURL: baseURL,
		Schemas: schemas,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func xmlEscape(s string) (string, error) {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return "", err
	}
	return b.String(), nil
}
