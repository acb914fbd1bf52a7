package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"

	"h2w/config"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context     string
	Title       string
	Authors     []string
	Description string
	Keywords    []string
	Language    string
	Date        string
	SourceFile  string
	RefID       string
}

func expandTemplate(md Metadata, name config.TemplateFieldName, field, src, refID string) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context:     string(name),
		Title:       md.Title,
		Authors:     md.Authors,
		Description: md.Description,
		Keywords:    md.Keywords,
		Language:    md.CoreProperties().Language,
		Date:        time.Now().Format("2006-01-02"),
		SourceFile:  strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		RefID:       refID,
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
