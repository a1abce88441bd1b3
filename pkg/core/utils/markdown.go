package utils

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderMarkdown converts GitHub-flavoured table markdown to HTML.
func RenderMarkdown(input string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(strings.TrimSpace(input)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
