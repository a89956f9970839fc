package report

import (
	"fmt"
	"html"
	"io"

	"rsc.io/markdown"
)

type errWriter struct {
	w   io.Writer
	err error
}

func (w *errWriter) Write(data []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(data)
	if err != nil {
		w.err = err
	}
	return n, err
}

func (w *errWriter) Err() error { return w.err }

// WriteHTML writes the handout as a standalone HTML page.
func (r *Report) WriteHTML(w io.Writer) error {
	ew := &errWriter{w: w}
	fmt.Fprintf(ew, top, html.EscapeString("The magic number"))
	fmt.Fprint(ew, renderMarkdown(r.Markdown()))
	fmt.Fprint(ew, bottom)
	return ew.Err()
}

func renderMarkdown(s string) string {
	p := markdown.Parser{Table: true}
	doc := p.Parse(s)
	return markdown.ToHTML(doc)
}

const top = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
</head>
<body>
`

const bottom = `</body>
</html>
`
