package notify

import (
	"html/template"
	"strings"
	"time"
)

// bodyTemplate renders the shared notification layout. Field rows with
// an empty value are skipped.
var bodyTemplate = template.Must(template.New("body").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 20px auto; padding: 20px; border: 1px solid #ddd; border-radius: 8px; background: #f9f9f9; }
h2 { color: #2c3e50; }
strong { color: #2c3e50; }
</style>
</head>
<body>
<div class="container">
<h2>{{.Heading}}</h2>
<p>Dear Team Member,</p>
<p>{{.Intro}}</p>
{{range .Fields}}{{if .Value}}<p><strong>{{.Label}}:</strong> {{.Value}}</p>
{{end}}{{end}}<p>Please log in to the system to review the full permit details.</p>
<p>Thank you.<br><em>Work Permit System</em></p>
</div>
</body>
</html>
`))

// Field is one labelled row in a notification body.
type Field struct {
	Label string
	Value string
}

type bodyData struct {
	Heading string
	Intro   string
	Fields  []Field
}

// Body renders the standard HTML notification body.
func Body(heading, intro string, fields ...Field) string {
	var b strings.Builder

	err := bodyTemplate.Execute(&b, bodyData{Heading: heading, Intro: intro, Fields: fields})
	if err != nil {
		// The template is static and the data is plain strings; a
		// render failure means a programming error.
		return heading
	}

	return b.String()
}

// Timestamp formats a time for notification bodies.
func Timestamp(t time.Time) string {
	return t.Format("02 Jan 2006 15:04:05")
}
