package intel

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"
	"time"
)

var (
	boldRe   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.*?)\*`)
	codeRe   = regexp.MustCompile("`(.*?)`")
)

// inlineMarkup escapes p and then applies the bold, italic and code spans
// the dossier model emits.
func inlineMarkup(p string) template.HTML {
	s := template.HTMLEscapeString(p)
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	s = codeRe.ReplaceAllString(s, "<code>$1</code>")
	return template.HTML(s)
}

func bandClass(band string) string {
	switch band {
	case BandHigh:
		return "color-high"
	case BandMedium:
		return "color-medium"
	default:
		return "color-low"
	}
}

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"markup":    inlineMarkup,
	"bandClass": bandClass,
	"inc":       func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Athena Intel // {{.Brief.TargetName}}</title>
<style>
body { max-width: 900px; margin: 0 auto; padding: 60px; font-family: Merriweather, serif; line-height: 1.8; color: #111; }
h1, h2, h3 { font-family: Inter, sans-serif; }
h1 { font-weight: 900; font-size: 48px; text-transform: uppercase; letter-spacing: -2px; margin: 0 0 10px 0; }
.section-title { font-size: 14px; font-weight: 900; text-transform: uppercase; letter-spacing: 2px; border-bottom: 1px solid #ddd; padding-bottom: 10px; margin: 60px 0 30px 0; }
.meta-grid { display: grid; grid-template-columns: 1fr 1fr 1fr; border-top: 2px solid #000; border-bottom: 2px solid #000; margin-bottom: 60px; }
.meta-item { padding: 20px; }
.meta-label { display: block; font-size: 10px; font-weight: 700; text-transform: uppercase; letter-spacing: 2px; color: #666; }
.meta-value { font-weight: 700; font-size: 14px; text-transform: uppercase; }
.grid-layout { display: grid; grid-template-columns: 1fr 300px; gap: 40px; }
.metric-box { background: #f9f9f9; border-left: 4px solid #ccc; padding: 15px; margin-bottom: 10px; }
.metric-label { font-size: 10px; text-transform: uppercase; color: #666; }
.metric-value { font-size: 18px; font-weight: 700; }
.color-high { color: #166534; } .color-medium { color: #854d0e; } .color-low { color: #991b1b; }
@media print { body { max-width: 100%; padding: 0; margin: 20mm; } .section-break { page-break-inside: avoid; } }
</style>
</head>
<body>
<div class="masthead">
  <div>Strategic Intelligence Div.</div>
  <div>Date Generated: {{.Date}}</div>
</div>
<header>
  <h1>{{.Brief.TargetName}}</h1>
  <div class="subtitle">Strategic Assessment &amp; Risk Profile</div>
</header>
<div class="meta-grid">
  <div class="meta-item"><span class="meta-label">Sector Context</span><span class="meta-value">{{.Brief.Intent.ContextLabel}}</span></div>
  <div class="meta-item"><span class="meta-label">Risk Band</span><span class="meta-value {{bandClass .Brief.Confidence.Band}}">{{.Brief.Confidence.Band}} RISK</span></div>
  <div class="meta-item"><span class="meta-label">Primary Intent</span><span class="meta-value">{{.Brief.Intent.Type}}</span></div>
</div>
<main>
{{range .Sections}}
<section class="section-break">
  <h2 class="section-title">// {{.Title}}</h2>
  <div class="grid-layout">
    <div class="content-col">{{range .Content}}<p>{{markup .}}</p>{{end}}</div>
    {{if .Metrics}}<div class="metrics-col"><h3>SIGNAL INTELLIGENCE</h3>{{range .Metrics}}
      <div class="metric-box"><div class="metric-label">{{.Label}}</div><div class="metric-value">{{.Value}}</div></div>{{end}}
    </div>{{end}}
  </div>
</section>
{{end}}
</main>
<div class="section-title">Reference Links</div>
<div class="source-list">{{range $i, $src := .Sources}}
  <div class="source-item"><strong>[{{inc $i}}]</strong> <a href="{{$src}}" target="_blank">{{$src}}</a></div>{{end}}
</div>
<footer class="footer">
  <div>Generated by Athena Operational Intelligence Grid</div>
  <div>{{.Stamp}}</div>
</footer>
</body>
</html>
`))

type reportView struct {
	Brief    Brief
	Sections []Section
	Sources  []string
	Date     string
	Stamp    string
}

// RenderReport builds the printable HTML report for a brief and its
// dossier. The executive summary section is moved to the front and
// retitled.
func RenderReport(b Brief, d Dossier, now time.Time) (string, error) {
	sections := make([]Section, 0, len(d.Sections))
	for _, s := range d.Sections {
		if strings.Contains(s.Title, "SUMMARY") {
			s.Title = "Executive Judgment"
			sections = append(sections, s)
		}
	}
	for _, s := range d.Sections {
		if !strings.Contains(s.Title, "SUMMARY") {
			sections = append(sections, s)
		}
	}

	var buf bytes.Buffer
	err := reportTmpl.Execute(&buf, reportView{
		Brief:    b,
		Sections: sections,
		Sources:  d.Sources,
		Date:     now.Format("2006-01-02"),
		Stamp:    now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
