package prbranches

import (
	"html/template"
	"strings"

	"github.com/clintrovert/prbranches/internal/icons"
)

var linkTemplate = template.Must(template.New("link").Parse(
	`<span class="commit-ref css-truncate user-select-contain mb-n1"{{if .Struck}} style="text-decoration: line-through"{{end}}>` +
		`{{if .Linked}}<a title="{{.Title}}" href="{{.URL}}">{{.Label}}</a>` +
		`{{else}}<span class="unknown-repo">unknown repository</span>{{end}}` +
		`</span>`,
))

var annotationTemplate = template.Must(template.New("annotation").Parse(
	`<span class="issue-meta-section d-inline-block">{{.Icon}} ` +
		`{{if and .Head .Base}}From {{.Head}} into {{.Base}}` +
		`{{else if .Head}}From {{.Head}}` +
		`{{else}}To {{.Base}}{{end}}` +
		`</span>`,
))

type linkView struct {
	Struck bool
	Linked bool
	Title  string
	URL    string
	Label  string
}

// RenderLink renders a reference as a link, or as an unknown repository
// placeholder when it has no target. Deleted branches are struck through.
func RenderLink(ref Reference) template.HTML {
	view := linkView{
		Struck: !ref.BranchExists,
		Label:  ref.Label,
	}
	if linked, ok := ref.Target.(Linked); ok {
		view.Linked = true
		view.URL = linked.URL
		view.Title = ref.Label
		if !ref.BranchExists {
			view.Title = "Deleted"
		}
	}
	return execute(linkTemplate, view)
}

type annotationView struct {
	Icon template.HTML
	Head template.HTML
	Base template.HTML
}

// RenderAnnotation composes the row annotation for the surviving sides.
// A nil side is omitted; it reports false when both are nil.
func RenderAnnotation(base, head *Reference) (template.HTML, bool) {
	if base == nil && head == nil {
		return "", false
	}
	view := annotationView{Icon: icons.OpenPullRequest()}
	if head != nil {
		view.Head = RenderLink(*head)
	}
	if base != nil {
		view.Base = RenderLink(*base)
	}
	return execute(annotationTemplate, view), true
}

func execute(t *template.Template, data interface{}) template.HTML {
	var sb strings.Builder
	// strings.Builder never fails a write
	if err := t.Execute(&sb, data); err != nil {
		panic(err)
	}
	return template.HTML(sb.String())
}
