package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/avvvet/voicebuddy-actions/internal/models"
)

// Doc is the structured documentation of an action or a parameter.
// The same record feeds humans and the model-facing schema.
type Doc struct {
	Text     string
	Behavior []string // Numbered steps
	Rules    []string
	Usage    []string // When the model should pick the action
	Examples []string // Literal values or phrases
	Template string   // Rendered against the call state, appended last
}

// Check parses the template so that broken docs fail at startup.
func (d Doc) Check(name string) error {
	if d.Template == "" {
		return nil
	}
	if _, err := template.New(name).Parse(d.Template); err != nil {
		return fmt.Errorf("parse template %s: %w", name, err)
	}
	return nil
}

// Render formats the doc as the prose shown to the model.
func (d Doc) Render(name string, call *models.CallState) (string, error) {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(d.Text))

	if len(d.Behavior) > 0 {
		b.WriteString("\n\n# Behavior")
		for i, step := range d.Behavior {
			fmt.Fprintf(&b, "\n%d. %s", i+1, step)
		}
	}
	writeList(&b, "Rules", d.Rules)
	writeList(&b, "Usage examples", d.Usage)
	writeList(&b, "Examples", d.Examples)

	if d.Template != "" {
		tmpl, err := template.New(name).Parse(d.Template)
		if err != nil {
			return "", fmt.Errorf("parse template %s: %w", name, err)
		}
		var out strings.Builder
		if err := tmpl.Execute(&out, call); err != nil {
			return "", fmt.Errorf("render template %s: %w", name, err)
		}
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(out.String()))
	}

	return strings.TrimSpace(b.String()), nil
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n\n# %s", title)
	for _, item := range items {
		fmt.Fprintf(b, "\n- %s", item)
	}
}

// CustomerResponse documents the confirmation phrase spoken before an action runs.
func CustomerResponse(examples ...string) Doc {
	return Doc{
		Text: "Phrase used to confirm the update, in the same language as the customer. This phrase will be spoken to the user.",
		Rules: []string{
			"Action should be rephrased in the present tense",
			"Must be in a single sentence",
		},
		Examples: examples,
	}
}

// AvailableLanguages lists the short codes the call can switch to.
const AvailableLanguages = `# Available short codes
{{range .Initiate.Lang.Availables}}- {{.ShortCode}} ({{.Pronunciation}})
{{end}}
# Data format
short code`

const goodbyeTemplate = `Thank you for calling, I hope I have been able to help.{{if .Initiate.BotCompany}} {{.Initiate.BotCompany}} wishes you a wonderful day!{{else}} Have a wonderful day!{{end}}`

var goodbye = template.Must(template.New("goodbye").Parse(goodbyeTemplate))

// Goodbye renders the closing statement spoken before hanging up.
func Goodbye(call *models.CallState) (string, error) {
	var b strings.Builder
	if err := goodbye.Execute(&b, call); err != nil {
		return "", fmt.Errorf("render goodbye: %w", err)
	}
	return b.String(), nil
}
