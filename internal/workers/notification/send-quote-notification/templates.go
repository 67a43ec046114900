package sendquotenotification

import (
	"fmt"
	"strings"
)

type template struct {
	Subject string
	Body    string
}

var templates = map[string]template{
	TypeQuoteReady: {
		Subject: "Your insurance quote is ready",
		Body:    "Hello {{name}}, we found {{totalMatched}} plans for quote {{sessionId}}. Top pick: {{topCompany}} {{topTier}} at {{topPremium}} THB/year.",
	},
	TypePlanSelected: {
		Subject: "Plan selected: {{company}} {{tier}}",
		Body:    "Hello {{name}}, selection {{selectionId}} for {{company}} {{tier}} ({{premium}} THB/year) is waiting for documents.",
	},
}

// renderTemplate replaces {{key}} placeholders in a single pass, so values
// are never expanded again. Placeholders without a value are removed.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	var b strings.Builder
	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end == -1 {
			break
		}
		b.WriteString(rest[:start])
		b.WriteString(formatValue(data[rest[start+2:start+end]]))
		rest = rest[start+end+2:]
	}
	b.WriteString(rest)
	return b.String()
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%.2f", t), ".00")
	default:
		return fmt.Sprintf("%v", t)
	}
}
