package bank

import (
	"regexp"
	"strings"
)

// InboundBody is the parsed form of the vendor's plain-text webhook body:
// Key: value metadata lines followed by free-text message content.
type InboundBody struct {
	Sender   string
	Receiver string
	Slot     string
	SMSC     string
	SCTS     string
	Content  string
}

// The Receiver line carries the slot in quotes, e.g.
//
//	Receiver: "4.07" 15135559999
var receiverLine = regexp.MustCompile(`^Receiver:\s*"([0-9.]+)"\s*(.*)$`)

// ParseInboundBody splits a vendor webhook body into metadata and content.
// Unknown lines are treated as message content, preserving interior blank
// lines.
func ParseInboundBody(body string) InboundBody {
	var parsed InboundBody
	var content []string

	for _, line := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)

		if m := receiverLine.FindStringSubmatch(trimmed); m != nil {
			parsed.Slot = m[1]
			parsed.Receiver = strings.TrimSpace(m[2])
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "Sender:"):
			parsed.Sender = strings.TrimSpace(strings.TrimPrefix(trimmed, "Sender:"))
		case strings.HasPrefix(trimmed, "Receiver:"):
			parsed.Receiver = strings.TrimSpace(strings.TrimPrefix(trimmed, "Receiver:"))
		case strings.HasPrefix(trimmed, "SMSC:"):
			parsed.SMSC = strings.TrimSpace(strings.TrimPrefix(trimmed, "SMSC:"))
		case strings.HasPrefix(trimmed, "SCTS:"):
			parsed.SCTS = strings.TrimSpace(strings.TrimPrefix(trimmed, "SCTS:"))
		case strings.HasPrefix(trimmed, "Slot:"):
			if parsed.Slot == "" {
				parsed.Slot = strings.TrimSpace(strings.TrimPrefix(trimmed, "Slot:"))
			}
		default:
			content = append(content, line)
		}
	}

	parsed.Content = strings.TrimSpace(strings.Join(content, "\n"))
	return parsed
}

// IsDeliveryReport reports whether message content is the vendor's delivery
// report marker rather than a human message.
func IsDeliveryReport(content string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(content)), "DELIVERY REPORT")
}

// DeliveryReportFailed reports whether a delivery report indicates failure.
func DeliveryReportFailed(content string) bool {
	lower := strings.ToLower(content)
	return strings.Contains(lower, "fail") || strings.Contains(lower, "expired") || strings.Contains(lower, "rejected")
}
