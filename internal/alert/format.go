package alert

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Payload formats.
const (
	FormatGeneric   = "generic"
	FormatSlack     = "slack"
	FormatPagerDuty = "pagerduty"
)

// FormatPayload builds the webhook body for format. Unknown formats fall
// back to the generic event JSON.
func FormatPayload(format string, event AlertEvent) ([]byte, error) {
	switch format {
	case FormatSlack:
		return json.Marshal(slackMessage(event))
	case FormatPagerDuty:
		return json.Marshal(pagerDutyEvent(event))
	default:
		return json.Marshal(event)
	}
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

func slackMessage(ev AlertEvent) slackPayload {
	field := func(label, value string) slackText {
		return slackText{Type: "mrkdwn", Text: fmt.Sprintf("*%s:* %s", label, orDash(value))}
	}
	return slackPayload{Blocks: []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: "threadshift: " + ev.Event}},
		{Type: "section", Fields: []slackText{
			field("Swap", ev.SwapID),
			field("Garment", ev.Garment),
			field("Pair", pair(ev)),
			field("Zones", strings.Join(ev.Zones, ", ")),
		}},
	}}
}

type pdDetails struct {
	Summary       string     `json:"summary"`
	Severity      string     `json:"severity"`
	Source        string     `json:"source"`
	CustomDetails AlertEvent `json:"custom_details"`
}

type pdPayload struct {
	EventAction string    `json:"event_action"`
	Payload     pdDetails `json:"payload"`
}

// pagerDutyEvent raises reversals as warnings and everything else as info.
func pagerDutyEvent(ev AlertEvent) pdPayload {
	severity := "info"
	if ev.Event == "swap_reversed" {
		severity = "warning"
	}
	return pdPayload{
		EventAction: "trigger",
		Payload: pdDetails{
			Summary:       fmt.Sprintf("threadshift %s: %s", ev.Event, orDash(ev.SwapID)),
			Severity:      severity,
			Source:        "threadshift",
			CustomDetails: ev,
		},
	}
}

func pair(ev AlertEvent) string {
	if ev.Source == "" && ev.Target == "" {
		return ""
	}
	return orDash(ev.Source) + " -> " + orDash(ev.Target)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
