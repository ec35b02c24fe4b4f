package notify

// Message is the rendered content of a single Slack message: a plain-text
// fallback for notifications and screen readers, and optional Block Kit blocks.
type Message struct {
	Text   string
	Blocks []map[string]any
}

func header(text string) map[string]any {
	return map[string]any{
		"type": "header",
		"text": plainText(text),
	}
}

func section(mrkdwn string) map[string]any {
	return map[string]any{
		"type": "section",
		"text": map[string]any{"type": "mrkdwn", "text": mrkdwn},
	}
}

// fields returns a section block with up to 10 two-column fields,
// which is the maximum that Slack allows in a single section.
func fields(fs ...string) map[string]any {
	if len(fs) > 10 {
		fs = fs[:10]
	}
	items := make([]map[string]any, 0, len(fs))
	for _, f := range fs {
		items = append(items, map[string]any{"type": "mrkdwn", "text": f})
	}
	return map[string]any{
		"type":   "section",
		"fields": items,
	}
}

func contextBlock(mrkdwn string) map[string]any {
	return map[string]any{
		"type":     "context",
		"elements": []map[string]any{{"type": "mrkdwn", "text": mrkdwn}},
	}
}

func divider() map[string]any {
	return map[string]any{"type": "divider"}
}

func actions(blockID string, buttons ...map[string]any) map[string]any {
	return map[string]any{
		"type":     "actions",
		"block_id": blockID,
		"elements": buttons,
	}
}

// button returns a button element. The style is either
// empty (default), "primary" (green), or "danger" (red).
func button(actionID, text, value, style string) map[string]any {
	b := map[string]any{
		"type":      "button",
		"action_id": actionID,
		"text":      plainText(text),
		"value":     value,
	}
	if style != "" {
		b["style"] = style
	}
	return b
}

func plainText(s string) map[string]any {
	return map[string]any{"type": "plain_text", "text": s, "emoji": true}
}
