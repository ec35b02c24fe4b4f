// Package forms defines the conduct report modal, and converts its
// submissions into validated records in a single pass.
package forms

// CallbackID identifies conduct report modal submissions.
const CallbackID = "conduct_report"

// Block and action IDs of the modal's inputs.
const (
	BlockSubjects         = "reported_users"
	BlockLeftUsers        = "left_user_id"
	BlockViolation        = "violation"
	BlockResolutionChoice = "resolution_choice"
	BlockResolutionCustom = "resolution_custom"
	BlockBanUntil         = "ban_until"
	BlockResolvedBy       = "resolved_by"

	ActionUsers   = "users"
	ActionValue   = "value"
	ActionOptions = "options"
	ActionDate    = "date"
)

// Resolutions is the fixed vocabulary of the resolution multi-select.
var Resolutions = []string{
	"Warning",
	"Temporary Ban",
	"Perma Ban",
	"Channel Ban",
	"Shush",
	"No Action Needed",
}

// Modal returns a "views.open" view definition of the conduct report form.
// The submitter is preselected as the person who resolved the case.
func Modal(metadata, submitter string) map[string]any {
	resolvedBy := map[string]any{
		"type":      "multi_users_select",
		"action_id": ActionUsers,
	}
	if submitter != "" {
		resolvedBy["initial_users"] = []string{submitter}
	}

	return map[string]any{
		"type":             "modal",
		"callback_id":      CallbackID,
		"private_metadata": metadata,
		"title":            plainText("FD Record Keeping"),
		"submit":           plainText("Submit"),
		"close":            plainText("Cancel"),
		"blocks": []map[string]any{
			input(BlockSubjects, "Users Being Reported?", true, map[string]any{
				"type":      "multi_users_select",
				"action_id": ActionUsers,
			}),
			input(BlockLeftUsers, "User IDs Of People Who Left Slack?", true, map[string]any{
				"type":        "plain_text_input",
				"action_id":   ActionValue,
				"placeholder": plainText("U01ABCDEF, U02GHIJKL"),
			}),
			input(BlockViolation, "What Did They Do?", false, map[string]any{
				"type":      "plain_text_input",
				"action_id": ActionValue,
				"multiline": true,
			}),
			input(BlockResolutionChoice, "How Was This Solved?", true, map[string]any{
				"type":      "multi_static_select",
				"action_id": ActionOptions,
				"options":   options(Resolutions),
			}),
			input(BlockResolutionCustom, "Something Else? (Overrides The Above)", true, map[string]any{
				"type":      "plain_text_input",
				"action_id": ActionValue,
				"multiline": true,
			}),
			input(BlockBanUntil, "If Banned, Until When?", true, map[string]any{
				"type":        "datepicker",
				"action_id":   ActionDate,
				"placeholder": plainText("Select a date"),
			}),
			input(BlockResolvedBy, "Who Resolved This? (Thank you btw <3)", false, resolvedBy),
		},
	}
}

func input(blockID, label string, optional bool, element map[string]any) map[string]any {
	return map[string]any{
		"type":     "input",
		"block_id": blockID,
		"label":    plainText(label),
		"optional": optional,
		"element":  element,
	}
}

func options(values []string) []map[string]any {
	opts := make([]map[string]any, 0, len(values))
	for _, v := range values {
		opts = append(opts, map[string]any{"text": plainText(v), "value": v})
	}
	return opts
}

func plainText(s string) map[string]any {
	return map[string]any{"type": "plain_text", "text": s, "emoji": true}
}
