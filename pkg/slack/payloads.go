// Package slack defines the Slack payloads that Conduct receives from Timpani,
// and Slack API calls that are not covered by the Timpani API client.
package slack

// https://docs.slack.dev/apis/events-api/#events-JSON
type EventWrapper struct {
	APIAppID      string `json:"api_app_id"`
	TeamID        string `json:"team_id"`
	ContextTeamID string `json:"context_team_id"`

	EventID   string `json:"event_id"`
	EventTime int    `json:"event_time"`

	Authorizations []EventAuth `json:"authorizations"`
}

// https://docs.slack.dev/apis/events-api/#authorizations
type EventAuth struct {
	EnterpriseID        *string `json:"enterprise_id,omitempty"`
	TeamID              string  `json:"team_id"`
	UserID              string  `json:"user_id"`
	IsBot               bool    `json:"is_bot"`
	IsEnterpriseInstall bool    `json:"is_enterprise_install"`
}

type ReactionEventWrapper struct {
	EventWrapper

	InnerEvent ReactionEvent `json:"event"`
}

// https://docs.slack.dev/reference/events/reaction_added/
type ReactionEvent struct {
	User     string `json:"user"`
	Reaction string `json:"reaction"`

	Item struct {
		Type    string `json:"type"`
		Channel string `json:"channel,omitempty"`
		TS      string `json:"ts,omitempty"`
	} `json:"item"`

	ItemUser string `json:"item_user,omitempty"`

	EventTS string `json:"event_ts"`
}

// https://docs.slack.dev/interactivity/implementing-slash-commands/#app_command_handling
// https://docs.slack.dev/apis/events-api/using-socket-mode#command
type SlashCommandEvent struct {
	APIAppID string `json:"api_app_id"`

	IsEnterpriseInstall string `json:"is_enterprise_install"`
	EnterpriseID        string `json:"enterprise_id,omitempty"`
	TeamID              string `json:"team_id"`
	TeamDomain          string `json:"team_domain"`

	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`

	Command string `json:"command"`
	Text    string `json:"text"`

	ResponseURL string `json:"response_url"`
	TriggerID   string `json:"trigger_id"`
}

// InteractionEvent is a "block_actions" or "view_submission" payload:
//   - https://docs.slack.dev/reference/interaction-payloads/block_actions-payload
//   - https://docs.slack.dev/reference/interaction-payloads/view-interactions-payload#view_submission
type InteractionEvent struct {
	Type      string `json:"type"`
	TriggerID string `json:"trigger_id,omitempty"`

	User    User     `json:"user"`
	Channel *Channel `json:"channel,omitempty"`

	Container *Container `json:"container,omitempty"`
	Message   *Message   `json:"message,omitempty"`
	Actions   []Action   `json:"actions,omitempty"`
	View      *View      `json:"view,omitempty"`

	ResponseURL string `json:"response_url,omitempty"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	TeamID   string `json:"team_id,omitempty"`
}

type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type Container struct {
	Type        string `json:"type"`
	MessageTS   string `json:"message_ts,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
	ThreadTS    string `json:"thread_ts,omitempty"`
	IsEphemeral bool   `json:"is_ephemeral,omitempty"`
}

// Message is the message which contains the clicked button.
type Message struct {
	Type     string `json:"type,omitempty"`
	User     string `json:"user,omitempty"`
	BotID    string `json:"bot_id,omitempty"`
	Text     string `json:"text,omitempty"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts,omitempty"`
}

// https://docs.slack.dev/reference/block-kit/block-elements/button-element
type Action struct {
	Type     string `json:"type"`
	ActionID string `json:"action_id"`
	BlockID  string `json:"block_id,omitempty"`
	Value    string `json:"value,omitempty"`
	ActionTS string `json:"action_ts,omitempty"`
}

// https://docs.slack.dev/reference/views
type View struct {
	ID              string    `json:"id"`
	Type            string    `json:"type,omitempty"`
	CallbackID      string    `json:"callback_id,omitempty"`
	PrivateMetadata string    `json:"private_metadata,omitempty"`
	Hash            string    `json:"hash,omitempty"`
	State           ViewState `json:"state"`
}

// ViewState maps block IDs to action IDs to input values.
type ViewState struct {
	Values map[string]map[string]ViewStateValue `json:"values"`
}

// https://docs.slack.dev/reference/interaction-payloads/view-interactions-payload#view_submission
type ViewStateValue struct {
	Type string `json:"type"`

	Value           string   `json:"value,omitempty"`
	SelectedDate    string   `json:"selected_date,omitempty"`
	SelectedUser    string   `json:"selected_user,omitempty"`
	SelectedUsers   []string `json:"selected_users,omitempty"`
	SelectedOption  *Option  `json:"selected_option,omitempty"`
	SelectedOptions []Option `json:"selected_options,omitempty"`
}

// https://docs.slack.dev/reference/block-kit/composition-objects/option-object
type Option struct {
	Text  map[string]any `json:"text,omitempty"`
	Value string         `json:"value"`
}

// Get returns the value of a specific block and action, if it exists.
func (s ViewState) Get(blockID, actionID string) (ViewStateValue, bool) {
	actions, ok := s.Values[blockID]
	if !ok {
		return ViewStateValue{}, false
	}
	v, ok := actions[actionID]
	return v, ok
}

// ThreadTS returns the timestamp of the thread root of
// the message in which a block action was performed.
func (e InteractionEvent) ThreadTS() string {
	if e.Message != nil {
		if e.Message.ThreadTS != "" {
			return e.Message.ThreadTS
		}
		return e.Message.TS
	}
	if e.Container != nil {
		if e.Container.ThreadTS != "" {
			return e.Container.ThreadTS
		}
		return e.Container.MessageTS
	}
	return ""
}

// ChannelID returns the ID of the channel in which a block action was performed.
func (e InteractionEvent) ChannelID() string {
	if e.Channel != nil {
		return e.Channel.ID
	}
	if e.Container != nil {
		return e.Container.ChannelID
	}
	return ""
}

// MessageTS returns the timestamp of the message which contains the clicked button.
func (e InteractionEvent) MessageTS() string {
	if e.Message != nil {
		return e.Message.TS
	}
	if e.Container != nil {
		return e.Container.MessageTS
	}
	return ""
}
