package slack

// Names of Timpani activities which wrap Slack API methods.
const (
	ChatGetPermalinkActivity = "slack.chat.getPermalink"
	ChatPostMessageActivity  = "slack.chat.postMessage"
	ChatUpdateActivity       = "slack.chat.update"
	ReactionsGetActivity     = "slack.reactions.get"
	SearchMessagesActivity   = "slack.search.messages"
	ViewsOpenActivity        = "slack.views.open"
)

// https://docs.slack.dev/reference/methods/chat.getPermalink
type ChatGetPermalinkRequest struct {
	Channel   string `json:"channel"`
	MessageTS string `json:"message_ts"`
}

// https://docs.slack.dev/reference/methods/chat.getPermalink
type ChatGetPermalinkResponse struct {
	slackResponse

	Channel   string `json:"channel,omitempty"`
	Permalink string `json:"permalink,omitempty"`
}

// https://docs.slack.dev/reference/methods/chat.postMessage
type ChatPostMessageRequest struct {
	Channel string `json:"channel"`

	Blocks         []map[string]any `json:"blocks,omitempty"`
	ReplyBroadcast bool             `json:"reply_broadcast,omitempty"`
	Text           string           `json:"text,omitempty"`
	ThreadTS       string           `json:"thread_ts,omitempty"`
	UnfurlLinks    bool             `json:"unfurl_links,omitempty"`
}

// https://docs.slack.dev/reference/methods/chat.postMessage
type ChatPostMessageResponse struct {
	slackResponse

	Channel string `json:"channel,omitempty"`
	TS      string `json:"ts,omitempty"`
}

// https://docs.slack.dev/reference/methods/chat.update
type ChatUpdateRequest struct {
	Channel string `json:"channel"`
	TS      string `json:"ts"`

	Blocks []map[string]any `json:"blocks,omitempty"`
	Text   string           `json:"text,omitempty"`
}

// https://docs.slack.dev/reference/methods/chat.update
type ChatUpdateResponse struct {
	slackResponse

	Channel string `json:"channel,omitempty"`
	TS      string `json:"ts,omitempty"`
}

// https://docs.slack.dev/reference/methods/reactions.get
type ReactionsGetRequest struct {
	Channel   string `json:"channel"`
	Timestamp string `json:"timestamp"`

	Full bool `json:"full,omitempty"`
}

// https://docs.slack.dev/reference/methods/reactions.get
type ReactionsGetResponse struct {
	slackResponse

	Type    string `json:"type,omitempty"`
	Channel string `json:"channel,omitempty"`
	Message struct {
		TS        string     `json:"ts"`
		Reactions []Reaction `json:"reactions,omitempty"`
	} `json:"message"`
}

// https://docs.slack.dev/reference/events/message/#stars
type Reaction struct {
	Name  string   `json:"name"`
	Users []string `json:"users,omitempty"`
	Count int      `json:"count,omitempty"`
}

// https://docs.slack.dev/reference/methods/search.messages
type SearchMessagesRequest struct {
	Query string `json:"query"`

	Count     int    `json:"count,omitempty"`
	Page      int    `json:"page,omitempty"`
	Highlight bool   `json:"highlight,omitempty"`
	Sort      string `json:"sort,omitempty"`     // "score" or "timestamp".
	SortDir   string `json:"sort_dir,omitempty"` // "asc" or "desc".
}

// https://docs.slack.dev/reference/methods/search.messages
type SearchMessagesResponse struct {
	slackResponse

	Query    string `json:"query,omitempty"`
	Messages struct {
		Total   int           `json:"total"`
		Matches []SearchMatch `json:"matches,omitempty"`
		Paging  Paging        `json:"paging"`
	} `json:"messages"`
}

type SearchMatch struct {
	Type      string  `json:"type,omitempty"`
	TS        string  `json:"ts"`
	Text      string  `json:"text,omitempty"`
	User      string  `json:"user,omitempty"`
	Username  string  `json:"username,omitempty"`
	Permalink string  `json:"permalink,omitempty"`
	Channel   Channel `json:"channel"`
}

type Paging struct {
	Count int `json:"count"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// https://docs.slack.dev/reference/methods/views.open
type ViewsOpenRequest struct {
	TriggerID string         `json:"trigger_id"`
	View      map[string]any `json:"view"`
}

// https://docs.slack.dev/reference/methods/views.open
type ViewsOpenResponse struct {
	slackResponse

	View map[string]any `json:"view,omitempty"`
}

type slackResponse struct {
	OK               bool              `json:"ok"`
	Error            string            `json:"error,omitempty"`
	Needed           string            `json:"needed,omitempty"`   // Scope errors (undocumented).
	Provided         string            `json:"provided,omitempty"` // Scope errors (undocumented).
	Warning          string            `json:"warning,omitempty"`
	ResponseMetadata *responseMetadata `json:"response_metadata,omitempty"`
}

type responseMetadata struct {
	Messages   []string `json:"messages,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	NextCursor string   `json:"next_cursor,omitempty"`
}
