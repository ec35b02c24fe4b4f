package commands

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Sources of a user's moderation history.
const (
	SourceBoth     = "both"
	SourceSlack    = "slack"
	SourceAirtable = "airtable"
)

var (
	userMentionPattern = regexp.MustCompile(`^<@([UW][A-Z0-9]+)(\|[^>]*)?>$`)
	userIDPattern      = regexp.MustCompile(`^[UW][A-Z0-9]+$`)
)

// Args are the parsed arguments of the "/prevreports" command.
type Args struct {
	Subject string
	Source  string
}

// ParseArgs parses the text of a "/prevreports" command:
// a user mention or ID, and an optional history source.
func ParseArgs(text string) (Args, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || len(fields) > 2 {
		return Args{}, errors.New("usage: `/prevreports @user [slack|airtable]`")
	}

	subject := ""
	if m := userMentionPattern.FindStringSubmatch(fields[0]); m != nil {
		subject = m[1]
	} else if id := strings.ToUpper(fields[0]); userIDPattern.MatchString(id) {
		subject = id
	}
	if subject == "" {
		return Args{}, fmt.Errorf("`%s` is not a user mention or a Slack user ID", fields[0])
	}

	source := ""
	if len(fields) == 2 {
		source = fields[1]
	}
	source, err := ParseSource(source)
	if err != nil {
		return Args{}, err
	}

	return Args{Subject: subject, Source: source}, nil
}

// ParseSource normalizes the name of a history source.
// An empty string means all the available sources.
func ParseSource(s string) (string, error) {
	switch strings.ToLower(s) {
	case "", SourceBoth:
		return SourceBoth, nil
	case SourceSlack:
		return SourceSlack, nil
	case SourceAirtable:
		return SourceAirtable, nil
	default:
		return "", fmt.Errorf("unknown source `%s`, expected `slack` or `airtable`", s)
	}
}

// SearchQuery returns the Slack search query of messages which mention a user.
func SearchQuery(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}
