package slack

import (
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/tzrikka/conduct/pkg/config"
)

// TimpaniTaskQueue is the Temporal task queue of the Timpani worker.
// It is set once at startup, before any workflow runs.
var TimpaniTaskQueue = config.DefaultTimpaniTaskQueue

// executeTimpaniActivity requests the execution of a [Timpani] activity in the context of
// a Temporal workflow, with preconfigured activity options related to timeouts and retries.
//
// [Timpani]: https://github.com/tzrikka/timpani/tree/main/pkg/api
func executeTimpaniActivity[T any](ctx workflow.Context, name string, req any) (*T, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		TaskQueue:              TimpaniTaskQueue,
		ScheduleToStartTimeout: config.ScheduleToStartTimeout,
		StartToCloseTimeout:    config.StartToCloseTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: config.MaxRetryAttempts,
		},
	})

	resp := new(T)
	if err := workflow.ExecuteActivity(ctx, name, req).Get(ctx, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func apiError(r slackResponse) error {
	if r.OK {
		return nil
	}
	if r.Error == "" {
		return errors.New("slack API error")
	}
	return fmt.Errorf("slack API error: %s", r.Error)
}

// ChatGetPermalink returns the permalink URL of a specific message:
// https://docs.slack.dev/reference/methods/chat.getPermalink
func ChatGetPermalink(ctx workflow.Context, channelID, ts string) (string, error) {
	req := ChatGetPermalinkRequest{Channel: channelID, MessageTS: ts}
	resp, err := executeTimpaniActivity[ChatGetPermalinkResponse](ctx, ChatGetPermalinkActivity, req)
	if err != nil {
		return "", err
	}
	if err := apiError(resp.slackResponse); err != nil {
		return "", err
	}
	return resp.Permalink, nil
}

// ChatPostMessage posts a message with full control over threading, including
// "reply_broadcast": https://docs.slack.dev/reference/methods/chat.postMessage
func ChatPostMessage(ctx workflow.Context, req ChatPostMessageRequest) (string, error) {
	resp, err := executeTimpaniActivity[ChatPostMessageResponse](ctx, ChatPostMessageActivity, req)
	if err != nil {
		return "", err
	}
	if err := apiError(resp.slackResponse); err != nil {
		return "", err
	}
	return resp.TS, nil
}

// ChatUpdate replaces the text and blocks of an existing message:
// https://docs.slack.dev/reference/methods/chat.update
func ChatUpdate(ctx workflow.Context, req ChatUpdateRequest) error {
	resp, err := executeTimpaniActivity[ChatUpdateResponse](ctx, ChatUpdateActivity, req)
	if err != nil {
		return err
	}
	return apiError(resp.slackResponse)
}

// ReactionsGet returns the names of all the reactions on a specific message:
// https://docs.slack.dev/reference/methods/reactions.get
func ReactionsGet(ctx workflow.Context, channelID, ts string) ([]string, error) {
	req := ReactionsGetRequest{Channel: channelID, Timestamp: ts, Full: true}
	resp, err := executeTimpaniActivity[ReactionsGetResponse](ctx, ReactionsGetActivity, req)
	if err != nil {
		return nil, err
	}
	if err := apiError(resp.slackResponse); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.Message.Reactions))
	for _, r := range resp.Message.Reactions {
		names = append(names, r.Name)
	}
	return names, nil
}

// SearchMessages returns one page of messages matching a query, newest first:
// https://docs.slack.dev/reference/methods/search.messages
func SearchMessages(ctx workflow.Context, query string, count, page int) ([]SearchMatch, Paging, error) {
	req := SearchMessagesRequest{Query: query, Count: count, Page: page, Sort: "timestamp", SortDir: "desc"}
	resp, err := executeTimpaniActivity[SearchMessagesResponse](ctx, SearchMessagesActivity, req)
	if err != nil {
		return nil, Paging{}, err
	}
	if err := apiError(resp.slackResponse); err != nil {
		return nil, Paging{}, err
	}
	return resp.Messages.Matches, resp.Messages.Paging, nil
}

// ViewsOpen opens a modal view in response to a user interaction:
// https://docs.slack.dev/reference/methods/views.open
func ViewsOpen(ctx workflow.Context, triggerID string, view map[string]any) error {
	req := ViewsOpenRequest{TriggerID: triggerID, View: view}
	resp, err := executeTimpaniActivity[ViewsOpenResponse](ctx, ViewsOpenActivity, req)
	if err != nil {
		return err
	}
	return apiError(resp.slackResponse)
}
