package workflows

import (
	"testing"

	"github.com/tzrikka/conduct/pkg/slack"
	"github.com/tzrikka/conduct/pkg/tracker"
)

func TestParseCaseID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    tracker.Key
		wantErr bool
	}{
		{
			name: "valid",
			id:   "C123/1700000000.000100",
			want: tracker.Key{Channel: "C123", ThreadTS: "1700000000.000100"},
		},
		{
			name:    "empty",
			wantErr: true,
		},
		{
			name:    "missing_ts",
			id:      "C123/",
			wantErr: true,
		},
		{
			name:    "extra_separator",
			id:      "C123/1/2",
			wantErr: true,
		},
		{
			name:    "json",
			id:      `{"p":1}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCaseID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCaseID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseCaseID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseCaseIDRoundTrip(t *testing.T) {
	k := tracker.Key{Channel: "C1", ThreadTS: "123.456"}
	got, err := parseCaseID(k.String())
	if err != nil {
		t.Fatalf("parseCaseID() error = %v", err)
	}
	if got != k {
		t.Errorf("parseCaseID() = %v, want %v", got, k)
	}
}

func TestCaseKey(t *testing.T) {
	event := slack.InteractionEvent{
		Channel: &slack.Channel{ID: "C2"},
		Message: &slack.Message{TS: "2.2", ThreadTS: "1.1"},
	}

	tests := []struct {
		name    string
		event   slack.InteractionEvent
		value   string
		want    tracker.Key
		wantErr bool
	}{
		{
			name:  "from_value",
			event: event,
			value: "C1/9.9",
			want:  tracker.Key{Channel: "C1", ThreadTS: "9.9"},
		},
		{
			name:  "from_thread",
			event: event,
			want:  tracker.Key{Channel: "C2", ThreadTS: "1.1"},
		},
		{
			name:    "unknown",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := caseKey(tt.event, slack.Action{ActionID: "a", Value: tt.value})
			if (err != nil) != tt.wantErr {
				t.Fatalf("caseKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("caseKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReactionName(t *testing.T) {
	tests := []struct {
		reaction string
		want     string
	}{
		{"ban", "ban"},
		{"white_check_mark", "white_check_mark"},
		{"thumbsup::skin-tone-3", "thumbsup"},
	}
	for _, tt := range tests {
		if got := reactionName(tt.reaction); got != tt.want {
			t.Errorf("reactionName(%q) = %q, want %q", tt.reaction, got, tt.want)
		}
	}
}

func TestEventID(t *testing.T) {
	reaction := &slack.ReactionEventWrapper{}
	reaction.InnerEvent.Reaction = "ban"
	reaction.InnerEvent.Item.Channel = "C1"
	reaction.InnerEvent.Item.TS = "1.2"

	tests := []struct {
		name    string
		signal  string
		payload any
		want    string
	}{
		{
			name:    "reaction",
			signal:  Signals[0],
			payload: reaction,
			want:    "reaction_C1_1.2_ban",
		},
		{
			name:   "block_action",
			signal: Signals[1],
			payload: &slack.InteractionEvent{
				User:    slack.User{ID: "U1"},
				Channel: &slack.Channel{ID: "C1"},
				Actions: []slack.Action{{ActionID: "history_next"}},
			},
			want: "history_next_C1_U1",
		},
		{
			name:    "block_action_without_actions",
			signal:  Signals[1],
			payload: &slack.InteractionEvent{},
		},
		{
			name:   "view_submission",
			signal: Signals[2],
			payload: &slack.InteractionEvent{
				User: slack.User{ID: "U1"},
				View: &slack.View{ID: "V1", CallbackID: "conduct_report"},
			},
			want: "conduct_report_V1_U1",
		},
		{
			name:    "slash_command",
			signal:  Signals[3],
			payload: &slack.SlashCommandEvent{Command: "/prevreports", ChannelID: "C1", UserID: "U1"},
			want:    "prevreports_C1_U1",
		},
		{
			name:    "mismatched_payload",
			signal:  Signals[3],
			payload: reaction,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eventID(tt.signal, tt.payload); got != tt.want {
				t.Errorf("eventID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAllowed(t *testing.T) {
	c := &Config{AllowedChannels: []string{"C1", "C2"}}
	if !c.allowed("C2") {
		t.Error("allowed(C2) = false, want true")
	}
	if c.allowed("C3") {
		t.Error("allowed(C3) = true, want false")
	}
}
