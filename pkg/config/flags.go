package config

import (
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
	"go.temporal.io/sdk/client"

	"github.com/tzrikka/conduct/internal/logger"
	"github.com/tzrikka/xdg"
)

const (
	DirName        = "conduct"
	ConfigFileName = "config.toml"

	DefaultOTLPEndpoint = "https://localhost:4318"
	DefaultOTLPTimeout  = 10000 // 10 seconds.

	DefaultConductTaskQueue = "conduct"
	DefaultTimpaniTaskQueue = "timpani"

	ScheduleToStartTimeout = time.Minute
	StartToCloseTimeout    = 10 * time.Second
	MaxRetryAttempts       = 5

	DefaultTriggerReaction  = "ban"
	DefaultResolveReactions = "{check,white_check_mark,heavy_check_mark,x}"
	DefaultWaitingReactions = "hourglass*"
	DefaultUrgentReaction   = "rotating_light"

	DefaultAirtableTable = "Conduct Reports"
	DefaultHackatimeURL  = "https://hackatime.hackclub.com/api/admin/v1/execute"

	DefaultTimezone          = "America/New_York"
	DefaultExpiryDigestTime  = "9:00AM"
	DefaultSweepInterval     = 30 * time.Second
	DefaultAuditPollInterval = 5 * time.Minute
	DefaultLedgerRetention   = 90 * 24 * time.Hour
)

// configFile returns the path to the app's configuration file.
// It also creates an empty file if it doesn't already exist.
func configFile() altsrc.StringSourcer {
	path, _ := xdg.FindConfigFile(DirName, ConfigFileName)
	if path != "" {
		return altsrc.StringSourcer(path)
	}

	path, err := xdg.CreateFile(xdg.ConfigHome, DirName, ConfigFileName)
	if err != nil {
		logger.Fatal("failed to create config file", err)
	}
	return altsrc.StringSourcer(path)
}

// Flags defines CLI flags to configure a Temporal worker. These flags are usually
// set using environment variables or the application's configuration file.
func Flags() []cli.Flag {
	path := configFile()

	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "dev",
			Usage: "simple setup (in-memory record store), but unsafe for production",
		},
		&cli.BoolFlag{
			Name:  "pretty-log",
			Usage: "human-readable console logging, instead of JSON",
		},

		// https://pkg.go.dev/go.temporal.io/sdk/internal#ClientOptions
		&cli.StringFlag{
			Name:  "temporal-address",
			Usage: "Temporal server address",
			Value: client.DefaultHostPort,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("TEMPORAL_ADDRESS"),
				toml.TOML("temporal.address", path),
			),
		},
		&cli.StringFlag{
			Name:  "temporal-namespace",
			Usage: "Temporal namespace",
			Value: client.DefaultNamespace,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("TEMPORAL_NAMESPACE"),
				toml.TOML("temporal.namespace", path),
			),
		},

		// Worker parameters.
		&cli.StringFlag{
			Name:  "temporal-task-queue-conduct",
			Usage: "Temporal task queue for the Conduct worker",
			Value: DefaultConductTaskQueue,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("TEMPORAL_TASK_QUEUE_CONDUCT"),
				toml.TOML("temporal.conduct_task_queue", path),
			),
		},
		&cli.StringFlag{
			Name:  "temporal-task-queue-timpani",
			Usage: "Temporal task queue for the Timpani worker",
			Value: DefaultTimpaniTaskQueue,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("TEMPORAL_TASK_QUEUE_TIMPANI"),
				toml.TOML("temporal.timpani_task_queue", path),
			),
		},

		// https://github.com/open-telemetry/opentelemetry-go/blob/main/exporters/otlp/otlpmetric/otlpmetrichttp/doc.go
		&cli.BoolFlag{
			Name:  "otlp-disabled",
			Usage: "Disable exporting OTLP metrics",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("OTEL_EXPORTER_OTLP_DISABLED"),
				toml.TOML("otlp.disabled", path),
			),
		},
		&cli.StringFlag{
			Name:  "otlp-endpoint",
			Usage: "OTLP endpoint using HTTP",
			Value: DefaultOTLPEndpoint,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("OTEL_EXPORTER_OTLP_ENDPOINT"),
				toml.TOML("otlp.endpoint", path),
			),
		},
		&cli.Int64Flag{
			Name:  "otlp-timeout-ms",
			Usage: "OTLP batch export timeout in milliseconds",
			Value: DefaultOTLPTimeout,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("OTEL_EXPORTER_OTLP_TIMEOUT_MS"),
				toml.TOML("otlp.timeout_ms", path),
			),
		},
		&cli.StringFlag{
			Name:  "otlp-compression",
			Usage: "OTLP compression method (e.g. gzip)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("OTEL_EXPORTER_OTLP_COMPRESSION"),
				toml.TOML("otlp.compression", path),
			),
		},

		// Slack.
		&cli.StringSliceFlag{
			Name:  "slack-allowed-channels",
			Usage: "Slack channel IDs where reactions and commands are accepted",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SLACK_ALLOWED_CHANNELS"),
				toml.TOML("slack.allowed_channels", path),
			),
			Required: true,
		},
		&cli.StringFlag{
			Name:  "slack-notify-channel",
			Usage: "Optional Slack channel for ban notices",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SLACK_NOTIFY_CHANNEL"),
				toml.TOML("slack.notify_channel", path),
			),
		},
		&cli.StringFlag{
			Name:  "slack-expiry-channel",
			Usage: "Optional Slack channel for the daily ban expiry digest",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SLACK_EXPIRY_CHANNEL"),
				toml.TOML("slack.expiry_channel", path),
			),
		},
		&cli.StringFlag{
			Name:  "slack-audit-channel",
			Usage: "Optional Slack channel for relayed Hackatime bans",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SLACK_AUDIT_CHANNEL"),
				toml.TOML("slack.audit_channel", path),
			),
		},
		&cli.StringFlag{
			Name:  "slack-trigger-reaction",
			Usage: "Reaction name that offers to file a conduct report",
			Value: DefaultTriggerReaction,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SLACK_TRIGGER_REACTION"),
				toml.TOML("slack.trigger_reaction", path),
			),
		},
		&cli.StringFlag{
			Name:  "slack-resolve-reactions",
			Usage: "Glob pattern of reaction names that resolve or cancel a case",
			Value: DefaultResolveReactions,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SLACK_RESOLVE_REACTIONS"),
				toml.TOML("slack.resolve_reactions", path),
			),
		},
		&cli.StringFlag{
			Name:  "slack-waiting-reactions",
			Usage: "Glob pattern of reaction names that mark a case as still waiting",
			Value: DefaultWaitingReactions,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SLACK_WAITING_REACTIONS"),
				toml.TOML("slack.waiting_reactions", path),
			),
		},
		&cli.StringFlag{
			Name:  "slack-urgent-reaction",
			Usage: "Reaction name added to escalated threads",
			Value: DefaultUrgentReaction,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SLACK_URGENT_REACTION"),
				toml.TOML("slack.urgent_reaction", path),
			),
		},

		// Airtable.
		&cli.StringFlag{
			Name:  "airtable-token",
			Usage: "Airtable personal access token",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("AIRTABLE_PAT"),
				toml.TOML("airtable.token", path),
			),
		},
		&cli.StringFlag{
			Name:  "airtable-base-id",
			Usage: "Airtable base ID",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("AIRTABLE_BASE_ID"),
				toml.TOML("airtable.base_id", path),
			),
		},
		&cli.StringFlag{
			Name:  "airtable-table",
			Usage: "Airtable table name for conduct reports",
			Value: DefaultAirtableTable,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("AIRTABLE_TABLE"),
				toml.TOML("airtable.table", path),
			),
		},

		// Hackatime.
		&cli.StringFlag{
			Name:  "hackatime-api-url",
			Usage: "Hackatime admin API query endpoint",
			Value: DefaultHackatimeURL,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("HACKATIME_API_URL"),
				toml.TOML("hackatime.api_url", path),
			),
		},
		&cli.StringFlag{
			Name:  "hackatime-api-key",
			Usage: "Hackatime admin API key (the audit relay is disabled without it)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("HACKATIME_ADMIN_API_KEY"),
				toml.TOML("hackatime.api_key", path),
			),
		},

		// Deduplication ledger.
		&cli.StringFlag{
			Name:  "ledger-redis-url",
			Usage: "Optional Redis URL for the deduplication ledger (default: local data file)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("LEDGER_REDIS_URL"),
				toml.TOML("ledger.redis_url", path),
			),
		},
		&cli.DurationFlag{
			Name:  "ledger-retention",
			Usage: "How long relayed audit event IDs are remembered",
			Value: DefaultLedgerRetention,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("LEDGER_RETENTION"),
				toml.TOML("ledger.retention", path),
			),
		},

		// Schedules.
		&cli.StringFlag{
			Name:  "timezone",
			Usage: "IANA timezone for ban expiry dates and the daily digest",
			Value: DefaultTimezone,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CONDUCT_TIMEZONE"),
				toml.TOML("schedules.timezone", path),
			),
		},
		&cli.StringFlag{
			Name:  "expiry-digest-time",
			Usage: "Local time of the daily ban expiry digest (12h or 24h format)",
			Value: DefaultExpiryDigestTime,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("EXPIRY_DIGEST_TIME"),
				toml.TOML("schedules.expiry_digest_time", path),
			),
		},
		&cli.DurationFlag{
			Name:  "sweep-interval",
			Usage: "Interval between sweeps of open moderation threads",
			Value: DefaultSweepInterval,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("SWEEP_INTERVAL"),
				toml.TOML("schedules.sweep_interval", path),
			),
		},
		&cli.DurationFlag{
			Name:  "audit-poll-interval",
			Usage: "Interval between Hackatime audit log polls",
			Value: DefaultAuditPollInterval,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("AUDIT_POLL_INTERVAL"),
				toml.TOML("schedules.audit_poll_interval", path),
			),
		},
	}
}
