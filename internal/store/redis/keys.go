package redis

const (
	// KeyPrefix namespaces every key written by tabguard.
	KeyPrefix = "tabguard:"

	// KeySettings holds the user settings JSON blob.
	KeySettings = KeyPrefix + "settings"
	// KeyRuntime holds the runtime state JSON blob (alerts, snooze, undo).
	KeyRuntime = KeyPrefix + "runtime"
	// KeyEvents is the sorted set of metric events scored by unix millis.
	KeyEvents = KeyPrefix + "events"
	// KeyCommands is the list of mutations waiting for the extension.
	KeyCommands = KeyPrefix + "commands"
	// KeyReportLatest holds the last weekly report.
	KeyReportLatest = KeyPrefix + "report:latest"
)
