package taskname

const (
	// Task lifecycle
	TaskDeadlineSweep = "task:deadline:sweep"

	// Broadcast tasks
	BroadcastDeliver = "broadcast:deliver"
)
