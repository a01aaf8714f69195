package rediskey

import "fmt"

const (
	StatsPrefix = "stats"
	TaskPrefix  = "task"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildStatsKey returns "stats:{period}"
func BuildStatsKey(period string) string {
	return NamespaceKey(StatsPrefix, period)
}

// BuildTaskKey returns "task:{taskID}"
func BuildTaskKey(taskID string) string {
	return NamespaceKey(TaskPrefix, taskID)
}
