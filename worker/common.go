package worker

import (
	"path"
	"time"
)

// resultsPrefix is where the group files of a run go: the prefix the
// requester asked for, or processed/runs/<redis key>.
func resultsPrefix(task *Task) string {
	if prefix := task.runTask.ResultsPrefix; prefix != "" {
		return prefix
	}
	return path.Join("processed", "runs", task.redisKey)
}

// runTimestamp is the UTC time stored on run task transitions.
func runTimestamp() *string {
	stamp := time.Now().UTC().Format("2006-01-02T15:04:05.000000Z07:00")
	return &stamp
}
