package operations

import (
	"time"
)

type Kind string

const (
	KindCompress Kind = "compress"
	KindDownload Kind = "download"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type DownloadRequest struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

type OperationResponse struct {
	OperationID string `json:"operationId"`
}

type StreamMessageType string

const (
	StreamTypeStdout   StreamMessageType = "stdout"
	StreamTypeStderr   StreamMessageType = "stderr"
	StreamTypeProgress StreamMessageType = "progress"
	StreamTypeComplete StreamMessageType = "complete"
	StreamTypeError    StreamMessageType = "error"
)

type StreamMessage struct {
	Type      StreamMessageType `json:"type"`
	Data      string            `json:"data,omitempty"`
	Success   *bool             `json:"success,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Operation is the externally visible state of one background job.
type Operation struct {
	ID        string     `json:"id"`
	Kind      Kind       `json:"kind"`
	Target    string     `json:"target"`
	Status    Status     `json:"status"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Error     string     `json:"error,omitempty"`
	Result    any        `json:"result,omitempty"`

	broadcaster *Broadcaster
}
