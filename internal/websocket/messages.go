package websocket

import "time"

type MessageType string

const (
	MessageTypeOperationProgress MessageType = "operation_progress"
	MessageTypeOperationComplete MessageType = "operation_complete"
)

type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

type OperationProgressEvent struct {
	BaseMessage
	OperationID string `json:"operation_id"`
	Operation   string `json:"operation"`
	Target      string `json:"target"`
	StreamType  string `json:"stream_type"`
	Data        string `json:"data,omitempty"`
	Completed   bool   `json:"completed"`
	Success     bool   `json:"success,omitempty"`
}
