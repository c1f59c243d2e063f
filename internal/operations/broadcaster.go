package operations

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tech-arch1tect/pawash/internal/archive"
	"github.com/tech-arch1tect/pawash/internal/download"

	"github.com/dustin/go-humanize"
)

// Broadcaster fans the messages of one operation out to every subscriber
// as server-sent events. Late subscribers get the full history first.
type Broadcaster struct {
	operationID string
	subscribers map[string]io.Writer
	messageLog  []StreamMessage
	onMessage   func(StreamMessage)
	mu          sync.Mutex
	completed   bool
	done        chan struct{}
}

func NewBroadcaster(operationID string, onMessage func(StreamMessage)) *Broadcaster {
	return &Broadcaster{
		operationID: operationID,
		subscribers: make(map[string]io.Writer),
		messageLog:  make([]StreamMessage, 0, 100),
		onMessage:   onMessage,
		done:        make(chan struct{}),
	}
}

func (b *Broadcaster) Subscribe(subscriberID string, writer io.Writer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, msg := range b.messageLog {
		writeEvent(writer, msg)
	}
	b.subscribers[subscriberID] = writer
}

func (b *Broadcaster) Unsubscribe(subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscribers, subscriberID)
}

func (b *Broadcaster) Broadcast(msgType StreamMessageType, data string) {
	b.publish(StreamMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now(),
	}, false)
}

// Complete records the final message and releases everyone waiting on
// Done. Only the first call has any effect.
func (b *Broadcaster) Complete(success bool, data string) {
	b.publish(StreamMessage{
		Type:      StreamTypeComplete,
		Data:      data,
		Success:   &success,
		Timestamp: time.Now(),
	}, true)
}

func (b *Broadcaster) publish(msg StreamMessage, final bool) {
	b.mu.Lock()
	if b.completed {
		b.mu.Unlock()
		return
	}

	b.messageLog = append(b.messageLog, msg)
	for _, w := range b.subscribers {
		writeEvent(w, msg)
	}

	if final {
		b.completed = true
		close(b.done)
	}
	b.mu.Unlock()

	if b.onMessage != nil {
		b.onMessage(msg)
	}
}

func (b *Broadcaster) Done() <-chan struct{} {
	return b.done
}

func (b *Broadcaster) Messages() []StreamMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	messages := make([]StreamMessage, len(b.messageLog))
	copy(messages, b.messageLog)
	return messages
}

func writeEvent(writer io.Writer, msg StreamMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}

	if _, err := fmt.Fprintf(writer, "data: %s\n\n", payload); err != nil {
		return
	}

	if flusher, ok := writer.(interface{ Flush() }); ok {
		defer func() { _ = recover() }()
		flusher.Flush()
	}
}

// BroadcasterProgressWriter adapts a Broadcaster to archive.ProgressWriter.
type BroadcasterProgressWriter struct {
	broadcaster *Broadcaster
}

var _ archive.ProgressWriter = (*BroadcasterProgressWriter)(nil)

func NewBroadcasterProgressWriter(broadcaster *Broadcaster) *BroadcasterProgressWriter {
	return &BroadcasterProgressWriter{broadcaster: broadcaster}
}

func (w *BroadcasterProgressWriter) WriteStdout(message string) {
	w.broadcaster.Broadcast(StreamTypeStdout, message)
}

// WriteError reports a recoverable problem. It does not end the stream;
// only Complete does.
func (w *BroadcasterProgressWriter) WriteError(message string) {
	w.broadcaster.Broadcast(StreamTypeStderr, message)
}

func (w *BroadcasterProgressWriter) WriteMessage(messageType, message string) {
	switch messageType {
	case string(StreamTypeStdout):
		w.WriteStdout(message)
	case string(StreamTypeStderr), string(StreamTypeError):
		w.WriteError(message)
	default:
		w.broadcaster.Broadcast(StreamTypeProgress, message)
	}
}

// BroadcasterReporter turns download progress into one progress message
// per whole percent.
type BroadcasterReporter struct {
	broadcaster *Broadcaster
	total       int64
	lastPercent int64
}

var _ download.Reporter = (*BroadcasterReporter)(nil)

func NewBroadcasterReporter(broadcaster *Broadcaster) *BroadcasterReporter {
	return &BroadcasterReporter{broadcaster: broadcaster, lastPercent: -1}
}

func (r *BroadcasterReporter) Start(url string, total int64) {
	r.total = total
	r.broadcaster.Broadcast(StreamTypeStdout, fmt.Sprintf("Downloading %s (%s)", url, humanize.Bytes(uint64(total))))
}

func (r *BroadcasterReporter) Advance(position int64) {
	percent := int64(100)
	if r.total > 0 {
		percent = position * 100 / r.total
	}
	if percent == r.lastPercent {
		return
	}
	r.lastPercent = percent
	r.broadcaster.Broadcast(StreamTypeProgress, fmt.Sprintf("%d%% (%s of %s)", percent,
		humanize.Bytes(uint64(position)), humanize.Bytes(uint64(r.total))))
}

func (r *BroadcasterReporter) Finish(url, path string) {
	r.broadcaster.Broadcast(StreamTypeStdout, fmt.Sprintf("Downloaded %s to %s", url, path))
}
