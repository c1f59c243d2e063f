package operations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/tech-arch1tect/pawash/internal/archive"
	"github.com/tech-arch1tect/pawash/internal/download"
	"github.com/tech-arch1tect/pawash/internal/logging"
	"github.com/tech-arch1tect/pawash/internal/websocket"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrOperationNotFound = errors.New("operation not found")
	ErrTargetBusy        = errors.New("another operation is already writing to this target")
)

type EventPublisher interface {
	BroadcastOperationProgress(event websocket.OperationProgressEvent)
}

type Service struct {
	archiveService *archive.Service
	downloader     *download.Downloader
	publisher      EventPublisher
	logger         *logging.Logger

	operations    map[string]*Operation
	activeTargets map[string]string
	mutex         sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewService(archiveService *archive.Service, downloader *download.Downloader, publisher EventPublisher, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		archiveService: archiveService,
		downloader:     downloader,
		publisher:      publisher,
		logger:         logger.With(zap.String("service", "operations")),
		operations:     make(map[string]*Operation),
		activeTargets:  make(map[string]string),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// StartCompress validates req, registers a compress operation and runs it
// in the background. Only one operation may write a given archive path at
// a time; the path is keyed after symlink resolution, the same way
// archive.Service.Compress resolves it.
func (s *Service) StartCompress(req archive.Request) (string, error) {
	name, err := archive.ValidateName(req.ArchiveName)
	if err != nil {
		return "", err
	}

	if _, err := archive.ValidateDirectory(req.SourceDir); err != nil {
		return "", err
	}

	destDir, err := archive.ValidateDirectory(req.DestinationDir)
	if err != nil {
		return "", err
	}
	target := filepath.Join(destDir, name)

	op, err := s.register(KindCompress, target)
	if err != nil {
		return "", err
	}

	s.run(op, func(ctx context.Context) (any, error) {
		return s.archiveService.Compress(req, NewBroadcasterProgressWriter(op.broadcaster))
	})

	return op.ID, nil
}

func (s *Service) StartDownload(req DownloadRequest) (string, error) {
	dest := req.Path
	if dest == "" {
		dest = download.DefaultPath(req.URL)
	}

	target, err := resolveTarget(dest)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	op, err := s.register(KindDownload, target)
	if err != nil {
		return "", err
	}

	s.run(op, func(ctx context.Context) (any, error) {
		return s.downloader.Download(ctx, req.URL, target, NewBroadcasterReporter(op.broadcaster))
	})

	return op.ID, nil
}

// resolveTarget makes path absolute and resolves symlinks in its parent
// directory, so every spelling of one file maps to the same lock key. The
// file itself need not exist yet.
func resolveTarget(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return abs, nil
	}
	return filepath.Join(dir, filepath.Base(abs)), nil
}

func (s *Service) register(kind Kind, target string) (*Operation, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if existingID, exists := s.activeTargets[target]; exists {
		s.logger.Warn("operation already running on target",
			zap.String("target", target),
			zap.String("existing_operation_id", existingID),
		)
		return nil, fmt.Errorf("%w: %s (operation %s)", ErrTargetBusy, target, existingID)
	}

	operationID := uuid.New().String()
	op := &Operation{
		ID:        operationID,
		Kind:      kind,
		Target:    target,
		Status:    StatusRunning,
		StartTime: time.Now(),
	}
	op.broadcaster = NewBroadcaster(operationID, func(msg StreamMessage) {
		s.publish(op, msg)
	})

	s.operations[operationID] = op
	s.activeTargets[target] = operationID

	s.logger.Info("operation started",
		zap.String("operation_id", operationID),
		zap.String("kind", string(kind)),
		zap.String("target", target),
	)

	return op, nil
}

func (s *Service) run(op *Operation, fn func(ctx context.Context) (any, error)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result, err := fn(s.ctx)
		s.finish(op, result, err)
	}()
}

func (s *Service) finish(op *Operation, result any, err error) {
	now := time.Now()

	s.mutex.Lock()
	op.EndTime = &now
	op.Result = result
	if err != nil {
		op.Status = StatusFailed
		op.Error = err.Error()
	} else {
		op.Status = StatusCompleted
	}
	delete(s.activeTargets, op.Target)
	s.mutex.Unlock()

	if err != nil {
		s.logger.Error("operation failed",
			zap.String("operation_id", op.ID),
			zap.String("kind", string(op.Kind)),
			zap.Error(err),
		)
		op.broadcaster.Complete(false, err.Error())
		return
	}

	s.logger.Info("operation completed",
		zap.String("operation_id", op.ID),
		zap.String("kind", string(op.Kind)),
		zap.Duration("elapsed", now.Sub(op.StartTime)),
	)
	op.broadcaster.Complete(true, "")
}

func (s *Service) publish(op *Operation, msg StreamMessage) {
	if s.publisher == nil {
		return
	}

	event := websocket.OperationProgressEvent{
		OperationID: op.ID,
		Operation:   string(op.Kind),
		Target:      op.Target,
		StreamType:  string(msg.Type),
		Data:        msg.Data,
		Completed:   msg.Type == StreamTypeComplete,
	}
	event.Timestamp = msg.Timestamp
	if msg.Success != nil {
		event.Success = *msg.Success
	}

	s.publisher.BroadcastOperationProgress(event)
}

// GetOperation returns a snapshot of the operation's current state.
func (s *Service) GetOperation(operationID string) (Operation, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	op, exists := s.operations[operationID]
	if !exists {
		return Operation{}, false
	}
	return *op, true
}

// StreamOperation writes the operation's messages to writer until it
// completes or ctx ends.
func (s *Service) StreamOperation(ctx context.Context, operationID string, writer io.Writer) error {
	s.mutex.RLock()
	op, exists := s.operations[operationID]
	s.mutex.RUnlock()
	if !exists {
		return ErrOperationNotFound
	}

	subscriberID := uuid.New().String()
	op.broadcaster.Subscribe(subscriberID, writer)
	defer op.broadcaster.Unsubscribe(subscriberID)

	select {
	case <-op.broadcaster.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until the operation finishes or ctx ends.
func (s *Service) Wait(ctx context.Context, operationID string) (Operation, error) {
	s.mutex.RLock()
	op, exists := s.operations[operationID]
	s.mutex.RUnlock()
	if !exists {
		return Operation{}, ErrOperationNotFound
	}

	select {
	case <-op.broadcaster.Done():
	case <-ctx.Done():
		return Operation{}, ctx.Err()
	}

	snapshot, _ := s.GetOperation(operationID)
	return snapshot, nil
}

// Close cancels running downloads and waits for every operation to finish.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}
