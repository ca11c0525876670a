package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

const (
	logFlushInterval = 5 * time.Second
	logFlushSize     = 500
	// Entries beyond this are dropped while CloudWatch is unreachable.
	logMaxPending    = 10000
	logRetentionDays = 30
)

// LogsAPI is the part of the CloudWatch Logs client the shipper uses.
type LogsAPI interface {
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	PutRetentionPolicy(ctx context.Context, params *cloudwatchlogs.PutRetentionPolicyInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutRetentionPolicyOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// LogShipper is an io.Writer that buffers log lines and ships them to one
// CloudWatch Logs stream per process. Flushes happen on a timer, when the
// buffer reaches logFlushSize, and on Sync or Close.
type LogShipper struct {
	api    LogsAPI
	group  string
	stream string

	mu      sync.Mutex
	pending []types.InputLogEvent
	dropped int

	kick chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewLogShipper(ctx context.Context, cfg aws.Config, group, process string) (*LogShipper, error) {
	return NewLogShipperWithAPI(ctx, cloudwatchlogs.NewFromConfig(cfg), group, process)
}

// NewLogShipperWithAPI creates the group and stream, then starts the flush loop.
func NewLogShipperWithAPI(ctx context.Context, api LogsAPI, group, process string) (*LogShipper, error) {
	if group == "" {
		group = "/storefront/backend"
	}
	s := &LogShipper{
		api:    api,
		group:  group,
		stream: fmt.Sprintf("%s-%d", process, time.Now().Unix()),
		kick:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	_, err := api.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{LogGroupName: aws.String(group)})
	var exists *types.ResourceAlreadyExistsException
	if err != nil && !errors.As(err, &exists) {
		return nil, fmt.Errorf("create log group %s: %w", group, err)
	}
	if _, err := api.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
		LogGroupName:    aws.String(group),
		RetentionInDays: aws.Int32(logRetentionDays),
	}); err != nil {
		return nil, fmt.Errorf("set retention on %s: %w", group, err)
	}
	if _, err := api.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(group),
		LogStreamName: aws.String(s.stream),
	}); err != nil {
		return nil, fmt.Errorf("create log stream %s: %w", s.stream, err)
	}

	go s.loop()
	return s, nil
}

func (s *LogShipper) Stream() string { return s.stream }

// Write copies p; zap reuses its buffers.
func (s *LogShipper) Write(p []byte) (int, error) {
	event := types.InputLogEvent{
		Message:   aws.String(string(p)),
		Timestamp: aws.Int64(time.Now().UnixMilli()),
	}

	s.mu.Lock()
	if len(s.pending) >= logMaxPending {
		s.dropped++
		s.mu.Unlock()
		return len(p), nil
	}
	s.pending = append(s.pending, event)
	full := len(s.pending) >= logFlushSize
	s.mu.Unlock()

	if full {
		select {
		case s.kick <- struct{}{}:
		default:
		}
	}
	return len(p), nil
}

// Sync ships everything buffered so far.
func (s *LogShipper) Sync() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.flush(ctx)
}

// Close stops the flush loop and ships what is left.
func (s *LogShipper) Close() error {
	s.once.Do(func() { close(s.stop) })
	<-s.done
	return s.Sync()
}

func (s *LogShipper) loop() {
	defer close(s.done)
	ticker := time.NewTicker(logFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		case <-s.kick:
		}
		if err := s.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "cloudwatch logs: %v\n", err)
		}
	}
}

func (s *LogShipper) flush(ctx context.Context) error {
	s.mu.Lock()
	batch := s.pending
	dropped := s.dropped
	s.pending = nil
	s.dropped = 0
	s.mu.Unlock()

	if dropped > 0 {
		batch = append(batch, types.InputLogEvent{
			Message:   aws.String(fmt.Sprintf(`{"level":"warn","msg":"dropped %d log entries"}`, dropped)),
			Timestamp: aws.Int64(time.Now().UnixMilli()),
		})
	}

	for start := 0; start < len(batch); start += logFlushSize {
		end := min(start+logFlushSize, len(batch))
		if _, err := s.api.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  aws.String(s.group),
			LogStreamName: aws.String(s.stream),
			LogEvents:     batch[start:end],
		}); err != nil {
			return fmt.Errorf("put %d log events: %w", end-start, err)
		}
	}
	return nil
}
