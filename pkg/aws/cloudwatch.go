package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

const (
	logBatchSize     = 500
	logBufferLimit   = 10000
	logFlushInterval = 2 * time.Second
)

type logsAPI interface {
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// CloudWatchLogsClient ships log lines to a CloudWatch Logs stream. It is an
// io.Writer so it can back a zap core. Lines are buffered and sent in batches
// by a background goroutine; Write never waits on the network.
type CloudWatchLogsClient struct {
	client        logsAPI
	logGroupName  string
	logStreamName string

	mu      sync.Mutex
	pending []types.InputLogEvent
	dropped int

	// flushMu keeps batches in order between the ticker and Sync.
	flushMu   sync.Mutex
	wake      chan struct{}
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewCloudWatchLogsClient ensures the group and a per-process stream exist.
func NewCloudWatchLogsClient(ctx context.Context, cfg sdkaws.Config, logGroup, serviceName string) (*CloudWatchLogsClient, error) {
	if logGroup == "" {
		logGroup = "/storefront/services"
	}
	client := cloudwatchlogs.NewFromConfig(cfg)
	logStream := fmt.Sprintf("%s-%d", serviceName, time.Now().Unix())

	_, err := client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: sdkaws.String(logGroup),
	})
	var exists *types.ResourceAlreadyExistsException
	if err != nil && !errors.As(err, &exists) {
		return nil, fmt.Errorf("failed to create log group: %w", err)
	}

	if _, err := client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  sdkaws.String(logGroup),
		LogStreamName: sdkaws.String(logStream),
	}); err != nil {
		return nil, fmt.Errorf("failed to create log stream: %w", err)
	}
	return newCloudWatchLogsClient(client, logGroup, logStream, logFlushInterval), nil
}

func newCloudWatchLogsClient(client logsAPI, logGroup, logStream string, interval time.Duration) *CloudWatchLogsClient {
	c := &CloudWatchLogsClient{
		client:        client,
		logGroupName:  logGroup,
		logStreamName: logStream,
		wake:          make(chan struct{}, 1),
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go c.run(interval)
	return c
}

func (c *CloudWatchLogsClient) run(interval time.Duration) {
	defer close(c.stopped)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.wake:
			c.flush()
		case <-c.done:
			c.flush()
			return
		}
	}
}

// Write implements io.Writer. When the buffer is full the oldest line is dropped.
func (c *CloudWatchLogsClient) Write(p []byte) (int, error) {
	event := types.InputLogEvent{
		Message:   sdkaws.String(string(p)),
		Timestamp: sdkaws.Int64(time.Now().UnixMilli()),
	}

	c.mu.Lock()
	if len(c.pending) >= logBufferLimit {
		c.pending = c.pending[1:]
		c.dropped++
	}
	c.pending = append(c.pending, event)
	full := len(c.pending) >= logBatchSize
	c.mu.Unlock()

	if full {
		select {
		case c.wake <- struct{}{}:
		default:
		}
	}
	return len(p), nil
}

// Sync sends everything buffered so far. zap calls it through Logger.Sync.
func (c *CloudWatchLogsClient) Sync() error {
	c.flush()
	return nil
}

// Close stops the background sender after a final flush.
func (c *CloudWatchLogsClient) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	<-c.stopped
	return nil
}

// flush delivers pending lines. Delivery failures go to stderr.
func (c *CloudWatchLogsClient) flush() {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	batch := c.pending
	dropped := c.dropped
	c.pending = nil
	c.dropped = 0
	c.mu.Unlock()

	if dropped > 0 {
		fmt.Fprintf(os.Stderr, "CloudWatch log buffer full, dropped %d lines\n", dropped)
	}

	for len(batch) > 0 {
		n := min(len(batch), logBatchSize)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := c.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
			LogGroupName:  sdkaws.String(c.logGroupName),
			LogStreamName: sdkaws.String(c.logStreamName),
			LogEvents:     batch[:n],
		})
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "CloudWatch write error: %v\n", err)
		}
		batch = batch[n:]
	}
}
