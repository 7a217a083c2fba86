package handoff

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSAPI is the subset of the SQS client used by SQSNotifier.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSNotifier announces completed snapshots to the planning queue. If queueURL
// is empty, all operations are no-ops.
type SQSNotifier struct {
	client   SQSAPI
	queueURL string
}

func NewSQSNotifier(client SQSAPI, queueURL string) *SQSNotifier {
	return &SQSNotifier{client: client, queueURL: queueURL}
}

func (n *SQSNotifier) Enabled() bool {
	return n != nil && n.queueURL != "" && n.client != nil
}

var _ Publisher = (*SQSNotifier)(nil)

func (n *SQSNotifier) Publish(ctx context.Context, snap Snapshot) error {
	if !n.Enabled() {
		return nil
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("handoff: marshal snapshot: %w", err)
	}

	_, err = n.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(n.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("handoff: failed to send SQS message: %w", err)
	}
	return nil
}

// Fanout publishes to every configured destination and reports the first
// failure after trying them all.
type Fanout []Publisher

var _ Publisher = (Fanout)(nil)

func (f Fanout) Publish(ctx context.Context, snap Snapshot) error {
	var firstErr error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, snap); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
