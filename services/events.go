package services

import (
	"context"
	"fmt"

	"webhook-service/models"
	aws_pkg "webhook-service/pkg/aws"

	json "github.com/goccy/go-json"
)

// EventPublisher publishes payment transition events.
type EventPublisher interface {
	PublishTransition(ctx context.Context, event models.TransitionEvent) error
}

// MetricsRecorder is the subset of the CloudWatch metrics client used here.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordValue(ctx context.Context, metricName string, value float64, dimensions map[string]string) error
}

type snsEventPublisher struct {
	client   aws_pkg.SNSPublisher
	topicArn string
}

// NewSNSEventPublisher publishes transition events to an SNS topic.
func NewSNSEventPublisher(client aws_pkg.SNSPublisher, topicArn string) EventPublisher {
	return &snsEventPublisher{client: client, topicArn: topicArn}
}

func (p *snsEventPublisher) PublishTransition(ctx context.Context, event models.TransitionEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal transition event: %w", err)
	}
	return p.client.Publish(ctx, p.topicArn, b)
}
