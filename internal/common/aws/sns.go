// internal/common/aws/sns.go
package aws

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"clinic-notify-workers/internal/models"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SNSAPI is the part of *sns.Client the publisher uses.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSClient publishes push notifications to per-name SNS topics.
type SNSClient struct {
	client         SNSAPI
	topicARNPrefix string
}

func NewSNSClient(ctx context.Context, region, topicARNPrefix string) (*SNSClient, error) {
	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return NewSNSClientWithAPI(sns.NewFromConfig(cfg), topicARNPrefix), nil
}

func NewSNSClientWithAPI(api SNSAPI, topicARNPrefix string) *SNSClient {
	return &SNSClient{client: api, topicARNPrefix: topicARNPrefix}
}

var invalidTopicChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// TopicARN maps a push topic name onto its SNS topic ARN.
func (s *SNSClient) TopicARN(topic string) string {
	return s.topicARNPrefix + invalidTopicChars.ReplaceAllString(topic, "_")
}

// Publish sends n to its topic and returns the SNS message id.
func (s *SNSClient) Publish(ctx context.Context, n models.PushNotification) (string, error) {
	ctx, span := otel.Tracer("clinic-notify-workers/push").Start(ctx, "push.publish")
	defer span.End()
	span.SetAttributes(attribute.String("push.topic", n.Topic))

	message, err := buildMessage(n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "encode message")
		return "", err
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          awssdk.String(s.TopicARN(n.Topic)),
		Subject:           subject(n.Title),
		Message:           awssdk.String(message),
		MessageStructure:  awssdk.String("json"),
		MessageAttributes: messageAttributes(n.Data),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		return "", err
	}
	if out == nil || out.MessageId == nil {
		return "", nil
	}
	span.SetAttributes(attribute.String("push.message_id", *out.MessageId))
	return *out.MessageId, nil
}

// buildMessage renders the per-protocol JSON message SNS expects when
// MessageStructure is "json".
func buildMessage(n models.PushNotification) (string, error) {
	data := n.Data
	if data == nil {
		data = map[string]string{}
	}

	gcm, err := json.Marshal(map[string]interface{}{
		"notification": map[string]string{"title": n.Title, "body": n.Body},
		"data":         data,
	})
	if err != nil {
		return "", fmt.Errorf("encode GCM payload: %w", err)
	}

	apnsPayload := map[string]interface{}{
		"aps": map[string]interface{}{
			"alert": map[string]string{"title": n.Title, "body": n.Body},
			"sound": "default",
		},
	}
	for k, v := range data {
		if k != "aps" {
			apnsPayload[k] = v
		}
	}
	apns, err := json.Marshal(apnsPayload)
	if err != nil {
		return "", fmt.Errorf("encode APNS payload: %w", err)
	}

	msg, err := json.Marshal(map[string]string{
		"default":      n.Body,
		"GCM":          string(gcm),
		"APNS":         string(apns),
		"APNS_SANDBOX": string(apns),
	})
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	return string(msg), nil
}

// SNS rejects empty attribute values.
func messageAttributes(data map[string]string) map[string]types.MessageAttributeValue {
	attrs := make(map[string]types.MessageAttributeValue, len(data))
	for k, v := range data {
		if v == "" {
			continue
		}
		attrs[k] = types.MessageAttributeValue{
			DataType:    awssdk.String("String"),
			StringValue: awssdk.String(v),
		}
	}
	return attrs
}

// subject is only used by email endpoints, which cap it at 100 characters.
func subject(title string) *string {
	if title == "" {
		return nil
	}
	r := []rune(title)
	if len(r) > 100 {
		r = r[:100]
	}
	return awssdk.String(string(r))
}
