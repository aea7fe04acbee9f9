package publishers

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSQSPublisherSendsEventWithAttributes(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{id: "queue", queueURL: "https://example.com/queue", client: client, log: discardLogger{}}

	require.NoError(t, pub.Publish(context.Background(), Event{RunID: "run-1", Scenario: "delete-own-pet", Error: "boom"}))
	require.NotNil(t, client.input)

	assert.Equal(t, "https://example.com/queue", aws.ToString(client.input.QueueUrl))
	assert.Equal(t, "run-1", aws.ToString(client.input.MessageAttributes["run_id"].StringValue))
	assert.Equal(t, "false", aws.ToString(client.input.MessageAttributes["passed"].StringValue))
	assert.Equal(t, "String", aws.ToString(client.input.MessageAttributes["scenario"].DataType))
	assert.Contains(t, aws.ToString(client.input.MessageBody), `"error":"boom"`)
}

func TestSQSPublisherWrapsSendError(t *testing.T) {
	sendErr := errors.New("throttled")
	pub := &sqsPublisher{id: "queue", client: &fakeSQSClient{err: sendErr}, log: discardLogger{}}

	err := pub.Publish(context.Background(), Event{Scenario: "delete-own-pet"})
	require.ErrorIs(t, err, sendErr)
	assert.Contains(t, err.Error(), "send message to sqs")
}

func TestWithEndpoint(t *testing.T) {
	var opts sqs.Options
	withEndpoint[sqs.Options]("", func(o *sqs.Options, ep *string) { o.BaseEndpoint = ep })(&opts)
	assert.Nil(t, opts.BaseEndpoint)

	withEndpoint[sqs.Options]("http://localhost:4566", func(o *sqs.Options, ep *string) { o.BaseEndpoint = ep })(&opts)
	assert.Equal(t, "http://localhost:4566", aws.ToString(opts.BaseEndpoint))
}
