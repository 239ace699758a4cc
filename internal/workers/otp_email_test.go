package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelane-dev/storelane/internal/models"
	"github.com/storelane-dev/storelane/internal/tasks"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) SendOTP(to, code, purpose string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+"/"+code+"/"+purpose)
	return nil
}

func TestHandleSendOTPEmail(t *testing.T) {
	task, err := tasks.NewSendOTPEmailTask("a@example.com", "123456", models.PurposeRegister)
	require.NoError(t, err)

	sender := &fakeSender{}
	require.NoError(t, HandleSendOTPEmail(context.Background(), task, sender, zerolog.Nop()))
	assert.Equal(t, []string{"a@example.com/123456/register"}, sender.sent)
}

func TestHandleSendOTPEmailDeliveryFailureRetries(t *testing.T) {
	task, err := tasks.NewSendOTPEmailTask("a@example.com", "123456", models.PurposeRegister)
	require.NoError(t, err)

	sendErr := errors.New("smtp down")
	err = HandleSendOTPEmail(context.Background(), task, &fakeSender{err: sendErr}, zerolog.Nop())

	// A transient failure propagates so the queue retries it
	assert.ErrorIs(t, err, sendErr)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleSendOTPEmailMalformedPayload(t *testing.T) {
	task := asynq.NewTask(tasks.TypeSendOTPEmail, []byte("not json"))

	err := HandleSendOTPEmail(context.Background(), task, &fakeSender{}, zerolog.Nop())
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
