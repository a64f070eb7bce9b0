package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Job types carried in RefreshMessage.JobType and the job_type attribute.
const (
	JobTravelRefresh    = "travel_refresh"
	JobTravelRefreshAll = "travel_refresh_all"
)

// ErrMalformedMessage marks messages that can never succeed. They are
// acknowledged so they are not redelivered.
var ErrMalformedMessage = errors.New("malformed refresh message")

// RefreshMessage is the JSON body of a refresh request.
type RefreshMessage struct {
	JobType string `json:"job_type"`
	TripID  string `json:"trip_id,omitempty"`
}

func (m RefreshMessage) validate() error {
	switch m.JobType {
	case JobTravelRefresh:
		if m.TripID == "" {
			return fmt.Errorf("%w: trip_id is required", ErrMalformedMessage)
		}
	case JobTravelRefreshAll:
	default:
		return fmt.Errorf("%w: unknown job type %q", ErrMalformedMessage, m.JobType)
	}
	return nil
}

// Handle decodes a message body and runs the job it names. The job type is
// returned for logging even when the message is rejected.
//
// A single-trip refresh fails when that trip fails. A sweep fails only when
// more trips failed than succeeded, so one bad trip does not redeliver the
// whole batch.
func (j *RefreshJob) Handle(ctx context.Context, data []byte) (string, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if err := msg.validate(); err != nil {
		return msg.JobType, err
	}

	if msg.JobType == JobTravelRefresh {
		res := j.Run(ctx, []string{msg.TripID})
		if len(res.Errors) > 0 {
			return msg.JobType, fmt.Errorf("refresh trip %s: %s", msg.TripID, res.Errors[0].Error)
		}
		return msg.JobType, nil
	}

	res, err := j.RunActive(ctx)
	if err != nil {
		return msg.JobType, fmt.Errorf("list active trips: %w", err)
	}
	if res.Failed > res.Successful {
		return msg.JobType, fmt.Errorf("%d of %d trips failed", res.Failed, res.TotalTrips)
	}
	return msg.JobType, nil
}
