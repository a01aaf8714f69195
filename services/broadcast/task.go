package broadcast

import (
	"context"
	"encoding/json"

	"mahalla-taskboard/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// DeliverPayload is the queue payload for a broadcast delivery job.
type DeliverPayload struct {
	BroadcastID string `json:"broadcast_id"`
}

// RegisterHandlers wires the broadcast queue handlers onto the worker mux.
func RegisterHandlers(mux *asynq.ServeMux, svc *Service) {
	mux.HandleFunc(taskname.BroadcastDeliver, svc.HandleDeliver)
}

// HandleDeliver processes a broadcast delivery job. The actual messenger
// transport lives outside this service; delivery here marks the snapshot as
// handed off and records the accounting.
func (s *Service) HandleDeliver(ctx context.Context, t *asynq.Task) error {
	var payload DeliverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		zap.L().Error("failed to decode broadcast payload", zap.Error(err))
		return err
	}

	b, err := s.Get(ctx, payload.BroadcastID)
	if err != nil {
		return err
	}

	var telegramIDs []int64
	if len(b.TelegramIDs) > 0 {
		if err := json.Unmarshal(b.TelegramIDs, &telegramIDs); err != nil {
			zap.L().Error("failed to decode recipient snapshot", zap.Error(err), zap.String("broadcast_id", b.ID))
			return err
		}
	}

	if err := s.UpdateDeliveryStatus(ctx, b.ID, len(telegramIDs), 0); err != nil {
		return err
	}

	zap.L().Info("broadcast delivered",
		zap.String("broadcast_id", b.ID),
		zap.Int("recipients", len(telegramIDs)),
	)

	return nil
}
