package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/facilityinspect/server/internal/models"
	"github.com/facilityinspect/server/internal/observability"
)

// completionEvent is the webhook payload for a completed inspection
type completionEvent struct {
	Event                  string `json:"event"`
	InspectionID           string `json:"inspectionId"`
	SpaceID                string `json:"spaceId"`
	BuildingID             string `json:"buildingId"`
	CompletedAt            string `json:"completedAt"`
	BuildingFullyInspected bool   `json:"buildingFullyInspected"`
}

// CompletionNotifier delivers the post-completion signal downstream: a
// webhook POST for external systems and a hub broadcast for connected
// dashboards. Both deliveries are best effort; a completed inspection is
// already durable, so failures here are logged and dropped.
type CompletionNotifier struct {
	httpClient *resty.Client
	webhookURL string
	hub        *WebSocketHub
	logger     *observability.Logger
}

// NewCompletionNotifier creates a notifier. webhookURL may be empty to skip
// the webhook leg, hub may be nil to skip the broadcast leg.
func NewCompletionNotifier(webhookURL string, hub *WebSocketHub) *CompletionNotifier {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &CompletionNotifier{
		httpClient: client,
		webhookURL: webhookURL,
		hub:        hub,
		logger:     observability.WithField("component", "notifier"),
	}
}

// InspectionCompleted sends the completion event to every configured sink
func (n *CompletionNotifier) InspectionCompleted(ctx context.Context, inspection *models.Inspection, buildingFullyInspected bool) {
	completedAt := ""
	if inspection.CompletedAt != nil {
		completedAt = inspection.CompletedAt.UTC().Format(time.RFC3339)
	}

	event := completionEvent{
		Event:                  "inspection.completed",
		InspectionID:           inspection.ID,
		SpaceID:                inspection.SpaceID,
		BuildingID:             inspection.BuildingID,
		CompletedAt:            completedAt,
		BuildingFullyInspected: buildingFullyInspected,
	}

	n.broadcast(inspection, event)
	n.postWebhook(ctx, event)
}

func (n *CompletionNotifier) broadcast(inspection *models.Inspection, event completionEvent) {
	if n.hub == nil {
		return
	}

	msgType := WSTypeInspectionCompleted
	if event.BuildingFullyInspected {
		msgType = WSTypeBuildingInspected
	}

	n.hub.BroadcastToTopic(TopicBuilding+":"+inspection.BuildingID, WSMessage{
		Type: msgType,
		Payload: InspectionCompletedPayload{
			InspectionID:           event.InspectionID,
			SpaceID:                event.SpaceID,
			BuildingID:             event.BuildingID,
			CompletedAt:            event.CompletedAt,
			BuildingFullyInspected: event.BuildingFullyInspected,
		},
	})
}

func (n *CompletionNotifier) postWebhook(ctx context.Context, event completionEvent) {
	if n.webhookURL == "" {
		return
	}

	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(event).
		Post(n.webhookURL)

	if err != nil {
		n.logger.WithField("inspection_id", event.InspectionID).
			Warnf("completion webhook failed: %v", err)
		return
	}
	if resp.IsError() {
		n.logger.WithField("inspection_id", event.InspectionID).
			Warn(fmt.Sprintf("completion webhook rejected: %s", resp.Status()))
	}
}
