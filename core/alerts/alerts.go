package alerts

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"remanerp/config"
)

// Alert kinds
const (
	KindLowStock           = "low_stock"
	KindOutOfStock         = "out_of_stock"
	KindReservationExpired = "reservation_expired"
	KindMovementPending    = "movement_pending"
)

// Alert is the payload handed to the external notification collaborator.
type Alert struct {
	OrgID         uint   `json:"org_id"`
	Kind          string `json:"kind"`
	PartID        uint   `json:"part_id,omitempty"`
	PartCode      string `json:"part_code,omitempty"`
	ReservationID uint   `json:"reservation_id,omitempty"`
	MovementID    uint   `json:"movement_id,omitempty"`
	Quantity      int64  `json:"quantity,omitempty"`
	Threshold     int64  `json:"threshold,omitempty"`
	Message       string `json:"message"`
}

// Notifier delivers alerts to the notification service. Delivery is
// fire-and-forget: implementations log failures and never block the caller's
// operation.
type Notifier interface {
	Notify(ctx context.Context, a Alert)
}

// New returns the redis publisher when redis is configured, a log notifier
// otherwise.
func New() Notifier {
	if config.RedisClient != nil {
		return &redisNotifier{channel: channelName()}
	}
	return &logNotifier{}
}

func channelName() string {
	if ch := os.Getenv("ALERTS_CHANNEL"); ch != "" {
		return ch
	}
	return "remanerp:alerts"
}

type redisNotifier struct {
	channel string
}

func (n *redisNotifier) Notify(ctx context.Context, a Alert) {
	payload, err := json.Marshal(a)
	if err != nil {
		log.Printf("alerts: marshal: %v", err)
		return
	}
	if err := config.RedisClient.Publish(ctx, n.channel, payload).Err(); err != nil {
		log.Printf("alerts: publish %s: %v", a.Kind, err)
	}
}

type logNotifier struct{}

func (n *logNotifier) Notify(_ context.Context, a Alert) {
	log.Printf("alert [%s] org=%d part=%d: %s", a.Kind, a.OrgID, a.PartID, a.Message)
}
