// internal/handlers/webhook.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/webhook"
	"github.com/sirupsen/logrus"

	"github.com/modooclass/modoo-backend/internal/services"
)

// WebhookHandler receives LiveKit server events. Events are verified against
// the API key pair before any state is touched.
type WebhookHandler struct {
	videoService   *services.VideoService
	sessionService *services.LiveSessionService
}

func NewWebhookHandler(videoService *services.VideoService, sessionService *services.LiveSessionService) *WebhookHandler {
	return &WebhookHandler{
		videoService:   videoService,
		sessionService: sessionService,
	}
}

// POST /webhooks/livekit
func (h *WebhookHandler) LiveKit(c *gin.Context) {
	event, err := h.videoService.VerifyWebhook(c.Request)
	if err != nil {
		logrus.WithError(err).Warn("Rejected LiveKit webhook")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	log := logrus.WithField("event", event.Event)

	switch event.Event {
	case webhook.EventParticipantJoined:
		if event.Room != nil && event.Participant != nil {
			if err := h.sessionService.HandleParticipantJoined(event.Room.Name, event.Participant.Identity); err != nil {
				log.WithError(err).Warn("Failed to handle participant join")
			}
		}

	case webhook.EventParticipantLeft:
		if event.Room != nil && event.Participant != nil {
			if err := h.sessionService.HandleParticipantLeft(event.Room.Name, event.Participant.Identity); err != nil {
				log.WithError(err).Warn("Failed to handle participant leave")
			}
		}

	case webhook.EventRoomFinished:
		if event.Room != nil {
			if err := h.sessionService.HandleRoomFinished(c.Request.Context(), event.Room.Name); err != nil {
				log.WithError(err).Warn("Failed to handle room finished")
			}
		}

	case webhook.EventEgressEnded:
		if info := event.EgressInfo; info != nil {
			succeeded := info.Status == livekit.EgressStatus_EGRESS_COMPLETE
			var fileURL string
			var durationSec int
			var size int64
			if len(info.FileResults) > 0 {
				file := info.FileResults[0]
				fileURL = file.Location
				durationSec = int(file.Duration / int64(1e9))
				size = file.Size
			}
			if err := h.sessionService.HandleEgressEnded(info.EgressId, succeeded, fileURL, durationSec, size); err != nil {
				log.WithError(err).Warn("Failed to handle egress ended")
			}
		}

	default:
		log.Debug("Ignoring LiveKit event")
	}

	// Always acknowledge so LiveKit does not retry events we chose to skip
	c.Status(http.StatusOK)
}
