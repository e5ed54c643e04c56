// internal/services/video_service.go
package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/webhook"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/modooclass/modoo-backend/internal/config"
)

// VideoService wraps the LiveKit server APIs (rooms, join tokens, egress,
// webhook verification). When no LiveKit credentials are configured the
// service runs without clients so local development does not need the SaaS.
type VideoService struct {
	roomClient   *lksdk.RoomServiceClient
	egressClient *lksdk.EgressClient
	config       *config.Config
}

func NewVideoService(cfg *config.Config) *VideoService {
	if cfg.LiveKit.Host == "" || cfg.LiveKit.APIKey == "" {
		// No LiveKit configured (local development)
		return &VideoService{config: cfg}
	}

	return &VideoService{
		roomClient:   lksdk.NewRoomServiceClient(cfg.LiveKit.Host, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret),
		egressClient: lksdk.NewEgressClient(cfg.LiveKit.Host, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret),
		config:       cfg,
	}
}

// EnsureRoom creates the room if it does not exist yet. LiveKit's CreateRoom
// is idempotent for an existing name, so callers treat errors as best-effort.
func (s *VideoService) EnsureRoom(ctx context.Context, roomName string) error {
	if s.roomClient == nil {
		return nil
	}

	_, err := s.roomClient.CreateRoom(ctx, &livekit.CreateRoomRequest{
		Name:            roomName,
		EmptyTimeout:    600, // seconds before an empty room is closed
		MaxParticipants: 200,
	})
	if err != nil {
		return fmt.Errorf("failed to create room %s: %w", roomName, err)
	}

	return nil
}

func (s *VideoService) DeleteRoom(ctx context.Context, roomName string) error {
	if s.roomClient == nil {
		return nil
	}

	_, err := s.roomClient.DeleteRoom(ctx, &livekit.DeleteRoomRequest{
		Room: roomName,
	})
	if err != nil {
		return fmt.Errorf("failed to delete room %s: %w", roomName, err)
	}

	return nil
}

// JoinToken returns a signed access token granting entry to the room.
func (s *VideoService) JoinToken(roomName, identity, displayName string, ttl time.Duration) (string, error) {
	if s.config.LiveKit.APIKey == "" {
		return "", fmt.Errorf("LiveKit is not configured")
	}

	at := auth.NewAccessToken(s.config.LiveKit.APIKey, s.config.LiveKit.APISecret)
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     roomName,
	}
	at.SetVideoGrant(grant).
		SetIdentity(identity).
		SetName(displayName).
		SetValidFor(ttl)

	return at.ToJWT()
}

// StartRecording starts a room-composite egress writing an MP4 to S3 and
// returns the egress ID.
func (s *VideoService) StartRecording(ctx context.Context, roomName, s3Key string) (string, error) {
	if s.egressClient == nil {
		return "", fmt.Errorf("LiveKit is not configured")
	}

	info, err := s.egressClient.StartRoomCompositeEgress(ctx, &livekit.RoomCompositeEgressRequest{
		RoomName: roomName,
		Layout:   "speaker",
		FileOutputs: []*livekit.EncodedFileOutput{
			{
				FileType: livekit.EncodedFileType_MP4,
				Filepath: s3Key,
				Output: &livekit.EncodedFileOutput_S3{
					S3: &livekit.S3Upload{
						AccessKey: s.config.AWS.AccessKeyID,
						Secret:    s.config.AWS.SecretAccessKey,
						Region:    s.config.AWS.Region,
						Bucket:    s.config.AWS.S3Bucket,
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to start egress for room %s: %w", roomName, err)
	}

	return info.EgressId, nil
}

func (s *VideoService) StopRecording(ctx context.Context, egressID string) error {
	if s.egressClient == nil {
		return nil
	}

	_, err := s.egressClient.StopEgress(ctx, &livekit.StopEgressRequest{
		EgressId: egressID,
	})
	if err != nil {
		return fmt.Errorf("failed to stop egress %s: %w", egressID, err)
	}

	return nil
}

// VerifyWebhook authenticates and decodes a LiveKit webhook request.
func (s *VideoService) VerifyWebhook(r *http.Request) (*livekit.WebhookEvent, error) {
	if s.config.LiveKit.APIKey == "" {
		return nil, fmt.Errorf("LiveKit is not configured")
	}

	provider := auth.NewSimpleKeyProvider(s.config.LiveKit.APIKey, s.config.LiveKit.APISecret)
	return webhook.ReceiveWebhookEvent(r, provider)
}

// RecordingKey builds the S3 object key for a session recording.
func RecordingKey(sessionID string) string {
	ts := time.Now().Format("20060102-150405")
	return strings.Join([]string{"recordings", sessionID, ts + ".mp4"}, "/")
}
