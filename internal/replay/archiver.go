package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/arena"
)

// S3Archiver uploads completed replays as JSON objects, keyed
// "replays/<matchID>.json". Archiving is best-effort; the manager logs
// failures and moves on.
type S3Archiver struct {
	client *s3.Client
	bucket string
}

func NewS3Archiver(client *s3.Client, bucket string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket}
}

func (a *S3Archiver) Archive(ctx context.Context, matchID string, events []arena.Event) error {
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal replay: %w", err)
	}

	key := fmt.Sprintf("replays/%s.json", matchID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload replay: %w", err)
	}
	slog.Info("replay archived", "matchID", matchID, "bucket", a.bucket, "key", key)
	return nil
}
