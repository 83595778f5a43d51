package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"redub/pkg/timeline"
)

type Video struct {
	VideoID     string         `json:"video_id"`
	Transcripts []timeline.Cue `json:"transcripts"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PersistTranscript stores cues as the current transcript of videoID,
// replacing whatever was there.
func (db *DB) PersistTranscript(ctx context.Context, videoID string, cues []timeline.Cue) error {
	if cues == nil {
		cues = []timeline.Cue{}
	}

	data, err := json.Marshal(cues)
	if err != nil {
		return fmt.Errorf("failed to marshal transcripts: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO videos (video_id, transcripts, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (video_id) DO UPDATE
		SET transcripts = EXCLUDED.transcripts, updated_at = EXCLUDED.updated_at
	`, videoID, data)
	if err != nil {
		return fmt.Errorf("failed to upsert transcript of %s: %w", videoID, err)
	}

	return nil
}

func (db *DB) GetVideo(ctx context.Context, videoID string) (*Video, error) {
	var (
		video Video
		data  []byte
	)

	err := db.QueryRow(ctx, `
		SELECT video_id, transcripts, updated_at
		FROM videos
		WHERE video_id = $1
	`, videoID).Scan(&video.VideoID, &data, &video.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to query video %s: %w", videoID, parseErr(err))
	}

	if err := json.Unmarshal(data, &video.Transcripts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcripts: %w", err)
	}

	return &video, nil
}
