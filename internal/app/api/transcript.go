package api

import (
	"encoding/json"
	"net/http"

	"redub/db"
	"redub/internal/app/dubbing"
	"redub/pkg/timeline"

	"github.com/go-chi/chi/v5"
)

type transcriptReq struct {
	Voice     string            `json:"voice"`
	Subtitles []timeline.RawCue `json:"subtitles"`

	// older clients send the cues under this key
	Transcripts []timeline.RawCue `json:"transcripts"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	State   string `json:"state"`
	Message string `json:"message"`
}

type transcriptResp struct {
	Success           bool       `json:"success"`
	VideoID           string     `json:"video_id"`
	RunID             string     `json:"run_id,omitempty"`
	Duration          float64    `json:"duration"`
	MediaUpdated      bool       `json:"media_updated"`
	MetadataPersisted bool       `json:"metadata_persisted"`
	Error             *errorBody `json:"error,omitempty"`
}

func (api *API) updateTranscript(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "video_id")
	logger := api.logger.With("video_id", videoID)

	var req transcriptReq
	body := http.MaxBytesReader(w, r.Body, api.cfg.maxBodyBytes())
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		badRequest(w, videoID, "bad request body: "+err.Error())
		return
	}

	// an explicit [] clears the narration, a missing key is a client bug
	subtitles := req.Subtitles
	if subtitles == nil {
		subtitles = req.Transcripts
	}
	if subtitles == nil {
		badRequest(w, videoID, "body has no subtitles")
		return
	}

	res, err := api.dubber.Update(r.Context(), &dubbing.UpdateRequest{
		VideoID:   videoID,
		Voice:     req.Voice,
		Subtitles: subtitles,
	})

	resp := &transcriptResp{
		Success: err == nil,
		VideoID: videoID,
	}
	if res != nil {
		resp.RunID = res.RunID
		resp.Duration = res.Duration
		resp.MediaUpdated = res.MediaUpdated
		resp.MetadataPersisted = res.MetadataPersisted
	}

	if err != nil {
		resp.Error = &errorBody{
			Kind:    dubbing.KindOf(err).String(),
			State:   dubbing.StateOf(err).String(),
			Message: err.Error(),
		}

		logger.Warn("transcript update failed", "kind", resp.Error.Kind, "err", err)
	}

	writeJSON(w, statusOf(err, resp.MediaUpdated), resp)
}

func badRequest(w http.ResponseWriter, videoID, msg string) {
	writeJSON(w, http.StatusBadRequest, &transcriptResp{
		VideoID: videoID,
		Error: &errorBody{
			Kind:    dubbing.KindValidation.String(),
			State:   dubbing.StateValidating.String(),
			Message: msg,
		},
	})
}

func statusOf(err error, mediaUpdated bool) int {
	if err == nil {
		return http.StatusOK
	}

	switch dubbing.KindOf(err) {
	case dubbing.KindPersistence:
		if mediaUpdated {
			return http.StatusMultiStatus
		}
		return http.StatusInternalServerError
	case dubbing.KindValidation:
		return http.StatusBadRequest
	case dubbing.KindNotFound:
		return http.StatusNotFound
	case dubbing.KindCanceled:
		return http.StatusServiceUnavailable
	case dubbing.KindSynthesis:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (api *API) getTranscript(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "video_id")

	if api.transcripts == nil {
		http.Error(w, "transcripts are not stored", http.StatusNotImplemented)
		return
	}

	video, err := api.transcripts.GetVideo(r.Context(), videoID)
	if err != nil {
		if db.ErrCode(err) == db.ErrCodeNoRows {
			http.Error(w, "no transcript for this video", http.StatusNotFound)
			return
		}

		api.logger.Error("failed to get transcript", "video_id", videoID, "err", err)
		http.Error(w, "failed to get transcript", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, video)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}
