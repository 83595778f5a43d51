package api

import (
	"context"
	"net/http"
	"time"

	"redub/pkg/ws"

	"github.com/go-chi/chi/v5"
)

const pingInterval = 15 * time.Second

type pingMsg struct {
	Type string `json:"type"`
}

// progressWS streams the run events of one video until the client leaves.
// The last known event is sent right after the upgrade.
func (api *API) progressWS(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "video_id")
	logger := api.logger.With("video_id", videoID)

	if !api.dubber.Exists(videoID) {
		http.Error(w, "video not found", http.StatusNotFound)
		return
	}

	wsConn, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("failed to upgrade to websocket connection", "err", err)
		return
	}

	wsClient, done := ws.NewClient(wsConn, logger)
	defer func() {
		logger.Debug("closing websocket connection")
		_ = wsClient.Close()
	}()

	go wsClient.DrainRead()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, err := api.feed.Subscribe(ctx, videoID)
	if err != nil {
		logger.Error("failed to subscribe to progress", "err", err)
		return
	}

	if ev, ok := api.feed.Last(videoID); ok {
		if err := wsClient.SendJSON(ev); err != nil {
			return
		}
	}

	t := time.NewTicker(pingInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if err := wsClient.SendJSON(&pingMsg{Type: "ping"}); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}

			if err := wsClient.SendJSON(ev); err != nil {
				logger.Debug("failed to send progress event", "err", err)
				return
			}
		case <-done:
			return
		}
	}
}
