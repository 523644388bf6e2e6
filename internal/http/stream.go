package http

import (
	"context"
	"net/http"

	"gatherly/backend/internal/authctx"
	"gatherly/backend/internal/domain/proposal"
	"gatherly/backend/internal/domain/submission"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth happens via the bearer-token middleware; origin policy is
	// handled by CORS on the rest of the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleProposalStream pushes the merged fan-out proposal snapshot to the
// client on every change.
func (d RouterDeps) handleProposalStream(w http.ResponseWriter, r *http.Request) {
	uid, _ := authctx.UID(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan []proposal.Proposal, 8)

	st := d.Proposals.Stream(ctx, uid, func(ps []proposal.Proposal) {
		select {
		case events <- ps:
		default:
			d.Log.Debug("proposal stream client too slow, dropping push", zap.String("uid", uid))
		}
	})

	go readUntilClosed(conn, cancel)

	defer func() {
		st.Close()
		cancel()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ps := <-events:
			if err := conn.WriteJSON(map[string]any{"proposals": ps}); err != nil {
				return
			}
		}
	}
}

// handleSubmissionStream pushes the repartitioned submission set for one
// proposal on every change.
func (d RouterDeps) handleSubmissionStream(w http.ResponseWriter, r *http.Request) {
	uid, _ := authctx.UID(r.Context())
	proposalID := chi.URLParam(r, "proposalID")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan submission.Set, 8)

	st := d.Submissions.Stream(ctx, proposalID, uid, func(set submission.Set) {
		select {
		case events <- set:
		default:
			d.Log.Debug("submission stream client too slow, dropping push",
				zap.String("proposalId", proposalID))
		}
	})

	go readUntilClosed(conn, cancel)

	defer func() {
		st.Close()
		cancel()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case set := <-events:
			if err := conn.WriteJSON(set); err != nil {
				return
			}
		}
	}
}

// readUntilClosed drains client frames so pings are answered and cancels the
// stream when the peer goes away.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
