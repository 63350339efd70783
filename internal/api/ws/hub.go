package ws

import (
	"context"
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/taskboard/internal/domain"
	"github.com/gosuda/taskboard/internal/events"
)

// SnapshotSource supplies the board a new subscriber starts from.
// *board.Engine satisfies this interface.
type SnapshotSource interface {
	Snapshot() (*domain.Board, uint64)
}

// Hub streams board events to WebSocket clients.
type Hub struct {
	broker  events.Broker
	channel string
	source  SnapshotSource
	origins []string
}

// NewHub creates a hub relaying channel from broker. originPatterns are
// passed to websocket.Accept; an empty list only allows same-origin clients.
func NewHub(broker events.Broker, channel string, source SnapshotSource, originPatterns []string) *Hub {
	return &Hub{
		broker:  broker,
		channel: channel,
		source:  source,
		origins: originPatterns,
	}
}

// ServeBoard handles WebSocket connections for board updates. The client
// first receives a snapshot event, then every event published on the board
// channel. Messages sent by the client are ignored.
func (h *Hub) ServeBoard(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(r.Context())

	// Subscribe before the snapshot so no change can fall between the two.
	messages, cleanup, err := h.broker.Subscribe(ctx, h.channel)
	if err != nil {
		log.Error().Err(err).Str("channel", h.channel).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	if err := h.writeSnapshot(ctx, conn); err != nil {
		log.Debug().Err(err).Msg("websocket snapshot write")
		return
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusGoingAway, "feed closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}

func (h *Hub) writeSnapshot(ctx context.Context, conn *websocket.Conn) error {
	if h.source == nil {
		return nil
	}

	b, rev := h.source.Snapshot()
	payload, err := events.BoardEvent{Type: events.TypeSnapshot, Revision: rev, Board: b}.Encode()
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, payload)
}
