package mcp

import (
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
)

// handleWebSocket upgrades the connection and runs the JSON-RPC loop over
// text frames, one request per message.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ctx := r.Context()
	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return
			}
			if ctx.Err() != nil {
				return
			}
			log.Debug().Err(err).Msg("websocket read ended")
			return
		}

		resp := s.handleRaw(ctx, raw)
		if resp == nil {
			continue
		}

		encoded, err := json.Marshal(resp)
		if err != nil {
			log.Error().Err(err).Msg("failed to encode websocket response")
			continue
		}
		if err := conn.Write(ctx, websocket.MessageText, encoded); err != nil {
			log.Debug().Err(err).Msg("websocket write failed")
			return
		}
	}
}
