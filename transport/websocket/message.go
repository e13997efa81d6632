package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/playdehla/dehla-backend/internal/entity"
)

// Actions emitted by the transport itself; game events are named by the
// room manager.
const (
	actionConnect = "connect"
	actionError   = "error"

	actionNotYourTurn = "error:turn"
	actionIllegalCard = "error:card"
)

// Message is the wire envelope for both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ConnectPayload struct {
	Session *entity.Session `json:"session"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

type CreateRoomPayload struct {
	PlayerName string `json:"player_name"`
	NumPlayers int    `json:"num_players"`
}

type JoinRoomPayload struct {
	PlayerName string `json:"player_name"`
	RoomID     string `json:"room_id"`
}

type RoomStatePayload struct {
	RoomID string `json:"room_id"`
}

type ChooseTrumpPayload struct {
	RoomID string      `json:"room_id"`
	Trump  entity.Suit `json:"trump"`
}

type PlayCardPayload struct {
	RoomID    string `json:"room_id"`
	CardIndex int    `json:"card_index"`
}

func encodeMessage(action string, payload any) ([]byte, error) {
	msg := Message{Action: action}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		msg.Payload = raw
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}
