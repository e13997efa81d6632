package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/playdehla/dehla-backend/internal/apperror"
)

func (that *Server) handleCreateRoom(ctx context.Context, msg *Message, cl *client) error {
	log := that.logger.With("method", "handleCreateRoom", "playerID", cl.id)

	var payload CreateRoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		that.sendError(cl, msg.Action, "malformed payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.PlayerName == "" {
		that.sendError(cl, msg.Action, "player name is required")
		return nil
	}

	room, err := that.manager.CreateRoom(ctx, cl.id, payload.PlayerName, payload.NumPlayers)
	if err != nil {
		that.rejectAction(cl, msg.Action, err)
		return nil
	}

	log.Info("room created", "roomID", room.ID)

	return nil
}

func (that *Server) handleJoinRoom(ctx context.Context, msg *Message, cl *client) error {
	log := that.logger.With("method", "handleJoinRoom", "playerID", cl.id)

	var payload JoinRoomPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		that.sendError(cl, msg.Action, "malformed payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.PlayerName == "" {
		that.sendError(cl, msg.Action, "player name is required")
		return nil
	}

	room, err := that.manager.JoinRoom(ctx, cl.id, payload.PlayerName, payload.RoomID)
	if err != nil {
		that.rejectAction(cl, msg.Action, err)
		return nil
	}

	log.Info("player joined room", "roomID", room.ID)

	return nil
}

func (that *Server) handleRoomState(ctx context.Context, msg *Message, cl *client) error {
	var payload RoomStatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		that.sendError(cl, msg.Action, "malformed payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	state, err := that.manager.RoomState(ctx, payload.RoomID)
	if err != nil {
		that.rejectAction(cl, msg.Action, err)
		return nil
	}

	that.send(cl, msg.Action, state)

	return nil
}

func (that *Server) handleChooseTrump(ctx context.Context, msg *Message, cl *client) error {
	log := that.logger.With("method", "handleChooseTrump", "playerID", cl.id)

	var payload ChooseTrumpPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		that.sendError(cl, msg.Action, "malformed payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := that.manager.ChooseTrump(ctx, cl.id, payload.RoomID, payload.Trump); err != nil {
		that.rejectAction(cl, msg.Action, err)
		return nil
	}

	log.Info("trump chosen", "roomID", payload.RoomID)

	return nil
}

func (that *Server) handlePlayCard(ctx context.Context, msg *Message, cl *client) error {
	var payload PlayCardPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		that.sendError(cl, msg.Action, "malformed payload")
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if err := that.manager.PlayCard(ctx, cl.id, payload.RoomID, payload.CardIndex); err != nil {
		that.rejectAction(cl, msg.Action, err)
		return nil
	}

	return nil
}

// rejectAction reports a refused action back to its sender only. Turn
// and legality refusals get their dedicated actions so clients can react
// inline; everything else echoes the original action with the reason.
func (that *Server) rejectAction(cl *client, action string, err error) {
	switch {
	case errors.Is(err, apperror.ErrNotYourTurn):
		that.sendError(cl, actionNotYourTurn, apperror.ErrNotYourTurn.Error())
	case errors.Is(err, apperror.ErrMustFollowSuit), errors.Is(err, apperror.ErrInvalidCard):
		that.sendError(cl, actionIllegalCard, reason(err))
	default:
		if errors.Is(err, apperror.ErrInvariant) {
			that.logger.Error("room invariant violated", "playerID", cl.id, "action", action, "error", err)
		}
		that.sendError(cl, action, reason(err))
	}
}

// reason unwraps the innermost sentinel chain into a client-safe string.
func reason(err error) string {
	for _, sentinel := range []error{
		apperror.ErrRoomNotFound,
		apperror.ErrRoomFull,
		apperror.ErrBadSeatCount,
		apperror.ErrGameStarted,
		apperror.ErrWrongPhase,
		apperror.ErrNotChooser,
		apperror.ErrNotInRoom,
		apperror.ErrMustFollowSuit,
		apperror.ErrInvalidCard,
		apperror.ErrUnknownSuit,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	return "internal error"
}
