package entity

// Player is a seated occupant of a room. The ID is the transport-side
// connection identity; the seat index is implicit in Room.Players order.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Session is the transport-side record of a connected player: who they
// are and which room, if any, they currently occupy.
type Session struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	RoomID string `json:"room_id,omitempty"`
}
