package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants for the client-server protocol.
const (
	// Client to server messages
	MessageTypeCreateRoom     MessageType = "create_room"
	MessageTypeJoinRoom       MessageType = "join_room"
	MessageTypeStartGame      MessageType = "start_game"
	MessageTypePlayCards      MessageType = "play_cards"
	MessageTypeDrawCard       MessageType = "draw_card"
	MessageTypeCallWin        MessageType = "call_win"
	MessageTypeUpdateSettings MessageType = "update_settings"
	MessageTypeNextRound      MessageType = "next_round"
	MessageTypeLeaveRoom      MessageType = "leave_room"

	// Server to client messages
	MessageTypeRoomCreated  MessageType = "room_created"
	MessageTypeRoomJoined   MessageType = "room_joined"
	MessageTypePlayerJoined MessageType = "player_joined"
	MessageTypePlayerLeft   MessageType = "player_left"
	MessageTypeGameState    MessageType = "game_state"
	MessageTypeRoomUpdated  MessageType = "room_updated"
	MessageTypeError        MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
