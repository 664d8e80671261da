package dto

// AuthEventRequest reports an authentication state change observed by the client.
type AuthEventRequest struct {
	Event string `json:"event" validate:"required,oneof=INITIAL_SESSION SIGNED_IN TOKEN_REFRESHED SIGNED_OUT"`
}
