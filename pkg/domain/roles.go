package domain

// Role defines the sender of a conversation turn.
type Role string

const (
	// RoleUser indicates a turn sent to the reasoning engine.
	RoleUser Role = "user"
	// RoleAssistant indicates a turn produced by the reasoning engine.
	RoleAssistant Role = "assistant"
)
