package core

const (
	EventMessageReceived   = "received chat message"
	EventPublicKeyReleased = "released public key"
)

const (
	DefaultHashRounds = 10
)

const (
	RealtimeChannel = "sigchat:events"
)
