package protocol

const (
	// Net/update cadence
	TickRate = 20

	// Match limits
	MinPlayers = 2
	MaxPlayers = 4

	MaxChatLen = 240
)
