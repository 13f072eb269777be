package chat

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// UserSender is the sender label browsers use for turns typed by the user.
// Every other label is treated as the assistant.
const UserSender = "user"

// RawTurn is a history entry as it arrives on the wire.
type RawTurn struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Turn is one message in a conversation, attributed to a role.
type Turn struct {
	Role Role
	Text string
}

// RoleFor maps a sender label to a chat role.
func RoleFor(sender string) Role {
	if sender == UserSender {
		return RoleUser
	}
	return RoleAssistant
}
