package model

type InteractionType int

const (
	InteractionTypePing               InteractionType = 1
	InteractionTypeApplicationCommand InteractionType = 2
)

func (t InteractionType) String() string {
	switch t {
	case InteractionTypePing:
		return "ping"
	case InteractionTypeApplicationCommand:
		return "application_command"
	default:
		return "unsupported"
	}
}

type ResponseType int

const (
	ResponseTypePong                     ResponseType = 1
	ResponseTypeChannelMessageWithSource ResponseType = 4
)

// Interaction is the subset of an inbound chat platform interaction this
// service reads.
type Interaction struct {
	ID            string          `json:"id,omitempty"`
	ApplicationID string          `json:"application_id,omitempty"`
	Type          InteractionType `json:"type"`
	GuildID       string          `json:"guild_id,omitempty"`
	Data          InteractionData `json:"data"`
	Member        *Member         `json:"member,omitempty"`
	User          *User           `json:"user,omitempty"`
}

type InteractionData struct {
	Name string `json:"name"`
}

type Member struct {
	User *User `json:"user,omitempty"`
}

type User struct {
	ID string `json:"id"`
}

// InvokerID returns the id of the user behind the interaction. Guild
// interactions carry it under member, direct messages under user.
func (i Interaction) InvokerID() string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

type InteractionResponse struct {
	Type ResponseType             `json:"type"`
	Data *InteractionResponseData `json:"data,omitempty"`
}

type InteractionResponseData struct {
	Content string `json:"content"`
}

func PongResponse() InteractionResponse {
	return InteractionResponse{Type: ResponseTypePong}
}

func MessageResponse(content string) InteractionResponse {
	return InteractionResponse{
		Type: ResponseTypeChannelMessageWithSource,
		Data: &InteractionResponseData{Content: content},
	}
}
