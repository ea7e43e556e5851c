package model

type InstanceState string

const (
	InstanceStatePending  InstanceState = "pending"
	InstanceStateRunning  InstanceState = "running"
	InstanceStateStopping InstanceState = "stopping"
	InstanceStateStopped  InstanceState = "stopped"
	InstanceStateUnknown  InstanceState = "unknown"
)

// ParseInstanceState normalizes a provider state name. Anything outside the
// closed set (shutting-down, terminated, ...) is reported as unknown.
func ParseInstanceState(raw string) InstanceState {
	switch s := InstanceState(raw); s {
	case InstanceStatePending, InstanceStateRunning, InstanceStateStopping, InstanceStateStopped:
		return s
	default:
		return InstanceStateUnknown
	}
}

// Instance is a point-in-time snapshot of the controlled instance. It is
// fetched fresh for every command and never cached.
type Instance struct {
	ID            string        `json:"id"`
	State         InstanceState `json:"state"`
	RawState      string        `json:"raw_state"`
	PublicAddress string        `json:"public_address,omitempty"`
}

func NewInstance(id, rawState, publicAddress string) Instance {
	return Instance{
		ID:            id,
		State:         ParseInstanceState(rawState),
		RawState:      rawState,
		PublicAddress: publicAddress,
	}
}

func (i Instance) HasAddress() bool {
	return i.PublicAddress != ""
}

// DisplayState returns the provider's own state name when known, falling back
// to the normalized state.
func (i Instance) DisplayState() string {
	if i.RawState != "" {
		return i.RawState
	}
	return string(i.State)
}
