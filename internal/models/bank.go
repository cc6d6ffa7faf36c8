package models

// SimBank is one physical multi-port GSM gateway. Loaded from configuration
// at startup and treated as immutable afterwards.
type SimBank struct {
	ID       string `json:"id"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"-"`
	Password string `json:"-"`
}

// RegistrationState is the vendor's radio registration code for a slot.
type RegistrationState int

const (
	StateNoSim RegistrationState = iota
	StateIdle
	StateRegistering
	StateReady
	StateCallActive
	StateRegFailed
	StateLowBalance
	StateLockedDevice
	StateLockedOperator
	StateSimError
)

var stateNames = map[RegistrationState]string{
	StateNoSim:          "no sim",
	StateIdle:           "idle",
	StateRegistering:    "registering",
	StateReady:          "ready",
	StateCallActive:     "call active",
	StateRegFailed:      "registration failed",
	StateLowBalance:     "low balance",
	StateLockedDevice:   "locked to device",
	StateLockedOperator: "locked to operator",
	StateSimError:       "sim error",
}

func (s RegistrationState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// SlotStatus is the vendor-reported state of one slot. It is never cached
// beyond the duration of a readiness check.
type SlotStatus struct {
	Port        string            `json:"port"`
	Active      bool              `json:"active"`
	State       RegistrationState `json:"state"`
	Signal      int               `json:"signal"`
	Balance     string            `json:"balance"`
	Operator    string            `json:"operator"`
	PhoneNumber string            `json:"phoneNumber"`
	ICCID       string            `json:"iccid"`
}

// Ready reports whether the slot can accept an outbound send.
func (s SlotStatus) Ready() bool {
	return s.Active && s.State == StateReady
}
