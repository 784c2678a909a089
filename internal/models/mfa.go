package models

// MfaChallenge is one outstanding multi-factor challenge. Type is a backend
// tag such as "sms", "email", "push" or "app"; it is shown to the user and
// decides between one-time code entry and out-of-band confirmation.
type MfaChallenge struct {
	ID       string `json:"otp_id"`
	Token    string `json:"token"`
	Type     string `json:"mfa_type"`
	Resolved bool   `json:"-"`
}

// MfaPollStatus is the outcome of one poll of an out-of-band challenge.
type MfaPollStatus int

const (
	MfaPending MfaPollStatus = iota
	MfaConfirmed
)
