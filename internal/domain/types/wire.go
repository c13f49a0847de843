package types

// Request and response bodies of the HTTP API that have no domain type of
// their own.

// RegistrationResult answers POST /journalists.
type RegistrationResult struct {
	UID JournalistUID `json:"journalist_uid"`
}

// JournalistList answers GET /journalists.
type JournalistList struct {
	Journalists []Journalist `json:"journalists"`
}

// EphemeralKeyList answers GET /ephemeral_keys.
type EphemeralKeyList struct {
	Keys []JournalistEphemeralKey `json:"ephemeral_keys"`
}

// DepositResult answers POST /message.
type DepositResult struct {
	ID MessageID `json:"message_id"`
}

// ErrorResult is the body of every non-2xx response.
type ErrorResult struct {
	Error string `json:"error"`
}
