package types

// Challenge is the server's answer to a discovery request: every stored
// challenge value blinded with the session secret, in shuffled order.
// An empty SessionID with no values means there are no messages.
type Challenge struct {
	SessionID SessionID `json:"challenge_id"`
	Blinded   []Point   `json:"message_challenges"`
}

// ChallengeResponse is the recipient's unblinded answer, one value per
// position of the Challenge.
type ChallengeResponse struct {
	SessionID SessionID `json:"-"`
	Responses []Point   `json:"message_challenges_responses"`
}

// DiscoveryResult lists the message ids that matched a response.
type DiscoveryResult struct {
	Messages []MessageID `json:"messages"`
}
