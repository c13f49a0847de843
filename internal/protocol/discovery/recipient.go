package discovery

import (
	"context"

	"deaddrop/internal/crypto"
	"deaddrop/internal/domain"
)

// Client is the server API a recipient needs for a round.
type Client interface {
	BeginDiscovery(ctx context.Context) (domain.Challenge, error)
	RedeemDiscovery(ctx context.Context, resp domain.ChallengeResponse) ([]domain.MessageID, error)
}

// Respond computes the recipient's answer to ch with challenge key k.
// An empty challenge yields an empty response.
func Respond(k domain.Scalar, ch domain.Challenge) (domain.ChallengeResponse, error) {
	resp := domain.ChallengeResponse{SessionID: ch.SessionID, Responses: []domain.Point{}}
	if len(ch.Blinded) == 0 {
		return resp, nil
	}
	out, err := crypto.InvScalarMultAll(k, ch.Blinded)
	if err != nil {
		return domain.ChallengeResponse{}, err
	}
	resp.Responses = out
	return resp, nil
}

// Discover runs one full round against c with challenge key k. When the
// server has no messages no session is opened and no ids are returned.
func Discover(ctx context.Context, c Client, k domain.Scalar) ([]domain.MessageID, error) {
	ch, err := c.BeginDiscovery(ctx)
	if err != nil {
		return nil, err
	}
	if ch.SessionID == "" {
		return nil, nil
	}
	resp, err := Respond(k, ch)
	if err != nil {
		return nil, err
	}
	return c.RedeemDiscovery(ctx, resp)
}
