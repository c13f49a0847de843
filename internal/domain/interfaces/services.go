package interfaces

import (
	"context"

	domaintypes "deaddrop/internal/domain/types"
)

// JournalistService drives a provisioned journalist against the server.
type JournalistService interface {
	Register(ctx context.Context, index int) (domaintypes.JournalistUID, error)
	PublishEphemeralKeys(ctx context.Context, index, count int) (domaintypes.PublishResult, error)
	FetchMessageIDs(ctx context.Context, index int) ([]domaintypes.MessageID, error)
	ReadMessage(ctx context.Context, index int, id domaintypes.MessageID) (domaintypes.Message, error)
	// Reply answers a message previously opened with ReadMessage, using the
	// reply keys the source put in it.
	Reply(ctx context.Context, index int, to domaintypes.Message, text string) (domaintypes.MessageID, error)
	DeleteMessage(ctx context.Context, id domaintypes.MessageID) error
}

// SourceService submits to journalists and reads their replies.
type SourceService interface {
	Submit(ctx context.Context, passphrase string, msg domaintypes.Message) ([]domaintypes.MessageID, error)
	FetchReplyIDs(ctx context.Context, passphrase string) ([]domaintypes.MessageID, error)
	ReadReply(ctx context.Context, passphrase string, id domaintypes.MessageID) (domaintypes.Message, error)
}

// ServerClient is how clients talk to the drop server, all with context.
type ServerClient interface {
	Register(ctx context.Context, reg domaintypes.Registration) (domaintypes.JournalistUID, error)
	ListJournalists(ctx context.Context) ([]domaintypes.Journalist, error)
	FetchIntermediate(ctx context.Context) (domaintypes.TrustAnchor, error)

	PublishEphemeralKeys(ctx context.Context, batch domaintypes.EphemeralKeyBatch) (domaintypes.PublishResult, error)
	FetchEphemeralKeys(ctx context.Context) ([]domaintypes.JournalistEphemeralKey, error)

	Deposit(ctx context.Context, env domaintypes.MessageEnvelope) (domaintypes.MessageID, error)
	FetchMessage(ctx context.Context, id domaintypes.MessageID) (domaintypes.MessageEnvelope, error)
	DeleteMessage(ctx context.Context, id domaintypes.MessageID) error

	BeginDiscovery(ctx context.Context) (domaintypes.Challenge, error)
	RedeemDiscovery(ctx context.Context, resp domaintypes.ChallengeResponse) ([]domaintypes.MessageID, error)
}
