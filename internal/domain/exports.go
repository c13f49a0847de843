package domain

import (
	interfaces "deaddrop/internal/domain/interfaces"
	types "deaddrop/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Role                   = types.Role
	KeyRef                 = types.KeyRef
	JournalistUID          = types.JournalistUID
	MessageID              = types.MessageID
	SessionID              = types.SessionID
	Fingerprint            = types.Fingerprint
	Ed25519Public          = types.Ed25519Public
	Ed25519Private         = types.Ed25519Private
	Point                  = types.Point
	Scalar                 = types.Scalar
	SigningKeyPair         = types.SigningKeyPair
	GroupKeyPair           = types.GroupKeyPair
	Certificate            = types.Certificate
	JournalistIdentity     = types.JournalistIdentity
	Journalist             = types.Journalist
	Registration           = types.Registration
	TrustAnchor            = types.TrustAnchor
	SourceIdentity         = types.SourceIdentity
	MessageKind            = types.MessageKind
	Attachment             = types.Attachment
	Message                = types.Message
	MessageEnvelope        = types.MessageEnvelope
	EphemeralKeyPublic     = types.EphemeralKeyPublic
	EphemeralKeyBatch      = types.EphemeralKeyBatch
	JournalistEphemeralKey = types.JournalistEphemeralKey
	EphemeralKeyRecord     = types.EphemeralKeyRecord
	PublishResult          = types.PublishResult
	Challenge              = types.Challenge
	ChallengeResponse      = types.ChallengeResponse
	DiscoveryResult        = types.DiscoveryResult
	RegistrationResult     = types.RegistrationResult
	JournalistList         = types.JournalistList
	EphemeralKeyList       = types.EphemeralKeyList
	DepositResult          = types.DepositResult
	ErrorResult            = types.ErrorResult
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	KeyStore          = interfaces.KeyStore
	EphemeralKeyStore = interfaces.EphemeralKeyStore
	MessageStore      = interfaces.MessageStore
	JournalistStore   = interfaces.JournalistStore
	JournalistService = interfaces.JournalistService
	SourceService     = interfaces.SourceService
	ServerClient      = interfaces.ServerClient
)

// Constants re-exported from the types subpackage.
const (
	RoleRoot         = types.RoleRoot
	RoleIntermediate = types.RoleIntermediate
	RoleJournalist   = types.RoleJournalist
	RoleChallenge    = types.RoleChallenge
	RoleEphemeral    = types.RoleEphemeral
	RoleMessage      = types.RoleMessage
	RoleSource       = types.RoleSource

	KindSubmission = types.KindSubmission
	KindReply      = types.KindReply
)
