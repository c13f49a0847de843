package envelope_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deaddrop/internal/domain"
	"deaddrop/internal/protocol/envelope"
)

func TestEncodeDecode(t *testing.T) {
	msg := domain.Message{
		Kind:               domain.KindSubmission,
		Text:               "meet at the usual place",
		Sender:             "anon",
		GroupMembers:       []string{"a", "b"},
		Timestamp:          1700000000,
		Attachments:        []domain.Attachment{{Name: "doc.pdf", Size: 4096, PartsCount: 2}},
		ReplyChallengeKey:  domain.Point{1, 2, 3},
		ReplyEncryptionKey: domain.Point{4, 5, 6},
	}

	frame, err := envelope.Encode(msg)
	require.NoError(t, err)
	assert.Len(t, frame, envelope.Size)
	assert.Equal(t, "DDRP", string(frame[:4]))

	got, err := envelope.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestEncode_FixedSize(t *testing.T) {
	short, err := envelope.Encode(domain.Message{Kind: domain.KindReply, Text: "ok"})
	require.NoError(t, err)
	long, err := envelope.Encode(domain.Message{Kind: domain.KindReply, Text: strings.Repeat("x", 800)})
	require.NoError(t, err)
	assert.Equal(t, len(short), len(long))
}

func TestEncode_TooLarge(t *testing.T) {
	_, err := envelope.Encode(domain.Message{Text: strings.Repeat("x", envelope.Size)})
	assert.ErrorIs(t, err, domain.ErrMessageTooLarge)
}

func TestDecode_Rejects(t *testing.T) {
	good, err := envelope.Encode(domain.Message{Text: "hi"})
	require.NoError(t, err)

	badMagic := append([]byte(nil), good...)
	badMagic[0] = 'X'
	badVersion := append([]byte(nil), good...)
	badVersion[4] = 9
	badLen := append([]byte(nil), good...)
	badLen[5], badLen[6] = 0xff, 0xff

	for name, frame := range map[string][]byte{
		"short":   good[:100],
		"magic":   badMagic,
		"version": badVersion,
		"length":  badLen,
		"zeros":   make([]byte, envelope.Size),
	} {
		_, err := envelope.Decode(frame)
		assert.ErrorIs(t, err, domain.ErrMalformed, name)
	}
}
