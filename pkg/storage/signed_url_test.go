package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("exams/exam-1/syllabus.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	key, parsedExpiry, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "exams/exam-1/syllabus.pdf", key)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("leaves/leave-1/note.pdf")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, err = signer.Parse(token)
	require.Error(t, err)
}

func TestSignedURLSignerTamperedToken(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("grievances/g-1/photo.png")
	require.NoError(t, err)

	_, _, err = signer.Parse(token + "x")
	require.Error(t, err)

	other := NewSignedURLSigner("different", time.Hour)
	_, _, err = other.Parse(token)
	require.Error(t, err)
}
