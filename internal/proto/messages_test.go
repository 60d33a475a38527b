package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestProfileStruct_NullKey(t *testing.T) {
	s, err := ProfileToStruct(ProfileMessage{UserID: "u1", EncryptionSalt: "s1"})
	require.NoError(t, err)

	_, isNull := s.GetFields()[FieldEncryptedUserMasterKey].GetKind().(*structpb.Value_NullValue)
	assert.True(t, isNull, "an unset key must travel as an explicit null")

	p, err := ProfileFromStruct(s)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "s1", p.EncryptionSalt)
	assert.Nil(t, p.EncryptedUserMasterKey)
}

func TestProfileStruct_WithKey(t *testing.T) {
	blob := "AQID"
	s, err := ProfileToStruct(ProfileMessage{UserID: "u1", EncryptionSalt: "s1", EncryptedUserMasterKey: &blob})
	require.NoError(t, err)

	p, err := ProfileFromStruct(s)
	require.NoError(t, err)
	require.NotNil(t, p.EncryptedUserMasterKey)
	assert.Equal(t, blob, *p.EncryptedUserMasterKey)
}

func TestProfileFromStruct_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
	}{
		{name: "missing salt", fields: map[string]any{FieldUserID: "u1"}},
		{name: "numeric salt", fields: map[string]any{FieldUserID: "u1", FieldEncryptionSalt: 42.0}},
		{name: "numeric key", fields: map[string]any{FieldUserID: "u1", FieldEncryptionSalt: "s", FieldEncryptedUserMasterKey: 1.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := structpb.NewStruct(tt.fields)
			require.NoError(t, err)
			_, err = ProfileFromStruct(s)
			require.ErrorIs(t, err, ErrMalformedMessage)
		})
	}
}

func TestSessionStruct(t *testing.T) {
	want := Session{UserID: "u1", AccessToken: "tok", RefreshToken: "ref"}
	s, err := SessionToStruct(want)
	require.NoError(t, err)

	r, err := SessionFromStruct(s)
	require.NoError(t, err)
	assert.Equal(t, want, r)

	_, err = SessionFromStruct(&structpb.Struct{})
	require.ErrorIs(t, err, ErrMalformedMessage)

	noRefresh, err := structpb.NewStruct(map[string]any{FieldUserID: "u1", FieldAccessToken: "tok"})
	require.NoError(t, err)
	_, err = SessionFromStruct(noRefresh)
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestCredentialsStruct(t *testing.T) {
	register := Credentials{UserName: "alice", AuthSalt: "salt", Verifier: "abcd"}
	s, err := CredentialsToStruct(register)
	require.NoError(t, err)
	got, err := CredentialsFromStruct(s)
	require.NoError(t, err)
	assert.Equal(t, register, got)

	login := Credentials{UserName: "alice", Verifier: "abcd"}
	s, err = CredentialsToStruct(login)
	require.NoError(t, err)
	assert.NotContains(t, s.GetFields(), FieldAuthSalt)
	got, err = CredentialsFromStruct(s)
	require.NoError(t, err)
	assert.Equal(t, login, got)

	bad, err := structpb.NewStruct(map[string]any{FieldUserName: "alice", FieldVerifier: "abcd", FieldAuthSalt: 1.0})
	require.NoError(t, err)
	_, err = CredentialsFromStruct(bad)
	require.ErrorIs(t, err, ErrMalformedMessage)

	_, err = CredentialsFromStruct(&structpb.Struct{})
	require.ErrorIs(t, err, ErrMalformedMessage)
}
