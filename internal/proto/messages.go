package proto

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// Field names of the Struct messages exchanged by ProfileService.
const (
	FieldUserID                 = "user_id"
	FieldUserName               = "username"
	FieldAuthSalt               = "auth_salt"
	FieldVerifier               = "verifier"
	FieldAccessToken            = "access_token"
	FieldRefreshToken           = "refresh_token"
	FieldEncryptionSalt         = "encryption_salt"
	FieldEncryptedUserMasterKey = "encrypted_user_master_key"
)

// PingOK is the status returned by a healthy server.
const PingOK = "OK"

var ErrMalformedMessage = errors.New("malformed message")

// Credentials is the payload of Register and Login requests. Verifier is
// hex encoded. AuthSalt is sent on Register only.
type Credentials struct {
	UserName string
	AuthSalt string
	Verifier string
}

// Session is the payload of Register, Login and RefreshToken responses.
type Session struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

// ProfileMessage is the payload of a ReadProfile response.
type ProfileMessage struct {
	UserID                 string
	EncryptionSalt         string
	EncryptedUserMasterKey *string
}

func CredentialsToStruct(c Credentials) (*structpb.Struct, error) {
	fields := map[string]any{
		FieldUserName: c.UserName,
		FieldVerifier: c.Verifier,
	}
	if c.AuthSalt != "" {
		fields[FieldAuthSalt] = c.AuthSalt
	}
	return structpb.NewStruct(fields)
}

// CredentialsFromStruct decodes s. A missing auth_salt leaves AuthSalt
// empty.
func CredentialsFromStruct(s *structpb.Struct) (Credentials, error) {
	name, err := stringField(s, FieldUserName)
	if err != nil {
		return Credentials{}, err
	}
	verifier, err := stringField(s, FieldVerifier)
	if err != nil {
		return Credentials{}, err
	}
	c := Credentials{UserName: name, Verifier: verifier}
	if _, ok := s.GetFields()[FieldAuthSalt]; ok {
		if c.AuthSalt, err = stringField(s, FieldAuthSalt); err != nil {
			return Credentials{}, err
		}
	}
	return c, nil
}

func SessionToStruct(r Session) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		FieldUserID:       r.UserID,
		FieldAccessToken:  r.AccessToken,
		FieldRefreshToken: r.RefreshToken,
	})
}

func SessionFromStruct(s *structpb.Struct) (Session, error) {
	id, err := stringField(s, FieldUserID)
	if err != nil {
		return Session{}, err
	}
	access, err := stringField(s, FieldAccessToken)
	if err != nil {
		return Session{}, err
	}
	refresh, err := stringField(s, FieldRefreshToken)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: id, AccessToken: access, RefreshToken: refresh}, nil
}

// ProfileToStruct encodes p. A nil EncryptedUserMasterKey becomes an
// explicit null.
func ProfileToStruct(p ProfileMessage) (*structpb.Struct, error) {
	var key any
	if p.EncryptedUserMasterKey != nil {
		key = *p.EncryptedUserMasterKey
	}
	return structpb.NewStruct(map[string]any{
		FieldUserID:                 p.UserID,
		FieldEncryptionSalt:         p.EncryptionSalt,
		FieldEncryptedUserMasterKey: key,
	})
}

func ProfileFromStruct(s *structpb.Struct) (ProfileMessage, error) {
	id, err := stringField(s, FieldUserID)
	if err != nil {
		return ProfileMessage{}, err
	}
	salt, err := stringField(s, FieldEncryptionSalt)
	if err != nil {
		return ProfileMessage{}, err
	}

	p := ProfileMessage{UserID: id, EncryptionSalt: salt}

	v, ok := s.GetFields()[FieldEncryptedUserMasterKey]
	if !ok {
		return p, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NullValue:
	case *structpb.Value_StringValue:
		if k.StringValue != "" {
			key := k.StringValue
			p.EncryptedUserMasterKey = &key
		}
	default:
		return ProfileMessage{}, fmt.Errorf("%w: %s is not a string", ErrMalformedMessage, FieldEncryptedUserMasterKey)
	}
	return p, nil
}

func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", fmt.Errorf("%w: missing %s", ErrMalformedMessage, name)
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s is not a string", ErrMalformedMessage, name)
	}
	return sv.StringValue, nil
}
