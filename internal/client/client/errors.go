package client

import (
	"errors"

	"github.com/dmitrijs2005/medkeeper/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("profile not found")

	// ErrMasterKeyAlreadySet is the server refusing to replace a stored
	// wrapped master key.
	ErrMasterKeyAlreadySet = common.ErrMasterKeyAlreadySet

	ErrUserExists      = common.ErrUserExists
	ErrInvalidArgument = common.ErrorInvalidArgument
)
