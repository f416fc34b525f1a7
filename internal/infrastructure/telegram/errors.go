package telegram

import (
	"github.com/gotd/td/tgerr"

	apperrors "github.com/yourusername/telegram-comment-fleet/pkg/errors"
	"github.com/yourusername/telegram-comment-fleet/internal/domain"
)

// RPC error codes that mean the stored session or the account itself is no
// longer usable. These are terminal for the account until an operator
// re-provisions the session.
var credentialCodes = []string{
	"AUTH_KEY_UNREGISTERED",
	"AUTH_KEY_INVALID",
	"SESSION_REVOKED",
	"SESSION_EXPIRED",
	"USER_DEACTIVATED",
	"USER_DEACTIVATED_BAN",
	"PHONE_NUMBER_BANNED",
}

// classify maps a gotd RPC error onto the error kinds the scheduler
// branches on.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if tgerr.Is(err, "USER_ALREADY_PARTICIPANT") {
		return domain.ErrAlreadyParticipant
	}

	for _, code := range credentialCodes {
		if tgerr.Is(err, code) {
			return apperrors.NewCredentialError(op, err)
		}
	}

	return apperrors.NewTransportError(op, err)
}

func apperrCredentialNotAuthorized() error {
	return apperrors.NewCredentialErrorf("session is not authorized")
}

func apperrCredentialNoSession(path string) error {
	return apperrors.NewCredentialErrorf("no stored session at %s", path)
}
