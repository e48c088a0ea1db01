// Package identity verifies credentials issued by external identity providers.
package identity

import (
	"context"
	"errors"
)

var ErrInvalidCredential = errors.New("identity: invalid credential")

// Identity 外部身份提供方确认过的用户信息
type Identity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}

type Verifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}
