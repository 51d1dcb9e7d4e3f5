// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package erasure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrUnauthenticated means the bearer token is missing, malformed, or
	// did not resolve to a live identity.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden means the verified identity does not match the subject
	// whose data the caller asked to erase.
	ErrForbidden = errors.New("forbidden")
)

// AuthGate verifies the bearer credential and authorizes the claimed subject
// against the verified identity. It is the only component allowed to abort
// the pipeline before any deletion runs.
type AuthGate struct {
	provider IdentityProvider
}

func NewAuthGate(provider IdentityProvider) *AuthGate {
	return &AuthGate{provider: provider}
}

// Authorize resolves the Authorization header to a verified identity and
// checks that the claimed subject id matches it, case-folded. Verification is
// read-only; no retry is attempted on failure.
func (g *AuthGate) Authorize(ctx context.Context, authorizationHeader, claimedSubjectID string) (Identity, error) {
	token, err := bearerToken(authorizationHeader)
	if err != nil {
		return Identity{}, err
	}

	ident, err := g.provider.VerifyToken(ctx, token)
	if err != nil {
		slog.Info("Token verification failed", slog.Any("error", err))
		return Identity{}, fmt.Errorf("%w: token did not resolve to a live identity", ErrUnauthenticated)
	}
	if ident.ID == "" {
		return Identity{}, fmt.Errorf("%w: identity provider returned an empty subject", ErrUnauthenticated)
	}

	if !strings.EqualFold(ident.ID, claimedSubjectID) {
		slog.Info("Subject mismatch", slog.String("verified", ident.ID))
		return Identity{}, fmt.Errorf("%w: authenticated identity does not match requested subject", ErrForbidden)
	}

	return ident, nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing Authorization header", ErrUnauthenticated)
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: Authorization header is not a bearer credential", ErrUnauthenticated)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", ErrUnauthenticated)
	}
	return token, nil
}
