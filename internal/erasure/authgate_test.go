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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthGateAuthorize(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		subjectID string
		wantErr   error
	}{
		{
			name:      "valid token and matching subject",
			header:    "Bearer good-token",
			subjectID: "user-1",
		},
		{
			name:      "case-folded subject match",
			header:    "Bearer good-token",
			subjectID: "USER-1",
		},
		{
			name:      "case-insensitive bearer scheme",
			header:    "bearer good-token",
			subjectID: "user-1",
		},
		{
			name:      "missing header",
			header:    "",
			subjectID: "user-1",
			wantErr:   ErrUnauthenticated,
		},
		{
			name:      "not a bearer scheme",
			header:    "Basic dXNlcjpwYXNz",
			subjectID: "user-1",
			wantErr:   ErrUnauthenticated,
		},
		{
			name:      "empty token",
			header:    "Bearer ",
			subjectID: "user-1",
			wantErr:   ErrUnauthenticated,
		},
		{
			name:      "unknown token",
			header:    "Bearer bad-token",
			subjectID: "user-1",
			wantErr:   ErrUnauthenticated,
		},
		{
			name:      "subject mismatch",
			header:    "Bearer good-token",
			subjectID: "user-2",
			wantErr:   ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeIdentityProvider()
			provider.identities["good-token"] = Identity{ID: "user-1", Email: "u1@example.com"}
			gate := NewAuthGate(provider)

			ident, err := gate.Authorize(context.Background(), tt.header, tt.subjectID)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", ident.ID)
		})
	}
}

func TestAuthGateDoesNotVerifyMalformedHeaders(t *testing.T) {
	provider := newFakeIdentityProvider()
	gate := NewAuthGate(provider)

	_, err := gate.Authorize(context.Background(), "", "user-1")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Zero(t, provider.verifyCalls, "no verification call should be made without a bearer credential")
}

func TestAuthGateEmptyIdentityIsUnauthenticated(t *testing.T) {
	provider := newFakeIdentityProvider()
	provider.identities["weird-token"] = Identity{ID: ""}
	gate := NewAuthGate(provider)

	_, err := gate.Authorize(context.Background(), "Bearer weird-token", "user-1")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthGateVerifierOutage(t *testing.T) {
	provider := newFakeIdentityProvider()
	provider.verifyErr = errors.New("identity provider unavailable")
	gate := NewAuthGate(provider)

	_, err := gate.Authorize(context.Background(), "Bearer any", "user-1")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
