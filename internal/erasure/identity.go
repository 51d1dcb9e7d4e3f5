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

import "context"

// Identity is a verified subject identity as asserted by the identity
// provider. It contains facts only, no decisions.
type Identity struct {
	ID    string
	Email string
}

// IdentityProvider defines the identity backend operations needed by the
// erasure pipeline. DeleteIdentity must treat an already-deleted subject as
// success so that repeated erasure runs stay idempotent.
type IdentityProvider interface {
	VerifyToken(ctx context.Context, token string) (Identity, error)
	DeleteIdentity(ctx context.Context, subjectID string) error
}
