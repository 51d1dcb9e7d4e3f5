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
	"sort"
	"strconv"
	"strings"
	"sync"
)

// fakeObjectStore is an in-memory cloudstorage.Client with configurable page
// size and failure injection.
type fakeObjectStore struct {
	mu          sync.Mutex
	objects     map[string]bool
	pageSize    int
	listErr     error
	deleteErr   error
	failKeys    map[string]bool
	listCalls   int
	deleteCalls int
}

func newFakeObjectStore(keys ...string) *fakeObjectStore {
	objects := make(map[string]bool, len(keys))
	for _, k := range keys {
		objects[k] = true
	}
	return &fakeObjectStore{objects: objects, pageSize: 1000}
}

func (f *fakeObjectStore) keysWithPrefix(prefix string) []string {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (f *fakeObjectStore) ListKeys(_ context.Context, _, prefix, continuationToken string) ([]string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, "", f.listErr
	}

	keys := f.keysWithPrefix(prefix)
	offset := 0
	if continuationToken != "" {
		var err error
		offset, err = strconv.Atoi(continuationToken)
		if err != nil {
			return nil, "", errors.New("bad continuation token")
		}
	}
	if offset >= len(keys) {
		return nil, "", nil
	}

	end := min(offset+f.pageSize, len(keys))
	var next string
	if end < len(keys) {
		next = strconv.Itoa(end)
	}
	return keys[offset:end], next, nil
}

func (f *fakeObjectStore) DeleteKeys(_ context.Context, _ string, keys []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}

	var failed []string
	for _, k := range keys {
		if f.failKeys[k] {
			failed = append(failed, k)
			continue
		}
		// deleting an absent key is success
		delete(f.objects, k)
	}
	return failed, nil
}

func (f *fakeObjectStore) DeleteKey(_ context.Context, _ string, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.failKeys[key] {
		return errors.New("access denied")
	}
	delete(f.objects, key)
	return nil
}

// fakeStore is an in-memory RelationalStore with per-table failure injection.
type fakeStore struct {
	mu         sync.Mutex
	rows       map[string]map[string]int64 // table -> userID -> row count
	failTables map[string]bool
	refs       map[string][]string // userID -> artifact refs
	refsErr    error
	calls      []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:       make(map[string]map[string]int64),
		failTables: make(map[string]bool),
		refs:       make(map[string][]string),
	}
}

func (f *fakeStore) seed(table, userID string, count int64) {
	if f.rows[table] == nil {
		f.rows[table] = make(map[string]int64)
	}
	f.rows[table][userID] = count
}

func (f *fakeStore) deleteFrom(table, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, table)
	if f.failTables[table] {
		return 0, errors.New("connection refused")
	}
	n := f.rows[table][userID]
	delete(f.rows[table], userID)
	return n, nil
}

func (f *fakeStore) DeletePredictionsByUserID(_ context.Context, userID string) (int64, error) {
	return f.deleteFrom("predictions", userID)
}

func (f *fakeStore) DeleteTrainingsByUserID(_ context.Context, userID string) (int64, error) {
	return f.deleteFrom("trainings", userID)
}

func (f *fakeStore) DeletePushTokensByUserID(_ context.Context, userID string) (int64, error) {
	return f.deleteFrom("push_tokens", userID)
}

func (f *fakeStore) DeleteCreditsByUserID(_ context.Context, userID string) (int64, error) {
	return f.deleteFrom("credits", userID)
}

func (f *fakeStore) DeleteTransactionsByUserID(_ context.Context, userID string) (int64, error) {
	return f.deleteFrom("transactions", userID)
}

func (f *fakeStore) ListArtifactRefsByUserID(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refsErr != nil {
		return nil, f.refsErr
	}
	refs := f.refs[userID]
	// References vanish with their rows; repeat runs see none.
	delete(f.refs, userID)
	return refs, nil
}

// fakeIdentityProvider resolves tokens from a static map and records
// deletions.
type fakeIdentityProvider struct {
	mu          sync.Mutex
	identities  map[string]Identity // token -> identity
	verifyErr   error
	deleteErr   error
	verifyCalls int
	deleted     []string
}

func newFakeIdentityProvider() *fakeIdentityProvider {
	return &fakeIdentityProvider{identities: make(map[string]Identity)}
}

func (f *fakeIdentityProvider) VerifyToken(_ context.Context, token string) (Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	if f.verifyErr != nil {
		return Identity{}, f.verifyErr
	}
	ident, ok := f.identities[token]
	if !ok {
		return Identity{}, errors.New("invalid token")
	}
	return ident, nil
}

func (f *fakeIdentityProvider) DeleteIdentity(_ context.Context, subjectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	// absent identities delete cleanly
	f.deleted = append(f.deleted, subjectID)
	return nil
}
