/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package lock

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"

	"github.com/churnsight/customer-aggregation-service/internal/system/database/provider"
	"github.com/churnsight/customer-aggregation-service/internal/system/errors"
)

// CustomerLockInterface serializes read-modify-write cycles on one customer
// aggregate. Concurrent upserts for the same customer are not internally
// ordered by the engine; batch callers acquire this lock around each call.
type CustomerLockInterface interface {
	Acquire(key string) (bool, error)
	Release(key string) error
}

// PostgresLock implements CustomerLockInterface on postgres advisory locks.
// Advisory locks are session scoped, so the lock holds a dedicated transaction
// for its lifetime.
type PostgresLock struct {
	tx *sql.Tx
}

// NewPostgresLock opens a lock helper backed by a fresh transaction.
func NewPostgresLock() (*PostgresLock, error) {
	dbClient, err := provider.NewDBProvider().GetDBClient()
	if err != nil {
		return nil, errors.NewServerError(errors.DB_CLIENT_INIT, err)
	}
	tx, err := dbClient.BeginTx()
	if err != nil {
		return nil, errors.NewServerError(errors.LOCK_ACQUIRE, err)
	}
	return &PostgresLock{tx: tx}, nil
}

// PostgreSQL advisory locks use bigint keys. The string key is hashed with
// FNV-1a into a single bigint.
func (l *PostgresLock) generateLockKey(key string) (int64, error) {

	h := fnv.New64a()
	_, err := h.Write([]byte(key))
	if err != nil {
		return 0, fmt.Errorf("failed to hash lock key '%s': %w", key, err)
	}
	return int64(h.Sum64()), nil
}

func (l *PostgresLock) Acquire(key string) (bool, error) {
	lockID, err := l.generateLockKey(key)
	if err != nil {
		return false, errors.NewServerError(errors.LOCK_KEY_GEN, err)
	}

	var acquired bool
	err = l.tx.QueryRowContext(context.Background(), "SELECT pg_try_advisory_xact_lock($1)", lockID).Scan(&acquired)
	if err != nil {
		return false, errors.NewServerError(errors.LOCK_ACQUIRE, err)
	}
	return acquired, nil
}

// Release ends the holding transaction, dropping every advisory lock it owns.
func (l *PostgresLock) Release(key string) error {
	if err := l.tx.Commit(); err != nil {
		return errors.NewServerError(errors.LOCK_RELEASE, err)
	}
	return nil
}
