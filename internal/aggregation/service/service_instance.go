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

package service

import (
	"sync"

	"github.com/churnsight/customer-aggregation-service/internal/customer/store"
	"github.com/churnsight/customer-aggregation-service/internal/priority"
	"github.com/churnsight/customer-aggregation-service/internal/system/config"
	"github.com/churnsight/customer-aggregation-service/internal/system/database/lock"
	"github.com/churnsight/customer-aggregation-service/internal/system/database/provider"
)

var (
	instance *AggregationService
	once     sync.Once
)

// GetAggregationService returns the shared orchestrator instance, wired with
// the postgres store, the configured trust table and advisory locking.
func GetAggregationService() AggregationServiceInterface {

	once.Do(func() {
		runtime := config.GetCASRuntime()
		table := priority.NewTable(runtime.Config.Aggregation.SourcePriorities)
		repo := store.NewCustomerStore(provider.NewDBProvider())
		locks := func() (CustomerLock, error) {
			return lock.NewPostgresLock()
		}
		instance = NewAggregationService(repo, table, locks)
	})
	return instance
}
