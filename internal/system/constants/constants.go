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

package constants

import "time"

const ApiBasePath = "/api/v1"

// ExternalIdPayloadKeys carry the external identifier of a facet record
// within its source system. Checked in order.
var ExternalIdPayloadKeys = []string{"id", "external_id"}

// Advisory lock retry policy for per-customer write serialization.
const (
	MaxLockRetryAttempts = 5
	LockRetryDelay       = 100 * time.Millisecond
	LockTimeout          = 1 * time.Second
)

const DatabaseSchemaFile = "dbscripts/postgres.sql"
