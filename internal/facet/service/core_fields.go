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
	"time"

	customermodel "github.com/churnsight/customer-aggregation-service/internal/customer/model"
	"github.com/churnsight/customer-aggregation-service/internal/system/utils"
)

// TrustedSourceThreshold is the single trust cut-off of the core-field rule:
// a source above it may overwrite populated identity fields. Two sources both
// above the threshold can flap a field between their values depending on
// processing order; that behavior is kept for compatibility.
const TrustedSourceThreshold = 50

// coreFieldAliases maps each shared identity field to its payload key aliases,
// first non-empty alias wins.
var coreFieldAliases = []struct {
	target  func(c *customermodel.Customer) *string
	aliases []string
}{
	{func(c *customermodel.Customer) *string { return &c.FirstName }, []string{"first_name", "firstname"}},
	{func(c *customermodel.Customer) *string { return &c.LastName }, []string{"last_name", "lastname"}},
	{func(c *customermodel.Customer) *string { return &c.Phone }, []string{"phone", "phone_number", "phonenumber"}},
	{func(c *customermodel.Customer) *string { return &c.CompanyName }, []string{"company", "company_name", "companyname"}},
	{func(c *customermodel.Customer) *string { return &c.JobTitle }, []string{"job_title", "jobtitle", "title"}},
}

// ResolveCoreFields updates the customer's shared identity fields from the
// payload under the higher-trust-wins, empty-always-loses rule, then stamps
// the customer's last sync time.
func ResolveCoreFields(c *customermodel.Customer, data customermodel.SourceData, sourcePriority int, now time.Time) {
	for _, field := range coreFieldAliases {
		candidate := firstNonEmpty(data, field.aliases...)
		target := field.target(c)
		if shouldUpdateCoreField(*target, candidate, sourcePriority) {
			*target = candidate
		}
	}

	syncedAt := now
	c.LastSyncedAt = &syncedAt
}

// shouldUpdateCoreField applies the conflict rule for one field: an empty
// candidate never wins, an empty current value always loses, and a populated
// current value only yields to a source above the trust threshold.
func shouldUpdateCoreField(current, candidate string, sourcePriority int) bool {
	if candidate == "" {
		return false
	}
	if current == "" {
		return true
	}
	return sourcePriority > TrustedSourceThreshold
}

// firstNonEmpty returns the first alias key whose value parses to a non-empty
// string.
func firstNonEmpty(data customermodel.SourceData, keys ...string) string {
	for _, key := range keys {
		value, present := data[key]
		if !present {
			continue
		}
		if parsed, ok := utils.ParseString(value); ok && parsed != "" {
			return parsed
		}
	}
	return ""
}
