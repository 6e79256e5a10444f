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
	"sort"

	customermodel "github.com/churnsight/customer-aggregation-service/internal/customer/model"
	"github.com/churnsight/customer-aggregation-service/internal/facet/model"
)

// SetPrimary demotes every active record of the facet type and promotes the
// named one if it exists and is active. A missing record is silently ignored;
// the demotions and the pointer update still apply.
func SetPrimary(c *customermodel.Customer, ft model.FacetType, source string) {
	var promoted *model.FacetRecord
	for _, rec := range c.FacetsOfType(ft, true) {
		rec.IsPrimarySource = false
		if rec.Source == source {
			promoted = rec
		}
	}
	if promoted != nil {
		promoted.IsPrimarySource = true
		c.SetPrimarySource(ft, source)
	}
}

// DeactivateSource soft-deletes the active facet record of the given source.
// If the record was primary, a new primary is elected from the remaining
// active records: highest source priority, ties broken by most recent sync.
// Returns false when no matching active record exists.
func DeactivateSource(c *customermodel.Customer, ft model.FacetType, source string) bool {
	var target *model.FacetRecord
	for _, rec := range c.FacetsOfType(ft, true) {
		if rec.Source == source {
			target = rec
			break
		}
	}
	if target == nil {
		return false
	}

	target.IsActive = false
	wasPrimary := target.IsPrimarySource
	target.IsPrimarySource = false

	if wasPrimary || c.PrimarySource(ft) == source {
		ReelectPrimary(c, ft)
	}
	return true
}

// ReelectPrimary recomputes the primary record for a facet type from its
// active records, or clears the customer's pointer when none remain.
func ReelectPrimary(c *customermodel.Customer, ft model.FacetType) {
	candidates := c.FacetsOfType(ft, true)
	for _, rec := range candidates {
		rec.IsPrimarySource = false
	}
	if len(candidates) == 0 {
		c.SetPrimarySource(ft, "")
		return
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].SourcePriority != candidates[j].SourcePriority {
			return candidates[i].SourcePriority > candidates[j].SourcePriority
		}
		return candidates[i].LastSyncedAt.After(candidates[j].LastSyncedAt)
	})

	candidates[0].IsPrimarySource = true
	c.SetPrimarySource(ft, candidates[0].Source)
}

// SortForReadBack orders facet records primary-first, then most recently
// synced first, for the unified read-back surfaces.
func SortForReadBack(records []*model.FacetRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].IsPrimarySource != records[j].IsPrimarySource {
			return records[i].IsPrimarySource
		}
		return records[i].LastSyncedAt.After(records[j].LastSyncedAt)
	})
}
