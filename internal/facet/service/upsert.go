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

	"github.com/google/uuid"

	customermodel "github.com/churnsight/customer-aggregation-service/internal/customer/model"
	"github.com/churnsight/customer-aggregation-service/internal/facet/model"
	"github.com/churnsight/customer-aggregation-service/internal/priority"
	"github.com/churnsight/customer-aggregation-service/internal/system/constants"
	"github.com/churnsight/customer-aggregation-service/internal/system/log"
	"github.com/churnsight/customer-aggregation-service/internal/system/utils"
)

// UpsertRequest carries one source's fact bundle into the generic facet upsert.
type UpsertRequest struct {
	FacetType     model.FacetType
	Source        string
	Data          customermodel.SourceData
	ImportBatchID string
	ImportedBy    string
	Now           time.Time
}

// UpsertFacet finds or creates the facet record for the (customer, source)
// pair and applies the per-facet field mapping. The customer's facet
// collection must be fully loaded. Returns nil when the facet type is
// unrecognized; the remaining aggregation steps still proceed in that case.
func UpsertFacet(c *customermodel.Customer, table *priority.Table, req UpsertRequest) *model.FacetRecord {
	desc := descriptorFor(req.FacetType)
	if desc == nil {
		log.GetLogger().Warn("Skipping facet upsert for unrecognized facet type",
			log.String("facet_type", string(req.FacetType)),
			log.String("source", req.Source))
		return nil
	}

	externalID := extractExternalID(req.Data)
	existing := findFacetRecord(c, req.FacetType, req.Source, externalID)

	if existing != nil {
		// Update in place. sourcePriority, isPrimarySource and isActive are
		// deliberately untouched on re-sync.
		desc.applyFields(existing, req.Data)
		existing.LastSyncedAt = req.Now
		if req.ImportBatchID != "" {
			existing.ImportBatchID = req.ImportBatchID
		}
		if req.ImportedBy != "" {
			existing.ImportedBy = req.ImportedBy
		}
		return existing
	}

	record := &model.FacetRecord{
		FacetID:        uuid.New().String(),
		CustomerID:     c.CustomerID,
		FacetType:      req.FacetType,
		Source:         req.Source,
		ExternalID:     externalID,
		SourcePriority: table.Priority(req.Source),
		IsActive:       true,
		LastSyncedAt:   req.Now,
		ImportBatchID:  req.ImportBatchID,
		ImportedBy:     req.ImportedBy,
	}
	desc.applyFields(record, req.Data)
	c.Facets = append(c.Facets, record)

	electOnInsert(c, record)
	return record
}

// electOnInsert promotes a newly created record when no active primary exists
// for its facet type, or when the new record outranks the current primary.
func electOnInsert(c *customermodel.Customer, record *model.FacetRecord) {
	current := activePrimary(c, record.FacetType)
	if current != nil && current.SourcePriority >= record.SourcePriority {
		return
	}
	if current != nil {
		current.IsPrimarySource = false
	}
	record.IsPrimarySource = true
	c.SetPrimarySource(record.FacetType, record.Source)
}

// activePrimary returns the active record flagged primary for a facet type.
func activePrimary(c *customermodel.Customer, ft model.FacetType) *model.FacetRecord {
	for _, rec := range c.FacetsOfType(ft, true) {
		if rec.IsPrimarySource {
			return rec
		}
	}
	return nil
}

// findFacetRecord locates the active-or-inactive record matching the natural
// upsert key: same source, plus external-id equality when the incoming
// external id is non-empty.
func findFacetRecord(c *customermodel.Customer, ft model.FacetType, source, externalID string) *model.FacetRecord {
	for _, rec := range c.FacetsOfType(ft, false) {
		if rec.Source != source {
			continue
		}
		if externalID == "" || rec.ExternalID == externalID {
			return rec
		}
	}
	return nil
}

// extractExternalID pulls the source-system identifier out of the payload.
func extractExternalID(data customermodel.SourceData) string {
	for _, key := range constants.ExternalIdPayloadKeys {
		if value, ok := data[key]; ok {
			if id, ok := utils.ParseString(value); ok {
				return id
			}
		}
	}
	return ""
}
