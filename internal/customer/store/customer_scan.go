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

package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	customermodel "github.com/churnsight/customer-aggregation-service/internal/customer/model"
	facetmodel "github.com/churnsight/customer-aggregation-service/internal/facet/model"
	"github.com/churnsight/customer-aggregation-service/internal/system/errors"
	"github.com/churnsight/customer-aggregation-service/internal/system/log"
)

const pqUniqueViolation = pq.ErrorCode("23505")

// scanCustomerRow maps one customers row into the aggregate root. Facets are
// loaded separately.
func scanCustomerRow(row map[string]interface{}) (*customermodel.Customer, error) {

	customer := &customermodel.Customer{
		CustomerID:              columnString(row, "customer_id"),
		CompanyID:               columnString(row, "company_id"),
		FirstName:               columnString(row, "first_name"),
		LastName:                columnString(row, "last_name"),
		Email:                   columnString(row, "email"),
		Phone:                   columnString(row, "phone"),
		CompanyName:             columnString(row, "company_name"),
		JobTitle:                columnString(row, "job_title"),
		Location:                columnString(row, "location"),
		Country:                 columnString(row, "country"),
		ChurnRiskScore:          columnFloat(row, "churn_risk_score"),
		ChurnRiskLevel:          customermodel.RiskLevel(columnString(row, "churn_risk_level")),
		PrimaryCrmSource:        columnString(row, "primary_crm_source"),
		PrimaryPaymentSource:    columnString(row, "primary_payment_source"),
		PrimaryMarketingSource:  columnString(row, "primary_marketing_source"),
		PrimarySupportSource:    columnString(row, "primary_support_source"),
		PrimaryEngagementSource: columnString(row, "primary_engagement_source"),
		RowVersion:              columnInt64(row, "row_version"),
	}
	customer.PredictedAt = columnTimePtr(row, "predicted_at")
	customer.LastSyncedAt = columnTimePtr(row, "last_synced_at")
	return customer, nil
}

// scanFacetRow maps one customer_facets row, unmarshalling the JSONB measures
// column into the measure set matching the facet type.
func scanFacetRow(row map[string]interface{}) (*facetmodel.FacetRecord, error) {

	record := &facetmodel.FacetRecord{
		FacetID:         columnString(row, "facet_id"),
		CustomerID:      columnString(row, "customer_id"),
		FacetType:       facetmodel.FacetType(columnString(row, "facet_type")),
		Source:          columnString(row, "source"),
		ExternalID:      columnString(row, "external_id"),
		IsPrimarySource: columnBool(row, "is_primary_source"),
		SourcePriority:  int(columnInt64(row, "source_priority")),
		IsActive:        columnBool(row, "is_active"),
		LastSyncedAt:    columnTime(row, "last_synced_at"),
		ImportBatchID:   columnString(row, "import_batch_id"),
		ImportedBy:      columnString(row, "imported_by"),
	}

	measuresJSON, _ := row["measures"].([]byte)
	if len(measuresJSON) == 0 {
		return record, nil
	}

	var target interface{}
	switch record.FacetType {
	case facetmodel.FacetTypeCrm:
		record.Crm = &facetmodel.CrmMeasures{}
		target = record.Crm
	case facetmodel.FacetTypePayment:
		record.Payment = &facetmodel.PaymentMeasures{}
		target = record.Payment
	case facetmodel.FacetTypeMarketing:
		record.Marketing = &facetmodel.MarketingMeasures{}
		target = record.Marketing
	case facetmodel.FacetTypeSupport:
		record.Support = &facetmodel.SupportMeasures{}
		target = record.Support
	case facetmodel.FacetTypeEngagement:
		record.Engagement = &facetmodel.EngagementMeasures{}
		target = record.Engagement
	default:
		return record, nil
	}

	if err := json.Unmarshal(measuresJSON, target); err != nil {
		errorMsg := fmt.Sprintf("Failed to unmarshal measures for facet record with Id: %s", record.FacetID)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.UNMARSHAL_JSON.Code,
			Message:     errors.UNMARSHAL_JSON.Message,
			Description: errorMsg,
		}, err)
	}
	return record, nil
}

func columnString(row map[string]interface{}, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

func columnBool(row map[string]interface{}, key string) bool {
	b, _ := row[key].(bool)
	return b
}

func columnInt64(row map[string]interface{}, key string) int64 {
	switch v := row[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func columnFloat(row map[string]interface{}, key string) float64 {
	switch v := row[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case []byte:
		var f float64
		_, _ = fmt.Sscanf(string(v), "%g", &f)
		return f
	}
	return 0
}

func columnTime(row map[string]interface{}, key string) time.Time {
	t, _ := row[key].(time.Time)
	return t
}

func columnTimePtr(row map[string]interface{}, key string) *time.Time {
	if t, ok := row[key].(time.Time); ok {
		return &t
	}
	return nil
}
