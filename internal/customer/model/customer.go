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

package model

import (
	"time"

	facetmodel "github.com/churnsight/customer-aggregation-service/internal/facet/model"
)

// RiskLevel is the four-level churn risk band derived from the score.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "Low"
	RiskLevelMedium   RiskLevel = "Medium"
	RiskLevelHigh     RiskLevel = "High"
	RiskLevelCritical RiskLevel = "Critical"
)

// SourceData is one loosely typed fact bundle reported by a source: string
// keys in snake_case or lowercase-no-separator form, values as decoded JSON
// scalars. The engine never assumes a fixed schema.
type SourceData map[string]interface{}

// HasKey reports whether any of the given keys is present in the payload.
func (d SourceData) HasKey(keys ...string) bool {
	for _, key := range keys {
		if _, ok := d[key]; ok {
			return true
		}
	}
	return false
}

// Customer is the aggregate root: one logical customer per company, merged
// from every source that reported data for it.
type Customer struct {
	CustomerID string `json:"customer_id"`
	CompanyID  string `json:"company_id"`

	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	JobTitle    string `json:"job_title,omitempty"`
	Location    string `json:"location,omitempty"`
	Country     string `json:"country,omitempty"`

	ChurnRiskScore float64    `json:"churn_risk_score"`
	ChurnRiskLevel RiskLevel  `json:"churn_risk_level"`
	PredictedAt    *time.Time `json:"predicted_at,omitempty"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`

	// Per-facet primary source pointers; empty means no primary elected.
	PrimaryCrmSource        string `json:"primary_crm_source,omitempty"`
	PrimaryPaymentSource    string `json:"primary_payment_source,omitempty"`
	PrimaryMarketingSource  string `json:"primary_marketing_source,omitempty"`
	PrimarySupportSource    string `json:"primary_support_source,omitempty"`
	PrimaryEngagementSource string `json:"primary_engagement_source,omitempty"`

	// RowVersion is the optimistic concurrency token on the customer row.
	// Saves assert it and bump it; a mismatch means a concurrent writer won.
	RowVersion int64 `json:"-"`

	// Facets holds every facet record of the aggregate, active and inactive,
	// loaded before any mutation.
	Facets []*facetmodel.FacetRecord `json:"facets,omitempty"`

	// PendingPredictions collects churn predictions recorded since the
	// aggregate was loaded; they are appended to history on save.
	PendingPredictions []ChurnPrediction `json:"-"`
}

// ChurnPrediction is one appended entry of the customer's prediction history.
type ChurnPrediction struct {
	PredictionID string    `json:"prediction_id"`
	CustomerID   string    `json:"customer_id"`
	Score        float64   `json:"score"`
	Level        RiskLevel `json:"level"`
	ComputedAt   time.Time `json:"computed_at"`
}

// PrimarySource returns the primary source pointer for the given facet type.
func (c *Customer) PrimarySource(ft facetmodel.FacetType) string {
	switch ft {
	case facetmodel.FacetTypeCrm:
		return c.PrimaryCrmSource
	case facetmodel.FacetTypePayment:
		return c.PrimaryPaymentSource
	case facetmodel.FacetTypeMarketing:
		return c.PrimaryMarketingSource
	case facetmodel.FacetTypeSupport:
		return c.PrimarySupportSource
	case facetmodel.FacetTypeEngagement:
		return c.PrimaryEngagementSource
	}
	return ""
}

// SetPrimarySource updates the primary source pointer for the given facet type.
func (c *Customer) SetPrimarySource(ft facetmodel.FacetType, source string) {
	switch ft {
	case facetmodel.FacetTypeCrm:
		c.PrimaryCrmSource = source
	case facetmodel.FacetTypePayment:
		c.PrimaryPaymentSource = source
	case facetmodel.FacetTypeMarketing:
		c.PrimaryMarketingSource = source
	case facetmodel.FacetTypeSupport:
		c.PrimarySupportSource = source
	case facetmodel.FacetTypeEngagement:
		c.PrimaryEngagementSource = source
	}
}

// FacetsOfType returns the facet records of the given type, optionally
// restricted to active ones.
func (c *Customer) FacetsOfType(ft facetmodel.FacetType, activeOnly bool) []*facetmodel.FacetRecord {
	var records []*facetmodel.FacetRecord
	for _, rec := range c.Facets {
		if rec.FacetType != ft {
			continue
		}
		if activeOnly && !rec.IsActive {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// CustomerView is the unified read-back projection: core identity fields, the
// aggregated risk, and the active facet records grouped per type.
type CustomerView struct {
	CustomerID string `json:"customer_id"`
	CompanyID  string `json:"company_id"`

	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	JobTitle    string `json:"job_title,omitempty"`
	Location    string `json:"location,omitempty"`
	Country     string `json:"country,omitempty"`

	ChurnRiskScore float64    `json:"churn_risk_score"`
	ChurnRiskLevel RiskLevel  `json:"churn_risk_level"`
	PredictedAt    *time.Time `json:"predicted_at,omitempty"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`

	PrimarySources map[facetmodel.FacetType]string                  `json:"primary_sources"`
	Facets         map[facetmodel.FacetType][]*facetmodel.FacetRecord `json:"facets"`
}

// CustomerSummary is the reduced per-customer projection used by list-style
// callers. RiskAvailable is false when risk assembly failed for the customer
// and the summary degraded to identity fields only.
type CustomerSummary struct {
	CustomerID     string    `json:"customer_id"`
	FirstName      string    `json:"first_name,omitempty"`
	LastName       string    `json:"last_name,omitempty"`
	Email          string    `json:"email"`
	ChurnRiskScore float64   `json:"churn_risk_score"`
	ChurnRiskLevel RiskLevel `json:"churn_risk_level"`
	RiskAvailable  bool      `json:"risk_available"`
}
