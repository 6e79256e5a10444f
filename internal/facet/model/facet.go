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
	"fmt"
	"strings"
	"time"
)

// FacetType identifies one category of customer data.
type FacetType string

const (
	FacetTypeCrm        FacetType = "crm"
	FacetTypePayment    FacetType = "payment"
	FacetTypeMarketing  FacetType = "marketing"
	FacetTypeSupport    FacetType = "support"
	FacetTypeEngagement FacetType = "engagement"
)

// AllFacetTypes returns the facet types in their canonical order.
func AllFacetTypes() []FacetType {
	return []FacetType{
		FacetTypeCrm,
		FacetTypePayment,
		FacetTypeMarketing,
		FacetTypeSupport,
		FacetTypeEngagement,
	}
}

// ParseFacetType parses a facet type string, case-insensitively.
func ParseFacetType(s string) (FacetType, error) {
	switch FacetType(strings.ToLower(strings.TrimSpace(s))) {
	case FacetTypeCrm:
		return FacetTypeCrm, nil
	case FacetTypePayment:
		return FacetTypePayment, nil
	case FacetTypeMarketing:
		return FacetTypeMarketing, nil
	case FacetTypeSupport:
		return FacetTypeSupport, nil
	case FacetTypeEngagement:
		return FacetTypeEngagement, nil
	default:
		return "", fmt.Errorf("unknown facet type: %q", s)
	}
}

// Subscription and payment status values recognized by the risk rules.
// Incoming statuses are compared case-insensitively.
const (
	PaymentStatusActive    = "Active"
	PaymentStatusFailed    = "Failed"
	PaymentStatusPastDue   = "PastDue"
	PaymentStatusCancelled = "Cancelled"

	SubscriptionStatusActive    = "Active"
	SubscriptionStatusTrial     = "Trial"
	SubscriptionStatusPastDue   = "PastDue"
	SubscriptionStatusExpired   = "Expired"
	SubscriptionStatusCancelled = "Cancelled"
)

// FacetRecord is one source's view of one customer for one category.
// Exactly one of the measure pointers matching FacetType is non-nil.
type FacetRecord struct {
	FacetID    string    `json:"facet_id"`
	CustomerID string    `json:"customer_id"`
	FacetType  FacetType `json:"facet_type"`
	Source     string    `json:"source"`
	ExternalID string    `json:"external_id,omitempty"`

	// IsPrimarySource marks the record elected authoritative for read-back
	// among active records of this facet type. At most one active record per
	// customer and facet type carries it.
	IsPrimarySource bool `json:"is_primary_source"`

	// SourcePriority snapshots the trust table's weight at insert time and is
	// immutable afterwards; retuning the table does not re-rank existing rows.
	SourcePriority int `json:"source_priority"`

	IsActive      bool      `json:"is_active"`
	LastSyncedAt  time.Time `json:"last_synced_at"`
	ImportBatchID string    `json:"import_batch_id,omitempty"`
	ImportedBy    string    `json:"imported_by,omitempty"`

	Crm        *CrmMeasures        `json:"crm,omitempty"`
	Payment    *PaymentMeasures    `json:"payment,omitempty"`
	Marketing  *MarketingMeasures  `json:"marketing,omitempty"`
	Support    *SupportMeasures    `json:"support,omitempty"`
	Engagement *EngagementMeasures `json:"engagement,omitempty"`
}

type CrmMeasures struct {
	LeadSource     string  `json:"lead_source,omitempty"`
	LifecycleStage string  `json:"lifecycle_stage,omitempty"`
	DealCount      int     `json:"deal_count"`
	DealValue      float64 `json:"deal_value"`
}

type PaymentMeasures struct {
	PaymentStatus        string     `json:"payment_status,omitempty"`
	SubscriptionStatus   string     `json:"subscription_status,omitempty"`
	MRR                  float64    `json:"mrr"`
	LTV                  float64    `json:"ltv"`
	PaymentFailureCount  int        `json:"payment_failure_count"`
	LastPaymentFailureAt *time.Time `json:"last_payment_failure_at,omitempty"`
}

type MarketingMeasures struct {
	IsSubscribed             bool       `json:"is_subscribed"`
	EmailOpenRate            float64    `json:"email_open_rate"`
	EmailClickRate           float64    `json:"email_click_rate"`
	CampaignCount            int        `json:"campaign_count"`
	LastCampaignEngagementAt *time.Time `json:"last_campaign_engagement_at,omitempty"`
}

type SupportMeasures struct {
	OpenTicketCount   int        `json:"open_ticket_count"`
	TotalTicketCount  int        `json:"total_ticket_count"`
	UrgentTicketCount int        `json:"urgent_ticket_count"`
	CsatScore         float64    `json:"csat_score"`
	LastTicketAt      *time.Time `json:"last_ticket_at,omitempty"`
}

type EngagementMeasures struct {
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
	WeeklyLoginCount    int        `json:"weekly_login_count"`
	FeatureUsagePercent float64    `json:"feature_usage_percent"`
}

// EnsureMeasures allocates the measure set matching the record's facet type
// if it is still nil, and returns the record.
func (r *FacetRecord) EnsureMeasures() *FacetRecord {
	switch r.FacetType {
	case FacetTypeCrm:
		if r.Crm == nil {
			r.Crm = &CrmMeasures{}
		}
	case FacetTypePayment:
		if r.Payment == nil {
			r.Payment = &PaymentMeasures{}
		}
	case FacetTypeMarketing:
		if r.Marketing == nil {
			r.Marketing = &MarketingMeasures{}
		}
	case FacetTypeSupport:
		if r.Support == nil {
			r.Support = &SupportMeasures{}
		}
	case FacetTypeEngagement:
		if r.Engagement == nil {
			r.Engagement = &EngagementMeasures{}
		}
	}
	return r
}
