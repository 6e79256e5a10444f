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

// Package service implements the churn risk aggregator: it folds the active
// facet records of a customer into one normalized risk score. The recompute
// is always a full pass over current facet state, never an incremental patch,
// so the cached score stays derivable from the facets alone.
package service

import (
	"strings"
	"time"

	customermodel "github.com/churnsight/customer-aggregation-service/internal/customer/model"
	facetmodel "github.com/churnsight/customer-aggregation-service/internal/facet/model"
)

// categoryWeights are the fixed per-category weights of the aggregated score.
// CRM facets describe identity, not churn signal, and carry no weight.
var categoryWeights = map[facetmodel.FacetType]float64{
	facetmodel.FacetTypePayment:    0.40,
	facetmodel.FacetTypeEngagement: 0.30,
	facetmodel.FacetTypeSupport:    0.20,
	facetmodel.FacetTypeMarketing:  0.10,
}

const recentFailureWindow = 30 * 24 * time.Hour
const staleCampaignWindow = 60 * 24 * time.Hour

// Recompute derives the aggregated churn risk score (0-100) and level from
// the customer's active facet records. Each record contributes its per-record
// risk weighted by (sourcePriority/100) * categoryWeight.
func Recompute(c *customermodel.Customer, now time.Time) (float64, customermodel.RiskLevel) {
	var weightedSum, weightTotal float64

	for _, rec := range c.Facets {
		if !rec.IsActive {
			continue
		}
		categoryWeight, weighted := categoryWeights[rec.FacetType]
		if !weighted {
			continue
		}

		recordRisk := RecordRisk(rec, now)
		weight := float64(rec.SourcePriority) / 100.0 * categoryWeight
		weightedSum += recordRisk * weight
		weightTotal += weight
	}

	score := 0.0
	if weightTotal > 0 {
		score = 100.0 * weightedSum / weightTotal
	}
	score = clamp(score, 0, 100)

	return score, LevelForScore(score)
}

// LevelForScore maps a score to its four-level risk band.
func LevelForScore(score float64) customermodel.RiskLevel {
	switch {
	case score >= 75:
		return customermodel.RiskLevelCritical
	case score >= 50:
		return customermodel.RiskLevelHigh
	case score >= 25:
		return customermodel.RiskLevelMedium
	default:
		return customermodel.RiskLevelLow
	}
}

// RecordRisk computes the per-record risk in [0,1] for one active facet
// record using its category's rules.
func RecordRisk(rec *facetmodel.FacetRecord, now time.Time) float64 {
	switch rec.FacetType {
	case facetmodel.FacetTypePayment:
		return paymentRisk(rec.Payment, now)
	case facetmodel.FacetTypeEngagement:
		return engagementRisk(rec.Engagement, now)
	case facetmodel.FacetTypeSupport:
		return supportRisk(rec.Support)
	case facetmodel.FacetTypeMarketing:
		return marketingRisk(rec.Marketing, now)
	default:
		return 0
	}
}

func paymentRisk(m *facetmodel.PaymentMeasures, now time.Time) float64 {
	risk := 0.0

	switch {
	case strings.EqualFold(m.PaymentStatus, facetmodel.PaymentStatusCancelled):
		risk += 1.0
	case strings.EqualFold(m.PaymentStatus, facetmodel.PaymentStatusFailed):
		risk += 0.8
	case strings.EqualFold(m.PaymentStatus, facetmodel.PaymentStatusPastDue):
		risk += 0.6
	default:
		risk += 0.1
	}

	switch {
	case strings.EqualFold(m.SubscriptionStatus, facetmodel.SubscriptionStatusCancelled):
		risk += 1.0
	case strings.EqualFold(m.SubscriptionStatus, facetmodel.SubscriptionStatusExpired):
		risk += 0.9
	case strings.EqualFold(m.SubscriptionStatus, facetmodel.SubscriptionStatusPastDue):
		risk += 0.7
	case strings.EqualFold(m.SubscriptionStatus, facetmodel.SubscriptionStatusTrial):
		risk += 0.3
	default:
		risk += 0.1
	}

	if m.PaymentFailureCount > 0 {
		failurePenalty := float64(m.PaymentFailureCount) * 0.1
		if failurePenalty > 0.3 {
			failurePenalty = 0.3
		}
		risk += failurePenalty
	}

	if m.LastPaymentFailureAt != nil && now.Sub(*m.LastPaymentFailureAt) <= recentFailureWindow {
		risk += 0.2
	}

	return clamp(risk, 0, 1)
}

func engagementRisk(m *facetmodel.EngagementMeasures, now time.Time) float64 {
	risk := 0.0

	if m.LastLoginAt == nil {
		risk += 0.9
	} else {
		daysSinceLogin := now.Sub(*m.LastLoginAt).Hours() / 24
		switch {
		case daysSinceLogin > 30:
			risk += 0.8
		case daysSinceLogin > 14:
			risk += 0.5
		case daysSinceLogin > 7:
			risk += 0.3
		default:
			risk += 0.1
		}
	}

	switch m.WeeklyLoginCount {
	case 0:
		risk += 0.8
	case 1:
		risk += 0.4
	case 2:
		risk += 0.2
	}

	switch {
	case m.FeatureUsagePercent < 10:
		risk += 0.7
	case m.FeatureUsagePercent < 25:
		risk += 0.4
	case m.FeatureUsagePercent < 50:
		risk += 0.2
	}

	return clamp(risk/3, 0, 1)
}

func supportRisk(m *facetmodel.SupportMeasures) float64 {
	risk := 0.0

	if m.OpenTicketCount > 3 {
		risk += 0.5
	} else if m.OpenTicketCount > 1 {
		risk += 0.2
	}

	if m.CsatScore < 3.0 {
		risk += 0.6
	} else if m.CsatScore < 4.0 {
		risk += 0.3
	}

	if m.UrgentTicketCount > 0 {
		risk += 0.4
	}

	return clamp(risk, 0, 1)
}

func marketingRisk(m *facetmodel.MarketingMeasures, now time.Time) float64 {
	risk := 0.0

	if !m.IsSubscribed {
		risk += 0.4
	}
	if m.EmailOpenRate < 0.10 {
		risk += 0.3
	}
	if m.EmailClickRate < 0.02 {
		risk += 0.2
	}
	if m.LastCampaignEngagementAt != nil && now.Sub(*m.LastCampaignEngagementAt) > staleCampaignWindow {
		risk += 0.3
	}

	return clamp(risk, 0, 1)
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
