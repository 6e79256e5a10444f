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
	"github.com/churnsight/customer-aggregation-service/internal/facet/model"
	"github.com/churnsight/customer-aggregation-service/internal/system/utils"
)

// facetDescriptor parameterizes the single generic upsert routine per facet
// type. One descriptor per category keeps the shared invariants (primary
// election, priority snapshot) from drifting between the five facet kinds.
type facetDescriptor struct {
	facetType model.FacetType

	// nameKeywords are matched against the lower-cased source name in the
	// classifier's first phase.
	nameKeywords []string

	// payloadKeys are the category-diagnostic payload keys of the
	// classifier's fallback phase.
	payloadKeys []string

	// applyFields maps recognized payload keys onto the record's measure set.
	// Unparseable or absent keys leave the existing value untouched.
	applyFields func(rec *model.FacetRecord, data customermodel.SourceData)
}

var facetDescriptors = map[model.FacetType]*facetDescriptor{
	model.FacetTypeCrm: {
		facetType:    model.FacetTypeCrm,
		nameKeywords: []string{"salesforce", "hubspot", "pipedrive", "zoho", "dynamics", "crm"},
		payloadKeys:  []string{"lead_source", "lifecycle_stage", "deal_count", "deal_value"},
		applyFields: func(rec *model.FacetRecord, data customermodel.SourceData) {
			m := rec.EnsureMeasures().Crm
			applyString(data, &m.LeadSource, "lead_source", "leadsource")
			applyString(data, &m.LifecycleStage, "lifecycle_stage", "lifecyclestage", "stage")
			applyInt(data, &m.DealCount, "deal_count", "deals")
			applyFloat(data, &m.DealValue, "deal_value", "total_deal_value")
		},
	},
	model.FacetTypePayment: {
		facetType:    model.FacetTypePayment,
		nameKeywords: []string{"stripe", "paypal", "chargebee", "recurly", "payment", "billing"},
		payloadKeys:  []string{"subscription_status", "mrr", "monthly_revenue", "payment_status"},
		applyFields: func(rec *model.FacetRecord, data customermodel.SourceData) {
			m := rec.EnsureMeasures().Payment
			applyString(data, &m.PaymentStatus, "payment_status", "status")
			applyString(data, &m.SubscriptionStatus, "subscription_status", "subscriptionstatus")
			applyFloat(data, &m.MRR, "mrr", "monthly_revenue")
			applyFloat(data, &m.LTV, "ltv", "lifetime_value")
			applyInt(data, &m.PaymentFailureCount, "payment_failure_count", "payment_failures", "failed_payments")
			applyTime(data, &m.LastPaymentFailureAt, "last_payment_failure", "last_failure_at")
		},
	},
	model.FacetTypeMarketing: {
		facetType:    model.FacetTypeMarketing,
		nameKeywords: []string{"mailchimp", "marketo", "klaviyo", "sendgrid", "marketing", "campaign"},
		payloadKeys:  []string{"email_open_rate", "open_rate", "campaign_count", "is_subscribed", "click_rate"},
		applyFields: func(rec *model.FacetRecord, data customermodel.SourceData) {
			m := rec.EnsureMeasures().Marketing
			applyBool(data, &m.IsSubscribed, "is_subscribed", "subscribed")
			applyFloat(data, &m.EmailOpenRate, "email_open_rate", "open_rate")
			applyFloat(data, &m.EmailClickRate, "email_click_rate", "click_rate")
			applyInt(data, &m.CampaignCount, "campaign_count", "campaigns")
			applyTime(data, &m.LastCampaignEngagementAt, "last_campaign_engagement", "last_engagement_at")
		},
	},
	model.FacetTypeSupport: {
		facetType:    model.FacetTypeSupport,
		nameKeywords: []string{"zendesk", "freshdesk", "intercom", "helpscout", "support", "helpdesk"},
		payloadKeys:  []string{"support_tickets", "open_tickets", "csat_score", "urgent_tickets"},
		applyFields: func(rec *model.FacetRecord, data customermodel.SourceData) {
			m := rec.EnsureMeasures().Support
			applyInt(data, &m.OpenTicketCount, "open_tickets", "open_ticket_count", "support_tickets")
			applyInt(data, &m.TotalTicketCount, "total_tickets", "total_ticket_count")
			applyInt(data, &m.UrgentTicketCount, "urgent_tickets", "urgent_ticket_count")
			applyFloat(data, &m.CsatScore, "csat_score", "csat")
			applyTime(data, &m.LastTicketAt, "last_ticket_at", "last_ticket")
		},
	},
	model.FacetTypeEngagement: {
		facetType:    model.FacetTypeEngagement,
		nameKeywords: []string{"mixpanel", "amplitude", "segment", "pendo", "analytics", "engagement"},
		payloadKeys:  []string{"last_login", "feature_usage", "weekly_logins", "login_frequency"},
		applyFields: func(rec *model.FacetRecord, data customermodel.SourceData) {
			m := rec.EnsureMeasures().Engagement
			applyTime(data, &m.LastLoginAt, "last_login", "last_login_at")
			applyInt(data, &m.WeeklyLoginCount, "weekly_logins", "weekly_login_frequency", "login_frequency")
			applyFloat(data, &m.FeatureUsagePercent, "feature_usage", "feature_usage_percent")
		},
	},
}

// descriptorFor returns the descriptor for the given facet type, or nil for
// an unrecognized type.
func descriptorFor(ft model.FacetType) *facetDescriptor {
	return facetDescriptors[ft]
}

// applyString overwrites target with the first alias key that parses.
func applyString(data customermodel.SourceData, target *string, keys ...string) {
	for _, key := range keys {
		value, present := data[key]
		if !present {
			continue
		}
		if parsed, ok := utils.ParseString(value); ok {
			*target = parsed
			return
		}
	}
}

func applyInt(data customermodel.SourceData, target *int, keys ...string) {
	for _, key := range keys {
		value, present := data[key]
		if !present {
			continue
		}
		if parsed, ok := utils.ParseInt(value); ok {
			*target = parsed
			return
		}
	}
}

func applyFloat(data customermodel.SourceData, target *float64, keys ...string) {
	for _, key := range keys {
		value, present := data[key]
		if !present {
			continue
		}
		if parsed, ok := utils.ParseFloat(value); ok {
			*target = parsed
			return
		}
	}
}

func applyBool(data customermodel.SourceData, target *bool, keys ...string) {
	for _, key := range keys {
		value, present := data[key]
		if !present {
			continue
		}
		if parsed, ok := utils.ParseBool(value); ok {
			*target = parsed
			return
		}
	}
}

func applyTime(data customermodel.SourceData, target **time.Time, keys ...string) {
	for _, key := range keys {
		value, present := data[key]
		if !present {
			continue
		}
		if parsed, ok := utils.ParseTime(value); ok {
			t := parsed
			*target = &t
			return
		}
	}
}
