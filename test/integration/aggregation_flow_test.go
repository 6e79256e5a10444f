/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
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

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aggregationservice "github.com/churnsight/customer-aggregation-service/internal/aggregation/service"
	customermodel "github.com/churnsight/customer-aggregation-service/internal/customer/model"
	facetmodel "github.com/churnsight/customer-aggregation-service/internal/facet/model"
	"github.com/churnsight/customer-aggregation-service/internal/priority"
	"github.com/churnsight/customer-aggregation-service/internal/system/database/lock"
)

func newPostgresLockProvider() aggregationservice.LockProvider {
	return func() (aggregationservice.CustomerLock, error) {
		return lock.NewPostgresLock()
	}
}

func newAggregationService() *aggregationservice.AggregationService {
	return aggregationservice.NewAggregationService(newStore(), priority.DefaultTable(), nil)
}

// Test_Aggregation_EndToEnd runs the full merge pipeline against postgres:
// ingest from several sources, verify facet election, core-field resolution,
// risk aggregation and read-back.
func Test_Aggregation_EndToEnd(t *testing.T) {
	ctx := context.Background()
	svc := newAggregationService()

	created, err := svc.CreateCustomer(ctx, &customermodel.Customer{
		CompanyID: "acme",
		Email:     "e2e@example.com",
	})
	require.NoError(t, err)

	// Cancelled subscription from the billing system.
	_, err = svc.AddOrUpdateCustomerData(ctx, created.CustomerID, customermodel.SourceData{
		"first_name":          "Ada",
		"payment_status":      "Cancelled",
		"subscription_status": "Cancelled",
		"mrr":                 900.0,
	}, "stripe", "batch-1", "pipeline")
	require.NoError(t, err)

	// Healthy marketing engagement from the email tool.
	customer, err := svc.AddOrUpdateCustomerData(ctx, created.CustomerID, customermodel.SourceData{
		"first_name":      "Adeline",
		"is_subscribed":   true,
		"email_open_rate": 0.45,
		"click_rate":      0.2,
	}, "mailchimp", "batch-1", "pipeline")
	require.NoError(t, err)

	// Mailchimp (priority 60) outranks the threshold, so it may rewrite the
	// populated first name.
	assert.Equal(t, "Adeline", customer.FirstName)
	assert.Greater(t, customer.ChurnRiskScore, 70.0)
	assert.Equal(t, customermodel.RiskLevelCritical, customer.ChurnRiskLevel)

	view, err := svc.GetUnifiedCustomer(ctx, created.CustomerID, "acme")
	require.NoError(t, err)
	assert.Equal(t, "stripe", view.PrimarySources[facetmodel.FacetTypePayment])
	assert.Equal(t, "mailchimp", view.PrimarySources[facetmodel.FacetTypeMarketing])
	require.Len(t, view.Facets[facetmodel.FacetTypePayment], 1)

	// Deactivating the only payment source clears its signal and election.
	ok, err := svc.DeactivateSource(ctx, created.CustomerID, "payment", "stripe")
	require.NoError(t, err)
	require.True(t, ok)

	view, err = svc.GetUnifiedCustomer(ctx, created.CustomerID, "acme")
	require.NoError(t, err)
	assert.NotContains(t, view.PrimarySources, facetmodel.FacetTypePayment)
	assert.Empty(t, view.Facets[facetmodel.FacetTypePayment])
	assert.Less(t, view.ChurnRiskScore, 50.0)

	predictions, err := svc.GetPredictionHistory(ctx, created.CustomerID, 10)
	require.NoError(t, err)
	assert.Len(t, predictions, 3, "every merge and deactivation records a prediction")
}

// Test_Aggregation_WithAdvisoryLock exercises the postgres advisory lock path
// used to serialize concurrent merges of one customer.
func Test_Aggregation_WithAdvisoryLock(t *testing.T) {
	ctx := context.Background()
	svc := aggregationservice.NewAggregationService(newStore(), priority.DefaultTable(), newPostgresLockProvider())

	created, err := svc.CreateCustomer(ctx, &customermodel.Customer{
		CompanyID: "acme",
		Email:     "locked@example.com",
	})
	require.NoError(t, err)

	customer, err := svc.AddOrUpdateCustomerData(ctx, created.CustomerID, customermodel.SourceData{
		"open_tickets": 5,
		"csat_score":   2.0,
	}, "zendesk", "", "")
	require.NoError(t, err)
	require.Len(t, customer.Facets, 1)
	assert.Equal(t, facetmodel.FacetTypeSupport, customer.Facets[0].FacetType)
}
