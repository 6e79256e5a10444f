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
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customermodel "github.com/churnsight/customer-aggregation-service/internal/customer/model"
	"github.com/churnsight/customer-aggregation-service/internal/customer/store"
	facetmodel "github.com/churnsight/customer-aggregation-service/internal/facet/model"
	"github.com/churnsight/customer-aggregation-service/internal/system/database/provider"
	"github.com/churnsight/customer-aggregation-service/internal/system/errors"
)

func newStore() *store.CustomerStore {
	return store.NewCustomerStore(provider.NewDBProvider())
}

func createTestCustomer(t *testing.T, ctx context.Context, cs *store.CustomerStore) *customermodel.Customer {
	t.Helper()
	customer := &customermodel.Customer{
		CustomerID: uuid.New().String(),
		CompanyID:  uuid.New().String(),
		Email:      uuid.New().String() + "@example.com",
	}
	require.NoError(t, cs.CreateCustomer(ctx, customer))
	return customer
}

func Test_CustomerStore_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	cs := newStore()

	created := createTestCustomer(t, ctx, cs)

	loaded, err := cs.FindCustomerByID(ctx, created.CustomerID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, created.CompanyID, loaded.CompanyID)
	assert.Equal(t, created.Email, loaded.Email)
	assert.Equal(t, int64(1), loaded.RowVersion)
	assert.Empty(t, loaded.Facets)
}

func Test_CustomerStore_FindUnknownReturnsNil(t *testing.T) {
	cs := newStore()

	loaded, err := cs.FindCustomerByID(context.Background(), uuid.New().String())

	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func Test_CustomerStore_DuplicateEmailRejected(t *testing.T) {
	ctx := context.Background()
	cs := newStore()

	created := createTestCustomer(t, ctx, cs)

	duplicate := &customermodel.Customer{
		CustomerID: uuid.New().String(),
		CompanyID:  created.CompanyID,
		Email:      created.Email,
	}
	err := cs.CreateCustomer(ctx, duplicate)

	var clientError *errors.ClientError
	require.ErrorAs(t, err, &clientError)
	assert.Equal(t, errors.CUSTOMER_ALREADY_EXISTS.Code, clientError.Code)
}

func Test_CustomerStore_SaveRoundTripWithFacets(t *testing.T) {
	ctx := context.Background()
	cs := newStore()
	now := time.Now().UTC().Truncate(time.Millisecond)

	created := createTestCustomer(t, ctx, cs)
	created.FirstName = "Ada"
	created.ChurnRiskScore = 82.5
	created.ChurnRiskLevel = customermodel.RiskLevelCritical
	created.PredictedAt = &now
	created.LastSyncedAt = &now
	created.PrimaryPaymentSource = "stripe"

	failureAt := now.Add(-48 * time.Hour)
	created.Facets = []*facetmodel.FacetRecord{{
		FacetID:         uuid.New().String(),
		CustomerID:      created.CustomerID,
		FacetType:       facetmodel.FacetTypePayment,
		Source:          "stripe",
		ExternalID:      "cus_123",
		IsPrimarySource: true,
		SourcePriority:  90,
		IsActive:        true,
		LastSyncedAt:    now,
		ImportBatchID:   "batch-1",
		Payment: &facetmodel.PaymentMeasures{
			PaymentStatus:        "Failed",
			SubscriptionStatus:   "PastDue",
			MRR:                  420.5,
			PaymentFailureCount:  2,
			LastPaymentFailureAt: &failureAt,
		},
	}}
	created.PendingPredictions = []customermodel.ChurnPrediction{{
		PredictionID: uuid.New().String(),
		CustomerID:   created.CustomerID,
		Score:        82.5,
		Level:        customermodel.RiskLevelCritical,
		ComputedAt:   now,
	}}

	require.NoError(t, cs.SaveCustomer(ctx, created))
	assert.Equal(t, int64(2), created.RowVersion)
	assert.Empty(t, created.PendingPredictions)

	loaded, err := cs.FindCustomerByID(ctx, created.CustomerID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Ada", loaded.FirstName)
	assert.Equal(t, 82.5, loaded.ChurnRiskScore)
	assert.Equal(t, customermodel.RiskLevelCritical, loaded.ChurnRiskLevel)
	assert.Equal(t, "stripe", loaded.PrimaryPaymentSource)
	assert.Equal(t, int64(2), loaded.RowVersion)

	require.Len(t, loaded.Facets, 1)
	rec := loaded.Facets[0]
	assert.Equal(t, facetmodel.FacetTypePayment, rec.FacetType)
	assert.Equal(t, "cus_123", rec.ExternalID)
	assert.True(t, rec.IsPrimarySource)
	assert.Equal(t, 90, rec.SourcePriority)
	require.NotNil(t, rec.Payment)
	assert.Equal(t, "Failed", rec.Payment.PaymentStatus)
	assert.Equal(t, 420.5, rec.Payment.MRR)
	assert.Equal(t, 2, rec.Payment.PaymentFailureCount)
	require.NotNil(t, rec.Payment.LastPaymentFailureAt)

	predictions, err := cs.GetPredictionHistory(ctx, created.CustomerID, 10)
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	assert.Equal(t, 82.5, predictions[0].Score)
}

func Test_CustomerStore_SaveFacetUpdateInPlace(t *testing.T) {
	ctx := context.Background()
	cs := newStore()
	now := time.Now().UTC().Truncate(time.Millisecond)

	created := createTestCustomer(t, ctx, cs)
	facetID := uuid.New().String()
	created.Facets = []*facetmodel.FacetRecord{{
		FacetID:        facetID,
		CustomerID:     created.CustomerID,
		FacetType:      facetmodel.FacetTypeSupport,
		Source:         "zendesk",
		SourcePriority: 55,
		IsActive:       true,
		LastSyncedAt:   now,
		Support:        &facetmodel.SupportMeasures{OpenTicketCount: 1},
	}}
	require.NoError(t, cs.SaveCustomer(ctx, created))

	created.Facets[0].Support.OpenTicketCount = 4
	created.Facets[0].LastSyncedAt = now.Add(time.Hour)
	require.NoError(t, cs.SaveCustomer(ctx, created))

	loaded, err := cs.FindCustomerByID(ctx, created.CustomerID)
	require.NoError(t, err)
	require.Len(t, loaded.Facets, 1)
	assert.Equal(t, facetID, loaded.Facets[0].FacetID)
	assert.Equal(t, 4, loaded.Facets[0].Support.OpenTicketCount)
}

func Test_CustomerStore_OptimisticConflict(t *testing.T) {
	ctx := context.Background()
	cs := newStore()

	created := createTestCustomer(t, ctx, cs)

	first, err := cs.FindCustomerByID(ctx, created.CustomerID)
	require.NoError(t, err)
	second, err := cs.FindCustomerByID(ctx, created.CustomerID)
	require.NoError(t, err)

	first.FirstName = "Ada"
	require.NoError(t, cs.SaveCustomer(ctx, first))

	second.FirstName = "Grace"
	err = cs.SaveCustomer(ctx, second)

	var serverError *errors.ServerError
	require.ErrorAs(t, err, &serverError)
	assert.Equal(t, errors.SAVE_CONFLICT.Code, serverError.Code)

	loaded, err := cs.FindCustomerByID(ctx, created.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", loaded.FirstName, "the losing write must not be applied")
}

func Test_CustomerStore_ListCustomersByCompany(t *testing.T) {
	ctx := context.Background()
	cs := newStore()

	first := createTestCustomer(t, ctx, cs)
	second := &customermodel.Customer{
		CustomerID: uuid.New().String(),
		CompanyID:  first.CompanyID,
		Email:      uuid.New().String() + "@example.com",
	}
	require.NoError(t, cs.CreateCustomer(ctx, second))
	// A customer of another company must not leak into the listing.
	createTestCustomer(t, ctx, cs)

	customers, err := cs.ListCustomersByCompany(ctx, first.CompanyID)

	require.NoError(t, err)
	assert.Len(t, customers, 2)
}

func Test_CustomerStore_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	cs := newStore()
	now := time.Now().UTC()

	created := createTestCustomer(t, ctx, cs)
	created.Facets = []*facetmodel.FacetRecord{{
		FacetID:        uuid.New().String(),
		CustomerID:     created.CustomerID,
		FacetType:      facetmodel.FacetTypeCrm,
		Source:         "salesforce",
		SourcePriority: 80,
		IsActive:       true,
		LastSyncedAt:   now,
		Crm:            &facetmodel.CrmMeasures{LeadSource: "webinar"},
	}}
	created.PendingPredictions = []customermodel.ChurnPrediction{{
		PredictionID: uuid.New().String(),
		CustomerID:   created.CustomerID,
		Score:        10,
		Level:        customermodel.RiskLevelLow,
		ComputedAt:   now,
	}}
	require.NoError(t, cs.SaveCustomer(ctx, created))

	require.NoError(t, cs.DeleteCustomer(ctx, created.CustomerID))

	loaded, err := cs.FindCustomerByID(ctx, created.CustomerID)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	predictions, err := cs.GetPredictionHistory(ctx, created.CustomerID, 10)
	require.NoError(t, err)
	assert.Empty(t, predictions)
}
