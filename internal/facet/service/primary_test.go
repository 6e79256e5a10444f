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

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customermodel "github.com/churnsight/customer-aggregation-service/internal/customer/model"
	"github.com/churnsight/customer-aggregation-service/internal/facet/model"
)

func paymentRecord(source string, prio int, primary bool, syncedAt time.Time) *model.FacetRecord {
	return &model.FacetRecord{
		FacetID:         source + "-facet",
		CustomerID:      "cust-1",
		FacetType:       model.FacetTypePayment,
		Source:          source,
		SourcePriority:  prio,
		IsPrimarySource: primary,
		IsActive:        true,
		LastSyncedAt:    syncedAt,
		Payment:         &model.PaymentMeasures{},
	}
}

func activePrimaries(c *customermodel.Customer, ft model.FacetType) []*model.FacetRecord {
	var primaries []*model.FacetRecord
	for _, rec := range c.FacetsOfType(ft, true) {
		if rec.IsPrimarySource {
			primaries = append(primaries, rec)
		}
	}
	return primaries
}

// ---------------------------------------------------------------------------
// SetPrimary
// ---------------------------------------------------------------------------

func TestSetPrimary_PromotesNamedSource(t *testing.T) {
	stripe := paymentRecord("stripe", 90, true, testTime)
	paypal := paymentRecord("paypal", 85, false, testTime)
	c := newTestCustomer()
	c.Facets = []*model.FacetRecord{stripe, paypal}
	c.PrimaryPaymentSource = "stripe"

	SetPrimary(c, model.FacetTypePayment, "paypal")

	assert.False(t, stripe.IsPrimarySource)
	assert.True(t, paypal.IsPrimarySource)
	assert.Equal(t, "paypal", c.PrimaryPaymentSource)
	assert.Len(t, activePrimaries(c, model.FacetTypePayment), 1)
}

func TestSetPrimary_UnknownSourceLeavesPointerAlone(t *testing.T) {
	stripe := paymentRecord("stripe", 90, true, testTime)
	c := newTestCustomer()
	c.Facets = []*model.FacetRecord{stripe}
	c.PrimaryPaymentSource = "stripe"

	SetPrimary(c, model.FacetTypePayment, "braintree")

	// The named source has no record, so no promotion happens; the customer
	// pointer keeps its old value.
	assert.Equal(t, "stripe", c.PrimaryPaymentSource)
}

// ---------------------------------------------------------------------------
// DeactivateSource
// ---------------------------------------------------------------------------

func TestDeactivateSource_SoftDeletesAndReelects(t *testing.T) {
	stripe := paymentRecord("stripe", 90, true, testTime)
	paypal := paymentRecord("paypal", 85, false, testTime)
	c := newTestCustomer()
	c.Facets = []*model.FacetRecord{stripe, paypal}
	c.PrimaryPaymentSource = "stripe"

	ok := DeactivateSource(c, model.FacetTypePayment, "stripe")

	require.True(t, ok)
	assert.False(t, stripe.IsActive)
	assert.False(t, stripe.IsPrimarySource)
	assert.True(t, paypal.IsPrimarySource)
	assert.Equal(t, "paypal", c.PrimaryPaymentSource)
}

func TestDeactivateSource_NonPrimaryKeepsElection(t *testing.T) {
	stripe := paymentRecord("stripe", 90, true, testTime)
	paypal := paymentRecord("paypal", 85, false, testTime)
	c := newTestCustomer()
	c.Facets = []*model.FacetRecord{stripe, paypal}
	c.PrimaryPaymentSource = "stripe"

	ok := DeactivateSource(c, model.FacetTypePayment, "paypal")

	require.True(t, ok)
	assert.False(t, paypal.IsActive)
	assert.True(t, stripe.IsPrimarySource)
	assert.Equal(t, "stripe", c.PrimaryPaymentSource)
}

func TestDeactivateSource_LastRecordClearsPointer(t *testing.T) {
	stripe := paymentRecord("stripe", 90, true, testTime)
	c := newTestCustomer()
	c.Facets = []*model.FacetRecord{stripe}
	c.PrimaryPaymentSource = "stripe"

	ok := DeactivateSource(c, model.FacetTypePayment, "stripe")

	require.True(t, ok)
	assert.Empty(t, c.PrimaryPaymentSource)
	assert.Empty(t, activePrimaries(c, model.FacetTypePayment))
}

func TestDeactivateSource_MissingRecordReturnsFalse(t *testing.T) {
	c := newTestCustomer()

	assert.False(t, DeactivateSource(c, model.FacetTypePayment, "stripe"))
}

func TestDeactivateSource_AlreadyInactiveReturnsFalse(t *testing.T) {
	stripe := paymentRecord("stripe", 90, false, testTime)
	stripe.IsActive = false
	c := newTestCustomer()
	c.Facets = []*model.FacetRecord{stripe}

	assert.False(t, DeactivateSource(c, model.FacetTypePayment, "stripe"))
}

// ---------------------------------------------------------------------------
// ReelectPrimary
// ---------------------------------------------------------------------------

func TestReelectPrimary_HighestPriorityWins(t *testing.T) {
	paypal := paymentRecord("paypal", 85, false, testTime)
	stripe := paymentRecord("stripe", 90, false, testTime)
	c := newTestCustomer()
	c.Facets = []*model.FacetRecord{paypal, stripe}

	ReelectPrimary(c, model.FacetTypePayment)

	assert.True(t, stripe.IsPrimarySource)
	assert.False(t, paypal.IsPrimarySource)
	assert.Equal(t, "stripe", c.PrimaryPaymentSource)
}

func TestReelectPrimary_TieBrokenByRecency(t *testing.T) {
	older := paymentRecord("paypal", 85, false, testTime)
	newer := paymentRecord("chargebee", 85, false, testTime.Add(time.Hour))
	c := newTestCustomer()
	c.Facets = []*model.FacetRecord{older, newer}

	ReelectPrimary(c, model.FacetTypePayment)

	assert.True(t, newer.IsPrimarySource)
	assert.False(t, older.IsPrimarySource)
	assert.Equal(t, "chargebee", c.PrimaryPaymentSource)
}

// ---------------------------------------------------------------------------
// SortForReadBack
// ---------------------------------------------------------------------------

func TestSortForReadBack_PrimaryFirstThenRecency(t *testing.T) {
	oldest := paymentRecord("paypal", 85, false, testTime)
	newest := paymentRecord("chargebee", 85, false, testTime.Add(2*time.Hour))
	primary := paymentRecord("stripe", 90, true, testTime.Add(time.Hour))
	records := []*model.FacetRecord{oldest, newest, primary}

	SortForReadBack(records)

	assert.Equal(t, []*model.FacetRecord{primary, newest, oldest}, records)
}
