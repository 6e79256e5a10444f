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
	"github.com/churnsight/customer-aggregation-service/internal/priority"
)

var testTime = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

func newTestCustomer() *customermodel.Customer {
	return &customermodel.Customer{
		CustomerID: "cust-1",
		CompanyID:  "comp-1",
		Email:      "ada@example.com",
	}
}

func TestUpsertFacet_CreatesRecordWithPrioritySnapshot(t *testing.T) {
	c := newTestCustomer()
	table := priority.DefaultTable()

	rec := UpsertFacet(c, table, UpsertRequest{
		FacetType: model.FacetTypePayment,
		Source:    "stripe",
		Data:      customermodel.SourceData{"payment_status": "Active", "mrr": 250.0},
		Now:       testTime,
	})

	require.NotNil(t, rec)
	assert.Equal(t, "cust-1", rec.CustomerID)
	assert.Equal(t, model.FacetTypePayment, rec.FacetType)
	assert.Equal(t, 90, rec.SourcePriority)
	assert.True(t, rec.IsActive)
	assert.NotEmpty(t, rec.FacetID)
	require.NotNil(t, rec.Payment)
	assert.Equal(t, "Active", rec.Payment.PaymentStatus)
	assert.Equal(t, 250.0, rec.Payment.MRR)
}

func TestUpsertFacet_FirstRecordBecomesPrimary(t *testing.T) {
	c := newTestCustomer()

	rec := UpsertFacet(c, priority.DefaultTable(), UpsertRequest{
		FacetType: model.FacetTypeCrm,
		Source:    "salesforce",
		Data:      customermodel.SourceData{"lead_source": "webinar"},
		Now:       testTime,
	})

	require.NotNil(t, rec)
	assert.True(t, rec.IsPrimarySource)
	assert.Equal(t, "salesforce", c.PrimaryCrmSource)
}

func TestUpsertFacet_ReSyncUpdatesInPlace(t *testing.T) {
	c := newTestCustomer()
	table := priority.DefaultTable()

	first := UpsertFacet(c, table, UpsertRequest{
		FacetType: model.FacetTypePayment,
		Source:    "stripe",
		Data:      customermodel.SourceData{"payment_status": "Active", "mrr": 100.0},
		Now:       testTime,
	})
	second := UpsertFacet(c, table, UpsertRequest{
		FacetType: model.FacetTypePayment,
		Source:    "stripe",
		Data:      customermodel.SourceData{"payment_status": "PastDue"},
		Now:       testTime.Add(time.Hour),
	})

	require.Len(t, c.Facets, 1)
	assert.Same(t, first, second)
	assert.Equal(t, "PastDue", second.Payment.PaymentStatus)
	// Fields absent from the later payload keep their prior value.
	assert.Equal(t, 100.0, second.Payment.MRR)
	assert.Equal(t, testTime.Add(time.Hour), second.LastSyncedAt)
}

func TestUpsertFacet_ReSyncKeepsPrioritySnapshotAndFlags(t *testing.T) {
	c := newTestCustomer()

	first := UpsertFacet(c, priority.DefaultTable(), UpsertRequest{
		FacetType: model.FacetTypePayment,
		Source:    "stripe",
		Data:      customermodel.SourceData{"mrr": 100.0},
		Now:       testTime,
	})
	first.SourcePriority = 42 // simulate a snapshot taken under an older table

	// A retuned table does not re-rank the existing record.
	retuned := priority.NewTable(map[string]int{"stripe": 10})
	second := UpsertFacet(c, retuned, UpsertRequest{
		FacetType: model.FacetTypePayment,
		Source:    "stripe",
		Data:      customermodel.SourceData{"mrr": 200.0},
		Now:       testTime.Add(time.Hour),
	})

	assert.Equal(t, 42, second.SourcePriority)
	assert.True(t, second.IsPrimarySource)
	assert.True(t, second.IsActive)
}

func TestUpsertFacet_HigherPriorityInsertTakesPrimary(t *testing.T) {
	c := newTestCustomer()
	table := priority.DefaultTable()

	paypal := UpsertFacet(c, table, UpsertRequest{
		FacetType: model.FacetTypePayment,
		Source:    "paypal",
		Data:      customermodel.SourceData{"payment_status": "Active"},
		Now:       testTime,
	})
	stripe := UpsertFacet(c, table, UpsertRequest{
		FacetType: model.FacetTypePayment,
		Source:    "stripe",
		Data:      customermodel.SourceData{"payment_status": "Active"},
		Now:       testTime.Add(time.Minute),
	})

	assert.False(t, paypal.IsPrimarySource)
	assert.True(t, stripe.IsPrimarySource)
	assert.Equal(t, "stripe", c.PrimaryPaymentSource)
}

func TestUpsertFacet_EqualPriorityInsertDoesNotStealPrimary(t *testing.T) {
	c := newTestCustomer()
	table := priority.DefaultTable()

	paypal := UpsertFacet(c, table, UpsertRequest{
		FacetType: model.FacetTypePayment,
		Source:    "paypal",
		Data:      customermodel.SourceData{"payment_status": "Active"},
		Now:       testTime,
	})
	chargebee := UpsertFacet(c, table, UpsertRequest{
		FacetType: model.FacetTypePayment,
		Source:    "chargebee",
		Data:      customermodel.SourceData{"payment_status": "Active"},
		Now:       testTime.Add(time.Minute),
	})

	assert.True(t, paypal.IsPrimarySource)
	assert.False(t, chargebee.IsPrimarySource)
	assert.Equal(t, "paypal", c.PrimaryPaymentSource)
}

func TestUpsertFacet_ExternalIdDistinguishesRecordsOfOneSource(t *testing.T) {
	c := newTestCustomer()
	table := priority.DefaultTable()

	first := UpsertFacet(c, table, UpsertRequest{
		FacetType: model.FacetTypeSupport,
		Source:    "zendesk",
		Data:      customermodel.SourceData{"id": "acct-1", "open_tickets": 1},
		Now:       testTime,
	})
	second := UpsertFacet(c, table, UpsertRequest{
		FacetType: model.FacetTypeSupport,
		Source:    "zendesk",
		Data:      customermodel.SourceData{"external_id": "acct-2", "open_tickets": 4},
		Now:       testTime,
	})

	require.Len(t, c.Facets, 2)
	assert.Equal(t, "acct-1", first.ExternalID)
	assert.Equal(t, "acct-2", second.ExternalID)
}

func TestUpsertFacet_IdPayloadKeyWinsOverExternalId(t *testing.T) {
	c := newTestCustomer()

	rec := UpsertFacet(c, priority.DefaultTable(), UpsertRequest{
		FacetType: model.FacetTypeCrm,
		Source:    "salesforce",
		Data:      customermodel.SourceData{"id": "sf-1", "external_id": "other"},
		Now:       testTime,
	})

	require.NotNil(t, rec)
	assert.Equal(t, "sf-1", rec.ExternalID)
}

func TestUpsertFacet_UnrecognizedFacetTypeIsSkipped(t *testing.T) {
	c := newTestCustomer()

	rec := UpsertFacet(c, priority.DefaultTable(), UpsertRequest{
		FacetType: model.FacetType("weather"),
		Source:    "stripe",
		Data:      customermodel.SourceData{"mrr": 1.0},
		Now:       testTime,
	})

	assert.Nil(t, rec)
	assert.Empty(t, c.Facets)
}

func TestUpsertFacet_UnparseableFieldLeavesValueUntouched(t *testing.T) {
	c := newTestCustomer()
	table := priority.DefaultTable()

	UpsertFacet(c, table, UpsertRequest{
		FacetType: model.FacetTypePayment,
		Source:    "stripe",
		Data:      customermodel.SourceData{"mrr": 300.0},
		Now:       testTime,
	})
	rec := UpsertFacet(c, table, UpsertRequest{
		FacetType: model.FacetTypePayment,
		Source:    "stripe",
		Data:      customermodel.SourceData{"mrr": "not-a-number"},
		Now:       testTime.Add(time.Hour),
	})

	assert.Equal(t, 300.0, rec.Payment.MRR)
}
