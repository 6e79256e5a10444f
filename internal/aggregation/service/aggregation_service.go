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

// Package service implements the aggregation orchestrator: the public entry
// point that sequences classification, facet upsert, core-field resolution and
// risk recompute over one loaded customer aggregate per call.
package service

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	customermodel "github.com/churnsight/customer-aggregation-service/internal/customer/model"
	facetmodel "github.com/churnsight/customer-aggregation-service/internal/facet/model"
	facetservice "github.com/churnsight/customer-aggregation-service/internal/facet/service"
	"github.com/churnsight/customer-aggregation-service/internal/priority"
	riskservice "github.com/churnsight/customer-aggregation-service/internal/risk/service"
	"github.com/churnsight/customer-aggregation-service/internal/system/constants"
	"github.com/churnsight/customer-aggregation-service/internal/system/errors"
	"github.com/churnsight/customer-aggregation-service/internal/system/log"
)

// CustomerRepository is the persistence gateway the orchestrator depends on.
// FindCustomerByID loads the aggregate root with its full facet collection;
// SaveCustomer writes customer, facets and pending predictions in one
// transaction, asserting the customer's row version.
type CustomerRepository interface {
	FindCustomerByID(ctx context.Context, customerID string) (*customermodel.Customer, error)
	CreateCustomer(ctx context.Context, customer *customermodel.Customer) error
	SaveCustomer(ctx context.Context, customer *customermodel.Customer) error
	ListCustomersByCompany(ctx context.Context, companyID string) ([]*customermodel.Customer, error)
	DeleteCustomer(ctx context.Context, customerID string) error
	GetPredictionHistory(ctx context.Context, customerID string, limit int) ([]customermodel.ChurnPrediction, error)
}

// CustomerLock serializes one customer's read-modify-write cycle.
type CustomerLock interface {
	Acquire(key string) (bool, error)
	Release(key string) error
}

// LockProvider opens a fresh lock helper. Nil disables locking; callers then
// rely on the optimistic row version alone.
type LockProvider func() (CustomerLock, error)

// AggregationServiceInterface is the public surface of the merge engine.
type AggregationServiceInterface interface {
	AddOrUpdateCustomerData(ctx context.Context, customerID string, data customermodel.SourceData,
		sourceName, importBatchID, importedBy string) (*customermodel.Customer, error)
	SetPrimarySource(ctx context.Context, customerID, facetType, sourceName string) error
	DeactivateSource(ctx context.Context, customerID, facetType, sourceName string) (bool, error)
	GetUnifiedCustomer(ctx context.Context, customerID, companyID string) (*customermodel.CustomerView, error)
	GetAllSourcesForFacet(ctx context.Context, customerID, facetType string) ([]*facetmodel.FacetRecord, error)
	GetCustomerSummaries(ctx context.Context, companyID string) ([]customermodel.CustomerSummary, error)
	CreateCustomer(ctx context.Context, customer *customermodel.Customer) (*customermodel.Customer, error)
	DeleteCustomer(ctx context.Context, customerID, companyID string) error
	GetPredictionHistory(ctx context.Context, customerID string, limit int) ([]customermodel.ChurnPrediction, error)
}

// AggregationService is the default implementation of AggregationServiceInterface.
type AggregationService struct {
	repo       CustomerRepository
	priorities *priority.Table
	locks      LockProvider
	now        func() time.Time
}

// NewAggregationService wires the orchestrator with its persistence gateway,
// the injected trust table and an optional per-customer lock provider.
func NewAggregationService(repo CustomerRepository, priorities *priority.Table, locks LockProvider) *AggregationService {
	return &AggregationService{
		repo:       repo,
		priorities: priorities,
		locks:      locks,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// AddOrUpdateCustomerData merges one source's fact bundle into the customer
// aggregate: classify, facet upsert, core-field resolution, risk recompute,
// persist. All steps run against the same loaded aggregate.
func (as *AggregationService) AddOrUpdateCustomerData(ctx context.Context, customerID string,
	data customermodel.SourceData, sourceName, importBatchID, importedBy string) (*customermodel.Customer, error) {

	if sourceName == "" {
		return nil, errors.NewClientError(errors.MISSING_SOURCE_NAME, http.StatusBadRequest)
	}

	release, err := as.lockCustomer(customerID)
	if err != nil {
		return nil, err
	}
	defer release()

	customer, err := as.loadCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	now := as.now()
	facetType := facetservice.Classify(sourceName, data)

	switch facetType {
	case facetmodel.FacetTypeCrm, facetmodel.FacetTypePayment, facetmodel.FacetTypeMarketing,
		facetmodel.FacetTypeSupport, facetmodel.FacetTypeEngagement:
		facetservice.UpsertFacet(customer, as.priorities, facetservice.UpsertRequest{
			FacetType:     facetType,
			Source:        sourceName,
			Data:          data,
			ImportBatchID: importBatchID,
			ImportedBy:    importedBy,
			Now:           now,
		})
	default:
		log.GetLogger().Warn("Skipping facet upsert for unrecognized data type",
			log.String("data_type", string(facetType)),
			log.String("customer_id", customerID))
	}

	facetservice.ResolveCoreFields(customer, data, as.priorities.Priority(sourceName), now)
	as.recomputeRisk(customer, now)

	if err := as.repo.SaveCustomer(ctx, customer); err != nil {
		return nil, err
	}

	log.GetLogger().Debug("Merged source data into customer aggregate",
		log.String("customer_id", customerID),
		log.String("source", sourceName),
		log.String("facet_type", string(facetType)),
		log.Float("churn_risk_score", customer.ChurnRiskScore))
	return customer, nil
}

// SetPrimarySource promotes the named source as authoritative for the facet
// type. A source without a matching active record is silently ignored.
func (as *AggregationService) SetPrimarySource(ctx context.Context, customerID, facetType, sourceName string) error {
	ft, err := facetmodel.ParseFacetType(facetType)
	if err != nil {
		return errors.NewClientError(errors.INVALID_FACET_TYPE, http.StatusBadRequest)
	}

	release, lockErr := as.lockCustomer(customerID)
	if lockErr != nil {
		return lockErr
	}
	defer release()

	customer, err := as.loadCustomer(ctx, customerID)
	if err != nil {
		return err
	}

	facetservice.SetPrimary(customer, ft, sourceName)
	as.recomputeRisk(customer, as.now())
	return as.repo.SaveCustomer(ctx, customer)
}

// DeactivateSource soft-deletes the named source's facet record, re-electing
// the primary when necessary. Returns false when the customer or the facet
// record does not exist.
func (as *AggregationService) DeactivateSource(ctx context.Context, customerID, facetType, sourceName string) (bool, error) {
	ft, err := facetmodel.ParseFacetType(facetType)
	if err != nil {
		return false, errors.NewClientError(errors.INVALID_FACET_TYPE, http.StatusBadRequest)
	}

	release, lockErr := as.lockCustomer(customerID)
	if lockErr != nil {
		return false, lockErr
	}
	defer release()

	customer, err := as.repo.FindCustomerByID(ctx, customerID)
	if err != nil {
		return false, err
	}
	if customer == nil {
		return false, nil
	}

	if ok := facetservice.DeactivateSource(customer, ft, sourceName); !ok {
		return false, nil
	}

	as.recomputeRisk(customer, as.now())
	if err := as.repo.SaveCustomer(ctx, customer); err != nil {
		return false, err
	}
	return true, nil
}

// GetUnifiedCustomer returns the unified read-back projection. A customer
// outside the given company scope surfaces as not found.
func (as *AggregationService) GetUnifiedCustomer(ctx context.Context, customerID, companyID string) (*customermodel.CustomerView, error) {
	customer, err := as.repo.FindCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil || customer.CompanyID != companyID {
		return nil, errors.NewClientError(errors.CUSTOMER_NOT_FOUND, http.StatusNotFound)
	}

	view := &customermodel.CustomerView{
		CustomerID:     customer.CustomerID,
		CompanyID:      customer.CompanyID,
		FirstName:      customer.FirstName,
		LastName:       customer.LastName,
		Email:          customer.Email,
		Phone:          customer.Phone,
		CompanyName:    customer.CompanyName,
		JobTitle:       customer.JobTitle,
		Location:       customer.Location,
		Country:        customer.Country,
		ChurnRiskScore: customer.ChurnRiskScore,
		ChurnRiskLevel: customer.ChurnRiskLevel,
		PredictedAt:    customer.PredictedAt,
		LastSyncedAt:   customer.LastSyncedAt,
		PrimarySources: map[facetmodel.FacetType]string{},
		Facets:         map[facetmodel.FacetType][]*facetmodel.FacetRecord{},
	}

	for _, ft := range facetmodel.AllFacetTypes() {
		records := customer.FacetsOfType(ft, true)
		facetservice.SortForReadBack(records)
		view.Facets[ft] = records
		if source := customer.PrimarySource(ft); source != "" {
			view.PrimarySources[ft] = source
		}
	}
	return view, nil
}

// GetAllSourcesForFacet lists the active facet records of one type, primary
// first, then most recently synced first.
func (as *AggregationService) GetAllSourcesForFacet(ctx context.Context, customerID, facetType string) ([]*facetmodel.FacetRecord, error) {
	ft, err := facetmodel.ParseFacetType(facetType)
	if err != nil {
		return nil, errors.NewClientError(errors.INVALID_FACET_TYPE, http.StatusBadRequest)
	}

	customer, err := as.loadCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	records := customer.FacetsOfType(ft, true)
	facetservice.SortForReadBack(records)
	return records, nil
}

// GetCustomerSummaries assembles reduced per-customer projections for a
// company. Risk assembly failures degrade the affected customer to a basic
// projection instead of failing the whole page.
func (as *AggregationService) GetCustomerSummaries(ctx context.Context, companyID string) ([]customermodel.CustomerSummary, error) {
	customers, err := as.repo.ListCustomersByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	now := as.now()
	summaries := make([]customermodel.CustomerSummary, 0, len(customers))
	for _, customer := range customers {
		summaries = append(summaries, as.summarize(customer, now))
	}
	return summaries, nil
}

// CreateCustomer registers a new customer shell. Identity resolution (which
// incoming rows map to which customer) is the import pipeline's job; this
// only guards the email natural key.
func (as *AggregationService) CreateCustomer(ctx context.Context, customer *customermodel.Customer) (*customermodel.Customer, error) {
	if customer.Email == "" || customer.CompanyID == "" {
		return nil, errors.NewClientError(errors.ErrorMessage{
			Code:        errors.BAD_REQUEST.Code,
			Message:     errors.BAD_REQUEST.Message,
			Description: "company_id and email are required.",
		}, http.StatusBadRequest)
	}
	if customer.CustomerID == "" {
		customer.CustomerID = uuid.New().String()
	}
	if customer.ChurnRiskLevel == "" {
		customer.ChurnRiskLevel = customermodel.RiskLevelLow
	}

	if err := as.repo.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer removes the customer and cascades to all owned facet and
// prediction rows.
func (as *AggregationService) DeleteCustomer(ctx context.Context, customerID, companyID string) error {
	customer, err := as.repo.FindCustomerByID(ctx, customerID)
	if err != nil {
		return err
	}
	if customer == nil || customer.CompanyID != companyID {
		return errors.NewClientError(errors.CUSTOMER_NOT_FOUND, http.StatusNotFound)
	}
	return as.repo.DeleteCustomer(ctx, customerID)
}

// GetPredictionHistory returns the customer's recorded churn predictions,
// most recent first.
func (as *AggregationService) GetPredictionHistory(ctx context.Context, customerID string, limit int) ([]customermodel.ChurnPrediction, error) {
	if _, err := as.loadCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return as.repo.GetPredictionHistory(ctx, customerID, limit)
}

// recomputeRisk refreshes the cached score, level and prediction trail on the
// aggregate. Always a full recompute over active facets.
func (as *AggregationService) recomputeRisk(customer *customermodel.Customer, now time.Time) {
	score, level := riskservice.Recompute(customer, now)
	customer.ChurnRiskScore = score
	customer.ChurnRiskLevel = level
	predictedAt := now
	customer.PredictedAt = &predictedAt
	customer.PendingPredictions = append(customer.PendingPredictions, customermodel.ChurnPrediction{
		PredictionID: uuid.New().String(),
		CustomerID:   customer.CustomerID,
		Score:        score,
		Level:        level,
		ComputedAt:   now,
	})
}

// summarize builds one customer's summary, recovering from risk assembly
// panics (e.g. a facet row with a missing measure set) with a basic
// projection.
func (as *AggregationService) summarize(customer *customermodel.Customer, now time.Time) (summary customermodel.CustomerSummary) {
	defer func() {
		if r := recover(); r != nil {
			log.GetLogger().Warn("Risk assembly failed for customer, returning basic projection",
				log.String("customer_id", customer.CustomerID),
				log.Any("cause", r))
			summary = customermodel.CustomerSummary{
				CustomerID: customer.CustomerID,
				FirstName:  customer.FirstName,
				LastName:   customer.LastName,
				Email:      customer.Email,
			}
		}
	}()

	score, level := riskservice.Recompute(customer, now)
	return customermodel.CustomerSummary{
		CustomerID:     customer.CustomerID,
		FirstName:      customer.FirstName,
		LastName:       customer.LastName,
		Email:          customer.Email,
		ChurnRiskScore: score,
		ChurnRiskLevel: level,
		RiskAvailable:  true,
	}
}

// loadCustomer fetches the aggregate or surfaces the typed not-found failure.
func (as *AggregationService) loadCustomer(ctx context.Context, customerID string) (*customermodel.Customer, error) {
	customer, err := as.repo.FindCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, errors.NewClientError(errors.CUSTOMER_NOT_FOUND, http.StatusNotFound)
	}
	return customer, nil
}

// lockCustomer acquires the per-customer advisory lock with retries. Returns
// a release func; a nil lock provider yields a no-op.
func (as *AggregationService) lockCustomer(customerID string) (func(), error) {
	if as.locks == nil {
		return func() {}, nil
	}

	customerLock, err := as.locks()
	if err != nil {
		return nil, err
	}

	lockKey := "lock:customer:" + customerID
	for attempt := 0; attempt < constants.MaxLockRetryAttempts; attempt++ {
		acquired, err := customerLock.Acquire(lockKey)
		if err != nil {
			return nil, err
		}
		if acquired {
			return func() {
				if err := customerLock.Release(lockKey); err != nil {
					log.GetLogger().Error("Failed to release customer lock", log.Error(err))
				}
			}, nil
		}
		time.Sleep(constants.LockRetryDelay)
	}

	return nil, errors.NewServerError(errors.LOCK_ACQUIRE, nil)
}
