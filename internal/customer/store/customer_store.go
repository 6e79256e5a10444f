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

// Package store persists the customer aggregate in postgres: the customers
// row, its facet records with JSONB measure payloads, and the churn
// prediction history.
package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"

	customermodel "github.com/churnsight/customer-aggregation-service/internal/customer/model"
	facetmodel "github.com/churnsight/customer-aggregation-service/internal/facet/model"
	"github.com/churnsight/customer-aggregation-service/internal/system/database/provider"
	"github.com/churnsight/customer-aggregation-service/internal/system/errors"
	"github.com/churnsight/customer-aggregation-service/internal/system/log"
)

const defaultPredictionHistoryLimit = 50

const customerColumns = `customer_id, company_id, first_name, last_name, email, phone, company_name,
		job_title, location, country, churn_risk_score, churn_risk_level, predicted_at, last_synced_at,
		primary_crm_source, primary_payment_source, primary_marketing_source, primary_support_source,
		primary_engagement_source, row_version`

const facetColumns = `facet_id, customer_id, facet_type, source, external_id, is_primary_source,
		source_priority, is_active, last_synced_at, import_batch_id, imported_by, measures`

// CustomerStore is the postgres-backed implementation of the orchestrator's
// repository contract.
type CustomerStore struct {
	dbProvider provider.DBProviderInterface
}

// NewCustomerStore creates a store over the given database provider.
func NewCustomerStore(dbProvider provider.DBProviderInterface) *CustomerStore {
	return &CustomerStore{
		dbProvider: dbProvider,
	}
}

// FindCustomerByID loads the full aggregate: the customer row plus every
// facet record, active and inactive. Returns nil when no such customer.
func (cs *CustomerStore) FindCustomerByID(ctx context.Context, customerID string) (*customermodel.Customer, error) {

	dbClient, err := cs.dbProvider.GetDBClient()
	logger := log.GetLogger()
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to get db client while fetching customer with Id: %s", customerID)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.GET_CUSTOMER.Code,
			Message:     errors.GET_CUSTOMER.Message,
			Description: errorMsg,
		}, err)
	}
	defer dbClient.Close()

	query := `SELECT ` + customerColumns + ` FROM customers WHERE customer_id = $1;`
	results, err := dbClient.ExecuteQuery(query, customerID)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed fetching customer with Id: %s", customerID)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.GET_CUSTOMER.Code,
			Message:     errors.GET_CUSTOMER.Message,
			Description: errorMsg,
		}, err)
	}
	if len(results) == 0 {
		logger.Debug(fmt.Sprintf("No customer found with the given Id: %s", customerID))
		return nil, nil
	}

	customer, err := scanCustomerRow(results[0])
	if err != nil {
		return nil, err
	}

	facetQuery := `SELECT ` + facetColumns + ` FROM customer_facets WHERE customer_id = $1
		ORDER BY last_synced_at;`
	facetRows, err := dbClient.ExecuteQuery(facetQuery, customerID)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed fetching facet records for customer with Id: %s", customerID)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.GET_FACETS.Code,
			Message:     errors.GET_FACETS.Message,
			Description: errorMsg,
		}, err)
	}
	for _, row := range facetRows {
		record, err := scanFacetRow(row)
		if err != nil {
			return nil, err
		}
		customer.Facets = append(customer.Facets, record)
	}
	return customer, nil
}

// CreateCustomer inserts a new customer row. A duplicate (company_id, email)
// pair surfaces as a 409 client error.
func (cs *CustomerStore) CreateCustomer(ctx context.Context, customer *customermodel.Customer) error {

	dbClient, err := cs.dbProvider.GetDBClient()
	logger := log.GetLogger()
	if err != nil {
		errorMsg := "Failed to get db client for adding a customer"
		logger.Debug(errorMsg, log.Error(err))
		return errors.NewServerError(errors.ErrorMessage{
			Code:        errors.ADD_CUSTOMER.Code,
			Message:     errors.ADD_CUSTOMER.Message,
			Description: errorMsg,
		}, err)
	}
	defer dbClient.Close()

	query := `
		INSERT INTO customers (
			customer_id, company_id, first_name, last_name, email, phone, company_name,
			job_title, location, country, churn_risk_score, churn_risk_level, row_version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1);`

	_, err = dbClient.ExecuteStatement(query,
		customer.CustomerID,
		customer.CompanyID,
		customer.FirstName,
		customer.LastName,
		customer.Email,
		customer.Phone,
		customer.CompanyName,
		customer.JobTitle,
		customer.Location,
		customer.Country,
		customer.ChurnRiskScore,
		string(customer.ChurnRiskLevel),
	)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			logger.Debug(fmt.Sprintf("Customer already exists for company: %s, email: %s",
				customer.CompanyID, customer.Email))
			return errors.NewClientError(errors.CUSTOMER_ALREADY_EXISTS, http.StatusConflict)
		}
		errorMsg := fmt.Sprintf("Failed to insert customer with Id: %s", customer.CustomerID)
		logger.Debug(errorMsg, log.Error(err))
		return errors.NewServerError(errors.ErrorMessage{
			Code:        errors.ADD_CUSTOMER.Code,
			Message:     errors.ADD_CUSTOMER.Message,
			Description: errorMsg,
		}, err)
	}

	customer.RowVersion = 1
	logger.Info("Customer added successfully: " + customer.CustomerID)
	return nil
}

// SaveCustomer writes the whole aggregate in one transaction. The customer
// update asserts the loaded row version; zero affected rows means a
// concurrent writer won and the save fails with a conflict error.
func (cs *CustomerStore) SaveCustomer(ctx context.Context, customer *customermodel.Customer) error {

	dbClient, err := cs.dbProvider.GetDBClient()
	logger := log.GetLogger()
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to get db client for saving customer with Id: %s", customer.CustomerID)
		logger.Debug(errorMsg, log.Error(err))
		return errors.NewServerError(errors.ErrorMessage{
			Code:        errors.SAVE_CUSTOMER.Code,
			Message:     errors.SAVE_CUSTOMER.Message,
			Description: errorMsg,
		}, err)
	}
	defer dbClient.Close()

	tx, err := dbClient.BeginTx()
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to begin transaction for customer with Id: %s", customer.CustomerID)
		logger.Debug(errorMsg, log.Error(err))
		return errors.NewServerError(errors.ErrorMessage{
			Code:        errors.SAVE_CUSTOMER.Code,
			Message:     errors.SAVE_CUSTOMER.Message,
			Description: errorMsg,
		}, err)
	}

	updateQuery := `
		UPDATE customers SET
			first_name = $1, last_name = $2, email = $3, phone = $4, company_name = $5,
			job_title = $6, location = $7, country = $8, churn_risk_score = $9,
			churn_risk_level = $10, predicted_at = $11, last_synced_at = $12,
			primary_crm_source = $13, primary_payment_source = $14, primary_marketing_source = $15,
			primary_support_source = $16, primary_engagement_source = $17,
			row_version = row_version + 1
		WHERE customer_id = $18 AND row_version = $19;`

	result, err := tx.Exec(updateQuery,
		customer.FirstName,
		customer.LastName,
		customer.Email,
		customer.Phone,
		customer.CompanyName,
		customer.JobTitle,
		customer.Location,
		customer.Country,
		customer.ChurnRiskScore,
		string(customer.ChurnRiskLevel),
		customer.PredictedAt,
		customer.LastSyncedAt,
		customer.PrimaryCrmSource,
		customer.PrimaryPaymentSource,
		customer.PrimaryMarketingSource,
		customer.PrimarySupportSource,
		customer.PrimaryEngagementSource,
		customer.CustomerID,
		customer.RowVersion,
	)
	if err != nil {
		_ = tx.Rollback()
		errorMsg := fmt.Sprintf("Failed to update customer with Id: %s", customer.CustomerID)
		logger.Debug(errorMsg, log.Error(err))
		return errors.NewServerError(errors.ErrorMessage{
			Code:        errors.SAVE_CUSTOMER.Code,
			Message:     errors.SAVE_CUSTOMER.Message,
			Description: errorMsg,
		}, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		_ = tx.Rollback()
		errorMsg := fmt.Sprintf("Concurrent update detected for customer with Id: %s", customer.CustomerID)
		logger.Debug(errorMsg)
		return errors.NewServerError(errors.ErrorMessage{
			Code:        errors.SAVE_CONFLICT.Code,
			Message:     errors.SAVE_CONFLICT.Message,
			Description: errorMsg,
		}, nil)
	}

	facetQuery := `
		INSERT INTO customer_facets (` + facetColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (facet_id) DO UPDATE SET
			external_id = EXCLUDED.external_id,
			is_primary_source = EXCLUDED.is_primary_source,
			is_active = EXCLUDED.is_active,
			last_synced_at = EXCLUDED.last_synced_at,
			import_batch_id = EXCLUDED.import_batch_id,
			imported_by = EXCLUDED.imported_by,
			measures = EXCLUDED.measures;`

	for _, record := range customer.Facets {
		measuresJSON, err := marshalMeasures(record)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.Exec(facetQuery,
			record.FacetID,
			record.CustomerID,
			string(record.FacetType),
			record.Source,
			record.ExternalID,
			record.IsPrimarySource,
			record.SourcePriority,
			record.IsActive,
			record.LastSyncedAt,
			record.ImportBatchID,
			record.ImportedBy,
			measuresJSON,
		); err != nil {
			_ = tx.Rollback()
			errorMsg := fmt.Sprintf("Failed to save facet record with Id: %s", record.FacetID)
			logger.Debug(errorMsg, log.Error(err))
			return errors.NewServerError(errors.ErrorMessage{
				Code:        errors.SAVE_CUSTOMER.Code,
				Message:     errors.SAVE_CUSTOMER.Message,
				Description: errorMsg,
			}, err)
		}
	}

	predictionQuery := `
		INSERT INTO churn_predictions (prediction_id, customer_id, score, level, computed_at)
		VALUES ($1, $2, $3, $4, $5);`
	for _, prediction := range customer.PendingPredictions {
		if _, err := tx.Exec(predictionQuery,
			prediction.PredictionID,
			prediction.CustomerID,
			prediction.Score,
			string(prediction.Level),
			prediction.ComputedAt,
		); err != nil {
			_ = tx.Rollback()
			errorMsg := fmt.Sprintf("Failed to record churn prediction for customer with Id: %s",
				customer.CustomerID)
			logger.Debug(errorMsg, log.Error(err))
			return errors.NewServerError(errors.ErrorMessage{
				Code:        errors.SAVE_CUSTOMER.Code,
				Message:     errors.SAVE_CUSTOMER.Message,
				Description: errorMsg,
			}, err)
		}
	}

	if err := tx.Commit(); err != nil {
		errorMsg := fmt.Sprintf("Failed to commit save for customer with Id: %s", customer.CustomerID)
		logger.Debug(errorMsg, log.Error(err))
		return errors.NewServerError(errors.ErrorMessage{
			Code:        errors.SAVE_CUSTOMER.Code,
			Message:     errors.SAVE_CUSTOMER.Message,
			Description: errorMsg,
		}, err)
	}

	customer.RowVersion++
	customer.PendingPredictions = nil
	return nil
}

// ListCustomersByCompany loads every customer of the company with facets.
func (cs *CustomerStore) ListCustomersByCompany(ctx context.Context, companyID string) ([]*customermodel.Customer, error) {

	dbClient, err := cs.dbProvider.GetDBClient()
	logger := log.GetLogger()
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to get db client for listing customers of company: %s", companyID)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.LIST_CUSTOMERS.Code,
			Message:     errors.LIST_CUSTOMERS.Message,
			Description: errorMsg,
		}, err)
	}
	defer dbClient.Close()

	query := `SELECT ` + customerColumns + ` FROM customers WHERE company_id = $1 ORDER BY email;`
	results, err := dbClient.ExecuteQuery(query, companyID)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed listing customers of company: %s", companyID)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.LIST_CUSTOMERS.Code,
			Message:     errors.LIST_CUSTOMERS.Message,
			Description: errorMsg,
		}, err)
	}

	customers := make([]*customermodel.Customer, 0, len(results))
	for _, row := range results {
		customer, err := scanCustomerRow(row)
		if err != nil {
			return nil, err
		}
		customers = append(customers, customer)
	}
	if len(customers) == 0 {
		return customers, nil
	}

	facetQuery := `SELECT ` + facetColumns + ` FROM customer_facets
		WHERE customer_id IN (SELECT customer_id FROM customers WHERE company_id = $1)
		ORDER BY last_synced_at;`
	facetRows, err := dbClient.ExecuteQuery(facetQuery, companyID)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed listing facet records for company: %s", companyID)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.GET_FACETS.Code,
			Message:     errors.GET_FACETS.Message,
			Description: errorMsg,
		}, err)
	}

	byID := make(map[string]*customermodel.Customer, len(customers))
	for _, customer := range customers {
		byID[customer.CustomerID] = customer
	}
	for _, row := range facetRows {
		record, err := scanFacetRow(row)
		if err != nil {
			return nil, err
		}
		if owner, ok := byID[record.CustomerID]; ok {
			owner.Facets = append(owner.Facets, record)
		}
	}
	return customers, nil
}

// DeleteCustomer removes the customer row; facet and prediction rows go with
// it via ON DELETE CASCADE.
func (cs *CustomerStore) DeleteCustomer(ctx context.Context, customerID string) error {

	dbClient, err := cs.dbProvider.GetDBClient()
	logger := log.GetLogger()
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to get db client for deleting customer with Id: %s", customerID)
		logger.Debug(errorMsg, log.Error(err))
		return errors.NewServerError(errors.ErrorMessage{
			Code:        errors.DELETE_CUSTOMER.Code,
			Message:     errors.DELETE_CUSTOMER.Message,
			Description: errorMsg,
		}, err)
	}
	defer dbClient.Close()

	if _, err := dbClient.ExecuteStatement(`DELETE FROM customers WHERE customer_id = $1;`, customerID); err != nil {
		errorMsg := fmt.Sprintf("Failed to delete customer with Id: %s", customerID)
		logger.Debug(errorMsg, log.Error(err))
		return errors.NewServerError(errors.ErrorMessage{
			Code:        errors.DELETE_CUSTOMER.Code,
			Message:     errors.DELETE_CUSTOMER.Message,
			Description: errorMsg,
		}, err)
	}
	logger.Info("Customer deleted successfully: " + customerID)
	return nil
}

// GetPredictionHistory returns the customer's churn predictions, most recent
// first. A non-positive limit falls back to the default page size.
func (cs *CustomerStore) GetPredictionHistory(ctx context.Context, customerID string, limit int) ([]customermodel.ChurnPrediction, error) {

	dbClient, err := cs.dbProvider.GetDBClient()
	logger := log.GetLogger()
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to get db client for fetching predictions of customer: %s", customerID)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.GET_PREDICTIONS.Code,
			Message:     errors.GET_PREDICTIONS.Message,
			Description: errorMsg,
		}, err)
	}
	defer dbClient.Close()

	if limit <= 0 {
		limit = defaultPredictionHistoryLimit
	}

	query := `
		SELECT prediction_id, customer_id, score, level, computed_at
		FROM churn_predictions
		WHERE customer_id = $1
		ORDER BY computed_at DESC
		LIMIT $2;`
	results, err := dbClient.ExecuteQuery(query, customerID, limit)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed fetching predictions of customer: %s", customerID)
		logger.Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.GET_PREDICTIONS.Code,
			Message:     errors.GET_PREDICTIONS.Message,
			Description: errorMsg,
		}, err)
	}

	predictions := make([]customermodel.ChurnPrediction, 0, len(results))
	for _, row := range results {
		predictions = append(predictions, customermodel.ChurnPrediction{
			PredictionID: columnString(row, "prediction_id"),
			CustomerID:   columnString(row, "customer_id"),
			Score:        columnFloat(row, "score"),
			Level:        customermodel.RiskLevel(columnString(row, "level")),
			ComputedAt:   columnTime(row, "computed_at"),
		})
	}
	return predictions, nil
}

// marshalMeasures serializes the record's measure set for the JSONB column.
func marshalMeasures(record *facetmodel.FacetRecord) ([]byte, error) {

	var measures interface{}
	switch record.FacetType {
	case facetmodel.FacetTypeCrm:
		measures = record.Crm
	case facetmodel.FacetTypePayment:
		measures = record.Payment
	case facetmodel.FacetTypeMarketing:
		measures = record.Marketing
	case facetmodel.FacetTypeSupport:
		measures = record.Support
	case facetmodel.FacetTypeEngagement:
		measures = record.Engagement
	}

	measuresJSON, err := json.Marshal(measures)
	if err != nil {
		errorMsg := fmt.Sprintf("Failed to marshal measures for facet record with Id: %s", record.FacetID)
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.MARSHAL_JSON.Code,
			Message:     errors.MARSHAL_JSON.Message,
			Description: errorMsg,
		}, err)
	}
	return measuresJSON, nil
}
