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

package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/churnsight/customer-aggregation-service/internal/aggregation/model"
	"github.com/churnsight/customer-aggregation-service/internal/aggregation/provider"
	customermodel "github.com/churnsight/customer-aggregation-service/internal/customer/model"
	"github.com/churnsight/customer-aggregation-service/internal/system/errors"
	"github.com/churnsight/customer-aggregation-service/internal/system/utils"
)

// AggregationHandler exposes the merge engine over HTTP.
type AggregationHandler struct{}

// NewAggregationHandler creates a new instance of AggregationHandler.
func NewAggregationHandler() *AggregationHandler {

	return &AggregationHandler{}
}

// CreateCustomer handles POST /customers
func (ah *AggregationHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {

	var request model.CreateCustomerRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		clientError := errors.NewClientError(errors.ErrorMessage{
			Code:        errors.BAD_REQUEST.Code,
			Message:     errors.BAD_REQUEST.Message,
			Description: utils.HandleDecodeError(err, "customer"),
		}, http.StatusBadRequest)
		utils.HandleError(w, clientError)
		return
	}

	aggregationService := provider.NewAggregationProvider().GetAggregationService()
	customer, err := aggregationService.CreateCustomer(r.Context(), &customermodel.Customer{
		CompanyID:   request.CompanyID,
		Email:       request.Email,
		FirstName:   request.FirstName,
		LastName:    request.LastName,
		Phone:       request.Phone,
		CompanyName: request.CompanyName,
		JobTitle:    request.JobTitle,
		Location:    request.Location,
		Country:     request.Country,
	})
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusCreated, customer)
}

// GetCustomerSummaries handles GET /customers?company_id=
func (ah *AggregationHandler) GetCustomerSummaries(w http.ResponseWriter, r *http.Request) {

	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		utils.HandleError(w, missingCompanyScope())
		return
	}

	aggregationService := provider.NewAggregationProvider().GetAggregationService()
	summaries, err := aggregationService.GetCustomerSummaries(r.Context(), companyID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, summaries)
}

// GetCustomer handles GET /customers/{id}?company_id=
func (ah *AggregationHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {

	customerID := customerPathSegments(r)[0]
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		utils.HandleError(w, missingCompanyScope())
		return
	}

	aggregationService := provider.NewAggregationProvider().GetAggregationService()
	view, err := aggregationService.GetUnifiedCustomer(r.Context(), customerID, companyID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, view)
}

// DeleteCustomer handles DELETE /customers/{id}?company_id=
func (ah *AggregationHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {

	customerID := customerPathSegments(r)[0]
	companyID := r.URL.Query().Get("company_id")
	if companyID == "" {
		utils.HandleError(w, missingCompanyScope())
		return
	}

	aggregationService := provider.NewAggregationProvider().GetAggregationService()
	if err := aggregationService.DeleteCustomer(r.Context(), customerID, companyID); err != nil {
		utils.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddCustomerData handles POST /customers/{id}/data
func (ah *AggregationHandler) AddCustomerData(w http.ResponseWriter, r *http.Request) {

	customerID := customerPathSegments(r)[0]

	var request model.SourceDataRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		clientError := errors.NewClientError(errors.ErrorMessage{
			Code:        errors.BAD_REQUEST.Code,
			Message:     errors.BAD_REQUEST.Message,
			Description: utils.HandleDecodeError(err, "source data"),
		}, http.StatusBadRequest)
		utils.HandleError(w, clientError)
		return
	}

	aggregationService := provider.NewAggregationProvider().GetAggregationService()
	customer, err := aggregationService.AddOrUpdateCustomerData(r.Context(), customerID,
		request.Data, request.Source, request.ImportBatchID, request.ImportedBy)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, customer)
}

// GetPredictionHistory handles GET /customers/{id}/predictions?limit=
func (ah *AggregationHandler) GetPredictionHistory(w http.ResponseWriter, r *http.Request) {

	customerID := customerPathSegments(r)[0]
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			clientError := errors.NewClientError(errors.ErrorMessage{
				Code:        errors.BAD_REQUEST.Code,
				Message:     errors.BAD_REQUEST.Message,
				Description: "limit must be an integer.",
			}, http.StatusBadRequest)
			utils.HandleError(w, clientError)
			return
		}
		limit = parsed
	}

	aggregationService := provider.NewAggregationProvider().GetAggregationService()
	predictions, err := aggregationService.GetPredictionHistory(r.Context(), customerID, limit)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, predictions)
}

// GetFacetSources handles GET /customers/{id}/facets/{type}/sources
func (ah *AggregationHandler) GetFacetSources(w http.ResponseWriter, r *http.Request) {

	segments := customerPathSegments(r)
	customerID, facetType := segments[0], segments[2]

	aggregationService := provider.NewAggregationProvider().GetAggregationService()
	records, err := aggregationService.GetAllSourcesForFacet(r.Context(), customerID, facetType)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.WriteJSONResponse(w, http.StatusOK, records)
}

// SetPrimarySource handles PUT /customers/{id}/facets/{type}/primary
func (ah *AggregationHandler) SetPrimarySource(w http.ResponseWriter, r *http.Request) {

	segments := customerPathSegments(r)
	customerID, facetType := segments[0], segments[2]

	var request model.PrimarySourceRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		clientError := errors.NewClientError(errors.ErrorMessage{
			Code:        errors.BAD_REQUEST.Code,
			Message:     errors.BAD_REQUEST.Message,
			Description: utils.HandleDecodeError(err, "primary source"),
		}, http.StatusBadRequest)
		utils.HandleError(w, clientError)
		return
	}

	aggregationService := provider.NewAggregationProvider().GetAggregationService()
	if err := aggregationService.SetPrimarySource(r.Context(), customerID, facetType, request.Source); err != nil {
		utils.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeactivateSource handles DELETE /customers/{id}/facets/{type}/sources/{source}
func (ah *AggregationHandler) DeactivateSource(w http.ResponseWriter, r *http.Request) {

	segments := customerPathSegments(r)
	customerID, facetType, source := segments[0], segments[2], segments[4]

	aggregationService := provider.NewAggregationProvider().GetAggregationService()
	deactivated, err := aggregationService.DeactivateSource(r.Context(), customerID, facetType, source)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	if !deactivated {
		utils.HandleError(w, errors.NewClientError(errors.CUSTOMER_NOT_FOUND, http.StatusNotFound))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// customerPathSegments returns the path segments after /customers/, e.g.
// {id}, {id, "facets", type, "sources"} or {id, "facets", type, "sources", source}.
func customerPathSegments(r *http.Request) []string {

	path := strings.TrimSuffix(r.URL.Path, "/")
	idx := strings.Index(path, "/customers/")
	if idx < 0 {
		return []string{""}
	}
	segments := strings.Split(path[idx+len("/customers/"):], "/")
	if len(segments) == 0 {
		return []string{""}
	}
	return segments
}

func missingCompanyScope() error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.BAD_REQUEST.Code,
		Message:     errors.BAD_REQUEST.Message,
		Description: "company_id query parameter is required.",
	}, http.StatusBadRequest)
}
