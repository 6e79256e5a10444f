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

package services

import (
	"net/http"
	"strings"

	"github.com/churnsight/customer-aggregation-service/internal/aggregation/handler"
)

// AggregationService handles routing for the customer aggregation endpoints.
type AggregationService struct {
	aggregationHandler *handler.AggregationHandler
}

// NewAggregationService creates a new AggregationService instance.
func NewAggregationService() *AggregationService {
	return &AggregationService{
		aggregationHandler: handler.NewAggregationHandler(),
	}
}

// Route dispatches customer aggregation requests. The path is expected with
// the API base already trimmed.
func (s *AggregationService) Route(w http.ResponseWriter, r *http.Request, path string) {

	method := r.Method
	segments := strings.Split(strings.TrimPrefix(path, "/customers"), "/")
	// Leading separator produces an empty first segment; drop it.
	if len(segments) > 0 && segments[0] == "" {
		segments = segments[1:]
	}

	switch {
	case method == http.MethodPost && len(segments) == 0:
		s.aggregationHandler.CreateCustomer(w, r)

	case method == http.MethodGet && len(segments) == 0:
		s.aggregationHandler.GetCustomerSummaries(w, r)

	case method == http.MethodGet && len(segments) == 1:
		s.aggregationHandler.GetCustomer(w, r)

	case method == http.MethodDelete && len(segments) == 1:
		s.aggregationHandler.DeleteCustomer(w, r)

	case method == http.MethodPost && len(segments) == 2 && segments[1] == "data":
		s.aggregationHandler.AddCustomerData(w, r)

	case method == http.MethodGet && len(segments) == 2 && segments[1] == "predictions":
		s.aggregationHandler.GetPredictionHistory(w, r)

	case method == http.MethodGet && len(segments) == 4 && segments[1] == "facets" && segments[3] == "sources":
		s.aggregationHandler.GetFacetSources(w, r)

	case method == http.MethodPut && len(segments) == 4 && segments[1] == "facets" && segments[3] == "primary":
		s.aggregationHandler.SetPrimarySource(w, r)

	case method == http.MethodDelete && len(segments) == 5 && segments[1] == "facets" && segments[3] == "sources":
		s.aggregationHandler.DeactivateSource(w, r)

	default:
		http.NotFound(w, r)
	}
}
