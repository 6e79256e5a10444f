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

// Package model holds the request bodies of the aggregation API.
package model

import (
	customermodel "github.com/churnsight/customer-aggregation-service/internal/customer/model"
)

// SourceDataRequest is the body of a source data ingestion call.
type SourceDataRequest struct {
	Source        string                   `json:"source"`
	Data          customermodel.SourceData `json:"data"`
	ImportBatchID string                   `json:"import_batch_id,omitempty"`
	ImportedBy    string                   `json:"imported_by,omitempty"`
}

// PrimarySourceRequest names the source to promote for a facet type.
type PrimarySourceRequest struct {
	Source string `json:"source"`
}

// CreateCustomerRequest registers a new customer shell.
type CreateCustomerRequest struct {
	CompanyID   string `json:"company_id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	JobTitle    string `json:"job_title,omitempty"`
	Location    string `json:"location,omitempty"`
	Country     string `json:"country,omitempty"`
}
