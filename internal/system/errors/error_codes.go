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

package errors

const errorPrefix = "CAS-"

var (
	// Server error codes

	DB_CLIENT_INIT = ErrorMessage{
		Code:    errorPrefix + "15001",
		Message: "Unable to initialize database client.",
	}

	GET_CUSTOMER = ErrorMessage{
		Code:    errorPrefix + "15002",
		Message: "Error while fetching customer.",
	}

	SAVE_CUSTOMER = ErrorMessage{
		Code:    errorPrefix + "15003",
		Message: "Error while saving customer aggregate.",
	}

	ADD_CUSTOMER = ErrorMessage{
		Code:    errorPrefix + "15004",
		Message: "Error while adding customer.",
	}

	DELETE_CUSTOMER = ErrorMessage{
		Code:    errorPrefix + "15005",
		Message: "Error while deleting customer.",
	}

	LIST_CUSTOMERS = ErrorMessage{
		Code:    errorPrefix + "15006",
		Message: "Error while listing customers.",
	}

	GET_FACETS = ErrorMessage{
		Code:    errorPrefix + "15007",
		Message: "Error while fetching facet records.",
	}

	GET_PREDICTIONS = ErrorMessage{
		Code:    errorPrefix + "15008",
		Message: "Error while fetching churn prediction history.",
	}

	MARSHAL_JSON = ErrorMessage{
		Code:    errorPrefix + "15009",
		Message: "Error while marshalling JSON.",
	}

	UNMARSHAL_JSON = ErrorMessage{
		Code:    errorPrefix + "15010",
		Message: "Error while un-marshalling JSON.",
	}

	SAVE_CONFLICT = ErrorMessage{
		Code:        errorPrefix + "15011",
		Message:     "Customer aggregate was modified concurrently.",
		Description: "The customer row version changed between read and write. Retry the operation.",
	}

	LOCK_ACQUIRE = ErrorMessage{
		Code:    errorPrefix + "15012",
		Message: "Advisory lock acquisition failed",
	}

	LOCK_RELEASE = ErrorMessage{
		Code:    errorPrefix + "15013",
		Message: "Error while releasing the lock.",
	}

	LOCK_KEY_GEN = ErrorMessage{
		Code:    errorPrefix + "15014",
		Message: "Error generating advisory lock key",
	}

	// Client error codes

	BAD_REQUEST = ErrorMessage{
		Code:    errorPrefix + "11001",
		Message: "Invalid body format.",
	}

	CUSTOMER_NOT_FOUND = ErrorMessage{
		Code:        errorPrefix + "11002",
		Message:     "Customer not found.",
		Description: "No customer record found for the given customer_id within the company scope.",
	}

	INVALID_FACET_TYPE = ErrorMessage{
		Code:        errorPrefix + "11003",
		Message:     "Invalid facet type.",
		Description: "Facet type must be one of crm, payment, marketing, support, engagement.",
	}

	CUSTOMER_ALREADY_EXISTS = ErrorMessage{
		Code:        errorPrefix + "11004",
		Message:     "Customer already exists.",
		Description: "A customer with the given email already exists for this company.",
	}

	MISSING_SOURCE_NAME = ErrorMessage{
		Code:        errorPrefix + "11005",
		Message:     "Missing source name.",
		Description: "source_name is required for source data submissions.",
	}
)
