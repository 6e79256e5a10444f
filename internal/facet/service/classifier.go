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

package service

import (
	"strings"

	customermodel "github.com/churnsight/customer-aggregation-service/internal/customer/model"
	"github.com/churnsight/customer-aggregation-service/internal/facet/model"
	"github.com/churnsight/customer-aggregation-service/internal/system/log"
)

// classifierNameOrder is the precedence of the source-name keyword phase.
var classifierNameOrder = []model.FacetType{
	model.FacetTypeCrm,
	model.FacetTypePayment,
	model.FacetTypeMarketing,
	model.FacetTypeSupport,
	model.FacetTypeEngagement,
}

// classifierPayloadOrder is the precedence of the payload-key fallback phase.
// Payment keys are checked before CRM keys here, unlike the name phase.
var classifierPayloadOrder = []model.FacetType{
	model.FacetTypePayment,
	model.FacetTypeCrm,
	model.FacetTypeMarketing,
	model.FacetTypeSupport,
	model.FacetTypeEngagement,
}

// Classify infers the facet category a payload belongs to. Phase one matches
// known substrings of the lower-cased source name; phase two falls back to
// category-diagnostic payload keys; anything still unmatched defaults to CRM.
// Both keyword lists and the branch orders are load-bearing policy.
func Classify(sourceName string, data customermodel.SourceData) model.FacetType {
	name := strings.ToLower(sourceName)

	for _, ft := range classifierNameOrder {
		desc := descriptorFor(ft)
		for _, keyword := range desc.nameKeywords {
			if strings.Contains(name, keyword) {
				return ft
			}
		}
	}

	for _, ft := range classifierPayloadOrder {
		desc := descriptorFor(ft)
		if data.HasKey(desc.payloadKeys...) {
			return ft
		}
	}

	log.GetLogger().Debug("Payload did not match any facet category, defaulting to CRM",
		log.String("source", sourceName))
	return model.FacetTypeCrm
}
