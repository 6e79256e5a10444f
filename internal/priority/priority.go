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

// Package priority holds the source trust table used for every conflict
// resolution decision in the merge engine. It is the single tunable knob:
// a higher weight means a more trusted source.
package priority

import "strings"

// DefaultPriority is assigned to sources absent from the table.
const DefaultPriority = 10

// defaultWeights is the compiled-in trust table. Manual imports rank highest
// since a human curated them, payment processors next (billing data is ground
// truth for revenue), then CRMs, then marketing/support/analytics tools.
var defaultWeights = map[string]int{
	"manual_import": 100,
	"manual":        100,
	"csv_import":    95,

	"stripe":    90,
	"paypal":    85,
	"chargebee": 85,
	"recurly":   85,

	"salesforce": 80,
	"hubspot":    75,
	"dynamics":   75,
	"pipedrive":  70,
	"zoho":       70,

	"mailchimp": 60,
	"marketo":   60,
	"intercom":  60,
	"zendesk":   55,
	"freshdesk": 55,
	"mixpanel":  50,
	"amplitude": 50,
	"segment":   50,
}

// Table maps a lower-cased source name to its trust weight (0-100).
// Instances are immutable after construction and safe for concurrent reads.
type Table struct {
	weights map[string]int
}

// DefaultTable returns a table with only the compiled-in weights.
func DefaultTable() *Table {
	return NewTable(nil)
}

// NewTable builds a table from the compiled-in weights overlaid with the
// given deployment overrides. Override keys are lower-cased; weights are
// clamped to [0,100].
func NewTable(overrides map[string]int) *Table {
	weights := make(map[string]int, len(defaultWeights)+len(overrides))
	for name, weight := range defaultWeights {
		weights[name] = weight
	}
	for name, weight := range overrides {
		if weight < 0 {
			weight = 0
		}
		if weight > 100 {
			weight = 100
		}
		weights[strings.ToLower(name)] = weight
	}
	return &Table{weights: weights}
}

// Priority returns the trust weight for the given source name. Lookup is
// case-insensitive; unknown sources floor at DefaultPriority.
func (t *Table) Priority(sourceName string) int {
	if weight, ok := t.weights[strings.ToLower(sourceName)]; ok {
		return weight
	}
	return DefaultPriority
}
