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

package priority

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTable_KnownSources(t *testing.T) {
	table := DefaultTable()

	assert.Equal(t, 100, table.Priority("manual_import"))
	assert.Equal(t, 95, table.Priority("csv_import"))
	assert.Equal(t, 90, table.Priority("stripe"))
	assert.Equal(t, 80, table.Priority("salesforce"))
	assert.Equal(t, 75, table.Priority("hubspot"))
	assert.Equal(t, 60, table.Priority("mailchimp"))
	assert.Equal(t, 55, table.Priority("zendesk"))
	assert.Equal(t, 50, table.Priority("mixpanel"))
}

func TestDefaultTable_UnknownSourceFloorsAtDefault(t *testing.T) {
	table := DefaultTable()

	assert.Equal(t, DefaultPriority, table.Priority("homegrown_tool"))
	assert.Equal(t, DefaultPriority, table.Priority(""))
}

func TestTable_LookupIsCaseInsensitive(t *testing.T) {
	table := DefaultTable()

	assert.Equal(t, 90, table.Priority("Stripe"))
	assert.Equal(t, 90, table.Priority("STRIPE"))
	assert.Equal(t, 80, table.Priority("SalesForce"))
}

func TestNewTable_OverridesReplaceDefaults(t *testing.T) {
	table := NewTable(map[string]int{
		"stripe":   40,
		"Internal": 99,
	})

	assert.Equal(t, 40, table.Priority("stripe"))
	assert.Equal(t, 99, table.Priority("internal"))
	// Untouched defaults survive the overlay.
	assert.Equal(t, 80, table.Priority("salesforce"))
}

func TestNewTable_ClampsOverridesToValidRange(t *testing.T) {
	table := NewTable(map[string]int{
		"too_high": 150,
		"too_low":  -5,
	})

	assert.Equal(t, 100, table.Priority("too_high"))
	assert.Equal(t, 0, table.Priority("too_low"))
}
