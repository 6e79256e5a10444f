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

package config

type AddrConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type LogConfig struct {
	LogLevel string `yaml:"log_level"`
}

type DataSourceConfig struct {
	Hostname   string `yaml:"hostname"`
	Port       int    `yaml:"port"`
	Name       string `yaml:"name"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	SSLMode    string `yaml:"sslmode"`
	InitSchema bool   `yaml:"init_schema"`
}

// AggregationConfig tunes the merge engine. SourcePriorities overlays the
// compiled-in trust table; entries are source name to weight (0-100).
type AggregationConfig struct {
	SourcePriorities map[string]int `yaml:"source_priorities"`
}

type Config struct {
	Addr        AddrConfig        `yaml:"addr"`
	Log         LogConfig         `yaml:"log"`
	DataSource  DataSourceConfig  `yaml:"datasource"`
	Aggregation AggregationConfig `yaml:"aggregation"`
}
