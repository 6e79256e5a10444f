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

package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/churnsight/customer-aggregation-service/internal/system/config"
	"github.com/churnsight/customer-aggregation-service/internal/system/constants"
	"github.com/churnsight/customer-aggregation-service/internal/system/database/provider"
	"github.com/churnsight/customer-aggregation-service/internal/system/log"
	"github.com/churnsight/customer-aggregation-service/internal/system/managers"
)

const configFile = "config/deployment.yaml"

func main() {

	casHome := getCASHome()

	envFiles, _ := filepath.Glob("config/*.env")
	_ = godotenv.Load(envFiles...)

	casConfig, err := config.LoadConfig(casHome, configFile)
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}

	if err := config.InitializeCASRuntime(casHome, casConfig); err != nil {
		stdlog.Fatalf("Failed to initialize runtime configuration: %v", err)
	}

	if err := log.Init(casConfig.Log.LogLevel); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := log.GetLogger()

	if casConfig.DataSource.InitSchema {
		if err := initDatabaseSchema(casHome); err != nil {
			logger.Error("Failed to initialize database schema", log.Error(err))
			os.Exit(1)
		}
	}

	serverAddr := fmt.Sprintf("%s:%d", casConfig.Addr.Host, casConfig.Addr.Port)
	mux := enableCORS(initMultiplexer())

	ln, err := net.Listen("tcp", serverAddr)
	if err != nil {
		logger.Error("Failed to start listener", log.Error(err))
		os.Exit(1)
	}
	logger.Info("Customer aggregation service started", log.String("addr", serverAddr))

	server := &http.Server{Handler: mux}
	if err := server.Serve(ln); err != nil {
		logger.Error("Failed to serve requests", log.Error(err))
		os.Exit(1)
	}
}

// initMultiplexer initializes the HTTP multiplexer and registers the services.
func initMultiplexer() *http.ServeMux {

	mux := http.NewServeMux()
	serviceManager := managers.NewServiceManager(mux)

	if err := serviceManager.RegisterServices(constants.ApiBasePath); err != nil {
		log.GetLogger().Error("Failed to register the services", log.Error(err))
	}
	return mux
}

// initDatabaseSchema applies the bundled schema script against the configured
// database. Statements are idempotent; reruns are safe.
func initDatabaseSchema(casHome string) error {

	dbClient, err := provider.NewDBProvider().GetDBClient()
	if err != nil {
		return err
	}
	defer dbClient.Close()

	return dbClient.InitDatabase(casHome, constants.DatabaseSchemaFile)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getCASHome resolves the service home directory from the -casHome flag,
// falling back to the current working directory.
func getCASHome() string {

	casHomeFlag := flag.String("casHome", "", "Path to the customer aggregation service home directory")
	flag.Parse()

	if *casHomeFlag != "" {
		return *casHomeFlag
	}
	wd, err := os.Getwd()
	if err != nil {
		stdlog.Fatalf("Failed to resolve working directory: %v", err)
	}
	return wd
}
