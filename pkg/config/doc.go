// Package config provides application configuration management from environment variables.
//
// # Overview
//
// Configuration comes from environment variables with sensible defaults. An optional YAML
// file named by CATALOG_CONFIG_FILE can supply the plugin list and permission defaults;
// environment variables override it.
//
// # Configuration Structure
//
// Server settings:
//
//	CATALOG_HOST="0.0.0.0"
//	CATALOG_PORT="8080"
//	CATALOG_HEALTH_PORT="9090"
//	CATALOG_READ_TIMEOUT="15s"
//
// Storage settings:
//
//	CATALOG_STORAGE_TYPE="sqlite"  # memory, sqlite, postgres
//	CATALOG_STORAGE_DSN="file:catalog.db"
//	CATALOG_CACHE_ENABLED="true"
//	CATALOG_CACHE_SIZE="1024"
//	CATALOG_CACHE_TTL="30s"
//	CATALOG_REDIS_URL="redis://localhost:6379"
//
// Plugins, in load order:
//
//	CATALOG_PLUGINS="datasettypes orggate audit"
//	CATALOG_PLUGIN_DIRS="/etc/catalog/plugins"
//
// Permission defaults:
//
//	CATALOG_AUTH_ANON_CREATE_DATASET="false"
//	CATALOG_AUTH_CREATE_UNOWNED_DATASET="false"
//	CATALOG_AUTH_CREATE_DATASET_IF_NOT_IN_ORGANIZATION="true"
//	CATALOG_AUTH_USER_CREATE_GROUPS="true"
//	CATALOG_AUTH_USER_CREATE_ORGANIZATIONS="true"
//	CATALOG_AUTH_USER_DELETE_GROUPS="true"
//	CATALOG_AUTH_USER_DELETE_ORGANIZATIONS="true"
//	CATALOG_AUTH_CREATE_USER_VIA_API="false"
//	CATALOG_AUTH_CREATE_USER_VIA_WEB="true"
//	CATALOG_AUTH_PUBLIC_USER_DETAILS="true"
//
// The same flags in YAML:
//
//	plugins:
//	  enabled: [datasettypes, orggate]
//	auth:
//	  anon_create_dataset: false
//
// Observability:
//
//	CATALOG_LOG_LEVEL="info"
//	CATALOG_METRICS_ENABLED="true"
//	CATALOG_OTEL_ENABLED="false"
//	CATALOG_OTEL_ENDPOINT="localhost:4317"
package config
