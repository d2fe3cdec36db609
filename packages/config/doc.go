// Package config loads client settings from a YAML file and HTTPCONNECT_
// environment variables and turns them into httpconnect client options.
//
// Example config file:
//
//	base_uri: https://api.example.com
//	timeout: 10s
//	user_agent: my-service/1.0
//	rate_limit: 20
//	burst: 5
//	headers:
//	  Accept: application/json
//
// Environment variables override file values; nested keys use a double
// underscore, e.g. HTTPCONNECT_TIMEOUT=5s or HTTPCONNECT_HEADERS__X-TEAM=core.
package config
