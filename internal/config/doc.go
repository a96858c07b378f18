// Package config loads the ots configuration from a YAML file with
// environment variable overrides.
//
// Example:
//
//	database:
//	  path: /var/lib/ots/ots.db
//	remote:
//	  base_url: https://scores.example.com
//	  token: s3cret
//	  timeout: 10s
//	  retries: 3
//	sync:
//	  interval: 1m
//	  rate_per_second: 5
//	  batch_size: 1000
//	retention:
//	  match: 24h
//	  temp_player: 24h
//	cache:
//	  backend: redis
//	  redis_url: redis://localhost:6379/0
//	log:
//	  level: info
//	  format: json
//	metrics:
//	  address: :9090
package config
