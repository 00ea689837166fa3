// Package config provides configuration parsing for fibre.
//
// The configuration is stored in fibre.yaml at the project root; fibre.json
// is accepted as well. This package handles loading, saving, and validating
// configuration.
//
// # Configuration File Structure
//
//	inspector:
//	  addr: localhost:7070
//	  allowedOrigins: ["http://localhost:5173"]
//	frames:
//	  interval: 16ms
//	transitions:
//	  durations:
//	    fade: 200ms
//	    instant: 0s
//	metrics:
//	  enabled: true
//	  namespace: fibre
//	log:
//	  level: debug
//	  format: json
//	snapshots:
//	  backend: s3
//	  s3:
//	    bucket: my-bucket
//	    region: eu-west-1
//	    prefix: snapshots/
//
// # Usage
//
//	cfg, err := config.LoadFromDir(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
