// Package config provides configuration parsing for gated.
//
// The configuration is stored in gated.json. This package handles loading,
// saving, and validating configuration. Every field is optional.
//
// # Configuration File Structure
//
//	{
//	  "name": "catalog search",
//	  "server": {
//	    "host": "0.0.0.0",
//	    "port": 8080,
//	    "renderTimeout": "2s"
//	  },
//	  "catalog": {
//	    "backend": "s3",
//	    "bucket": "assets",
//	    "prefix": "public/",
//	    "region": "eu-west-1",
//	    "watchInterval": "10s"
//	  },
//	  "search": {
//	    "minQueryLength": 3,
//	    "limit": 50
//	  },
//	  "metrics": { "enabled": true, "path": "/metrics" },
//	  "tracing": { "enabled": false },
//	  "log": { "level": "info", "format": "json" }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
