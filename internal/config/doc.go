// Package config loads the optional YAML configuration file of the
// workspace-mcp server.
//
// A file looks like:
//
//	permissions:
//	  gmail: organize
//	  drive: readonly
//	transport: streamable-http
//	http_addr: ":8080"
//	log:
//	  debug: false
//	  format: json
//	metrics:
//	  enabled: true
//	  addr: ":9090"
//	google:
//	  client_id: 1234.apps.googleusercontent.com
//
// permissions may also be written as a list ("- gmail:organize") or as a
// single comma separated string. Command line flags override file values.
package config
