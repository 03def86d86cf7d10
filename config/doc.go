// Package config loads the YAML configuration used by the reader, the
// availability engine and the pdfinspect command.
//
// A file only needs the keys it changes; everything else keeps the value
// from [Default]:
//
//	password: ${PDF_PASSWORD}
//	limits:
//	  max_parse_depth: 32
//	  max_decoded_size: 67108864
//	log:
//	  level: debug
//	  format: json
//	avail:
//	  tail_probe: 4096
//
// Limits set to zero fall back to core.DefaultLimits.
package config
