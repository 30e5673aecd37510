// Package config loads and watches the pwstrength configuration file.
//
// Top-level types:
//   - Config{Server, Bench, Log}: full tree parsed from YAML
//   - ServerConfig: http_port, broadcast_interval, auth, history
//   - AuthConfig: mode (apikey|none), key_env, header; Key() resolves the
//     expected key from the environment
//   - HistoryConfig: backend (memory|redis), ttl, redis connection settings
//   - BenchConfig: default iterations/rounds/warmup and the iteration ceiling
//   - LogConfig: level (debug|info|warn|error)
//
// Load(path) reads the YAML file, applies defaults, then validates enums and
// ranges. Default() returns the same defaults for callers without a file.
//
// Watch(ctx, path, onChange) uses fsnotify to reload the file on write or
// create and calls onChange with the new Config. A reload that fails to
// parse or validate is logged and skipped.
package config
