// Package config loads the client configuration.
//
// The file lives at ~/.config/fassr/config.toml unless a path is given. A
// missing file is not an error: every field has a default, and blank or
// non-positive values in the file fall back to it as well.
//
//	api_url = "http://127.0.0.1:8080"
//	token = ""                                    # bearer token, optional
//	cache_path = "~/.local/share/fassr/cache.db"  # warm-start cache + overlay
//	log_path = "~/.local/share/fassr/fassr.log"
//	log_level = "info"
//	page_size = 20
//	reconnect_seconds = 5                         # update stream backoff
//	refresh_seconds = 30                          # background refresh
//
// Paths starting with ~ are expanded against the user's home directory.
package config
