// Package confloader loads layered configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags that were set)
//  2. Prefixed environment variables (EMPLO_*)
//  3. Alias environment variables (e.g. API_BASE_URL)
//  4. The YAML configuration file
//  5. Defaults
package confloader
