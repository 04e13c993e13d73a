// Package config provides configuration structures and utilities for
// hospscan. It defines crawl settings (ID range, politeness, limits),
// output locations, and the optional .hospscan YAML file with per-site
// selector profiles.
package config
