// Package main provides the entry point for the hospscan CLI.
//
// hospscan crawls a hospital directory website over a numeric ID range
// and extracts hospital profiles and per-department doctor listings
// into CSV files.
//
// Usage:
//
//	hospscan crawl
//	hospscan crawl 1-500
//
// See --help for all available options.
package main

// main is the entry point for hospscan.
func main() {
	Execute()
}
