// Package log provides logging for the crawler with automatic
// sanitization of sensitive values, built on top of the standard
// slog package.
//
// Crawl sessions often carry site cookies and custom headers loaded
// from the user's config file. The RedactHandler masks those values
// before they reach the log output, so verbose crawl logs can be
// shared without leaking session credentials.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	logger.Debug("request sent",
//	    "cookie", "session=abc123", // masked in output
//	    "url", "https://www.youlai.cn/yyk/hospindex/1/",
//	)
//
//	slog.SetDefault(logger)
package log
