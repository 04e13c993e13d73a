// Package fetch provides the HTTP client used to download directory pages.
//
// The client wraps resty with the behaviors every page fetch needs:
// retries with backoff on transient failures, a politeness delay between
// requests, a rotating browser User-Agent, per-site cookies and headers,
// a response body size cap, and charset normalization so downstream
// parsing always sees UTF-8 even when the site serves GBK.
package fetch
