// Package google manages OAuth2 authentication against the Google APIs,
// including the token cache on disk and authenticated HTTP clients for
// the Gmail, Calendar and People services.
package google
