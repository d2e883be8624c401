// Package weburl validates web references before they are fetched and
// derives readable names from them.
//
// ValidateURL rejects anything that is not an https URL to a public host:
// localhost, .local and .internal domains, and private or reserved IP
// literals are refused. IsPrivateIP is shared with the fetcher's dialer so
// that hostnames resolving to private ranges are refused at connect time.
//
// Slug turns a URL into a lowercase hyphenated name:
//
//	https://docs.example.com/guide/intro -> docs-example-com-guide-intro
package weburl
