package httptoken

import "github.com/tamirms/tokenindex"

// Header is a well-known HTTP header field name.
type Header uint8

const (
	HeaderUnknown Header = iota
	HeaderAccept
	HeaderAcceptCharset
	HeaderAcceptEncoding
	HeaderAcceptLanguage
	HeaderAuthorization
	HeaderCacheControl
	HeaderConnection
	HeaderContentEncoding
	HeaderContentLength
	HeaderContentType
	HeaderCookie
	HeaderDate
	HeaderExpect
	HeaderHost
	HeaderIfModifiedSince
	HeaderIfNoneMatch
	HeaderKeepAlive
	HeaderLocation
	HeaderOrigin
	HeaderProxyConnection
	HeaderRange
	HeaderReferer
	HeaderServer
	HeaderSetCookie
	HeaderTE
	HeaderTransferEncoding
	HeaderUpgrade
	HeaderUserAgent
	HeaderVia
	HeaderXForwardedFor
)

var headerNames = [...]string{
	HeaderUnknown:          "Unknown",
	HeaderAccept:           "Accept",
	HeaderAcceptCharset:    "Accept-Charset",
	HeaderAcceptEncoding:   "Accept-Encoding",
	HeaderAcceptLanguage:   "Accept-Language",
	HeaderAuthorization:    "Authorization",
	HeaderCacheControl:     "Cache-Control",
	HeaderConnection:       "Connection",
	HeaderContentEncoding:  "Content-Encoding",
	HeaderContentLength:    "Content-Length",
	HeaderContentType:      "Content-Type",
	HeaderCookie:           "Cookie",
	HeaderDate:             "Date",
	HeaderExpect:           "Expect",
	HeaderHost:             "Host",
	HeaderIfModifiedSince:  "If-Modified-Since",
	HeaderIfNoneMatch:      "If-None-Match",
	HeaderKeepAlive:        "Keep-Alive",
	HeaderLocation:         "Location",
	HeaderOrigin:           "Origin",
	HeaderProxyConnection:  "Proxy-Connection",
	HeaderRange:            "Range",
	HeaderReferer:          "Referer",
	HeaderServer:           "Server",
	HeaderSetCookie:        "Set-Cookie",
	HeaderTE:               "TE",
	HeaderTransferEncoding: "Transfer-Encoding",
	HeaderUpgrade:          "Upgrade",
	HeaderUserAgent:        "User-Agent",
	HeaderVia:              "Via",
	HeaderXForwardedFor:    "X-Forwarded-For",
}

// String returns the canonical spelling of the header name.
func (h Header) String() string {
	if int(h) < len(headerNames) {
		return headerNames[h]
	}
	return headerNames[HeaderUnknown]
}

// Field names are case-insensitive. The field index keys end in ':' so a
// best match on a header line stops at the name.
var (
	headers      = mustBuild(headerBuilder(""))
	headerFields = mustBuild(headerBuilder(":"))
)

func headerBuilder(suffix string) *tokenindex.Builder[Header] {
	b := tokenindex.NewBuilder[Header]()
	for h := HeaderAccept; int(h) < len(headerNames); h++ {
		b.With(h.String()+suffix, h)
	}
	return b
}

// ParseHeader returns the header named b, ignoring ASCII case.
func ParseHeader(b []byte) (Header, bool) {
	return headers.GetBytes(b)
}

// ParseHeaderSpan is ParseHeader over a span of a larger buffer.
func ParseHeaderSpan(s tokenindex.Span) (Header, bool) {
	return headers.GetSpan(s)
}

// LookAheadHeader returns the header whose name, followed by ':', starts
// line. Whitespace before the colon is not accepted.
func LookAheadHeader(line []byte) (Header, bool) {
	return headerFields.GetBestBytes(line)
}

// Stats reports the backends chosen for the method and header indexes.
func Stats() (method, header *tokenindex.Stats) {
	return methods.Stats(), headers.Stats()
}
