// Package httptoken recognises HTTP methods and well-known header names in
// request bytes using prebuilt token indexes.
//
// The indexes are built once at package init and are read-only afterwards,
// so every function here is safe for concurrent use.
package httptoken

import "github.com/tamirms/tokenindex"

// Method is an HTTP request method.
type Method uint8

const (
	MethodUnknown Method = iota
	MethodGet
	MethodPost
	MethodHead
	MethodPut
	MethodOptions
	MethodDelete
	MethodTrace
	MethodConnect
	MethodMove
	MethodProxy
	MethodPri
)

var methodNames = [...]string{
	MethodUnknown: "UNKNOWN",
	MethodGet:     "GET",
	MethodPost:    "POST",
	MethodHead:    "HEAD",
	MethodPut:     "PUT",
	MethodOptions: "OPTIONS",
	MethodDelete:  "DELETE",
	MethodTrace:   "TRACE",
	MethodConnect: "CONNECT",
	MethodMove:    "MOVE",
	MethodProxy:   "PROXY",
	MethodPri:     "PRI",
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return methodNames[MethodUnknown]
}

var (
	// Method names are case-sensitive on the wire.
	methods = mustBuild(methodBuilder(""))

	// lookAhead holds "GET " style keys so a best match on the start of a
	// request line finds the method without first locating the space.
	lookAhead = mustBuild(methodBuilder(" "))
)

func methodBuilder(suffix string) *tokenindex.Builder[Method] {
	b := tokenindex.NewBuilder[Method](tokenindex.CaseSensitive(true))
	for m := MethodGet; int(m) < len(methodNames); m++ {
		b.With(m.String()+suffix, m)
	}
	return b
}

// ParseMethod returns the method named exactly s.
func ParseMethod(s string) (Method, bool) {
	return methods.Get(s)
}

// ParseMethodBytes is ParseMethod for a byte slice.
func ParseMethodBytes(b []byte) (Method, bool) {
	return methods.GetBytes(b)
}

// LookAheadMethod returns the method that starts request, which must be
// followed by a space. It does not allocate.
//
//	m, ok := httptoken.LookAheadMethod([]byte("GET /index.html HTTP/1.1"))
//	// m == MethodGet, ok == true
func LookAheadMethod(request []byte) (Method, bool) {
	return lookAhead.GetBestBytes(request)
}

// LookAheadMethodSpan is LookAheadMethod over a span of a larger buffer.
func LookAheadMethodSpan(s tokenindex.Span) (Method, bool) {
	return lookAhead.GetBestSpan(s)
}

func mustBuild[V any](b *tokenindex.Builder[V]) tokenindex.Index[V] {
	idx, err := b.Build()
	if err != nil {
		panic("httptoken: " + err.Error())
	}
	return idx
}
