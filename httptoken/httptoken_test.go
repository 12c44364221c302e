package httptoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamirms/tokenindex"
)

func TestParseMethod(t *testing.T) {
	for m := MethodGet; int(m) < len(methodNames); m++ {
		got, ok := ParseMethod(m.String())
		require.True(t, ok, m.String())
		assert.Equal(t, m, got)

		got, ok = ParseMethodBytes([]byte(m.String()))
		require.True(t, ok, m.String())
		assert.Equal(t, m, got)
	}

	for _, s := range []string{"get", "Get", "GE", "GETS", "", "UNKNOWN"} {
		_, ok := ParseMethod(s)
		assert.False(t, ok, s)
	}
}

func TestLookAheadMethod(t *testing.T) {
	tests := []struct {
		request string
		want    Method
		ok      bool
	}{
		{"GET /index.html HTTP/1.1\r\n", MethodGet, true},
		{"POST /form HTTP/1.1", MethodPost, true},
		{"OPTIONS * HTTP/1.1", MethodOptions, true},
		{"PRI * HTTP/2.0", MethodPri, true},
		{"PUT ", MethodPut, true},
		{"PUT", MethodUnknown, false},
		{"GETX / HTTP/1.1", MethodUnknown, false},
		{"get / HTTP/1.1", MethodUnknown, false},
		{"", MethodUnknown, false},
	}
	for _, tc := range tests {
		t.Run(tc.request, func(t *testing.T) {
			got, ok := LookAheadMethod([]byte(tc.request))
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLookAheadMethodSpan(t *testing.T) {
	buf := []byte("xxxxDELETE /item/7 HTTP/1.1")
	got, ok := LookAheadMethodSpan(tokenindex.Span{Buf: buf, Off: 4, Len: len(buf) - 4})
	require.True(t, ok)
	assert.Equal(t, MethodDelete, got)
}

func TestParseHeader(t *testing.T) {
	for _, name := range []string{"content-type", "CONTENT-TYPE", "Content-Type", "cOnTeNt-TyPe"} {
		h, ok := ParseHeader([]byte(name))
		require.True(t, ok, name)
		assert.Equal(t, HeaderContentType, h)
	}
	_, ok := ParseHeader([]byte("Content-Typo"))
	assert.False(t, ok)
	_, ok = ParseHeader([]byte("Content"))
	assert.False(t, ok)

	line := []byte("Host: example.com\r\nAccept-Encoding: gzip\r\n")
	h, ok := ParseHeaderSpan(tokenindex.Span{Buf: line, Off: 19, Len: 15})
	require.True(t, ok)
	assert.Equal(t, HeaderAcceptEncoding, h)
}

func TestLookAheadHeader(t *testing.T) {
	tests := []struct {
		line string
		want Header
		ok   bool
	}{
		{"Accept: */*", HeaderAccept, true},
		{"accept-encoding: gzip", HeaderAcceptEncoding, true},
		{"ACCEPT-LANGUAGE:en", HeaderAcceptLanguage, true},
		{"TE: trailers", HeaderTE, true},
		{"Accept-Foo: x", HeaderUnknown, false},
		{"Host : example.com", HeaderUnknown, false},
		{"X-Custom: 1", HeaderUnknown, false},
	}
	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			got, ok := LookAheadHeader([]byte(tc.line))
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	assert.Equal(t, "UNKNOWN", Method(200).String())
	assert.Equal(t, "Unknown", Header(200).String())
	for h := HeaderAccept; int(h) < len(headerNames); h++ {
		got, ok := ParseHeader([]byte(h.String()))
		require.True(t, ok, h.String())
		assert.Equal(t, h, got)
	}
}

func TestStats(t *testing.T) {
	method, header := Stats()
	assert.True(t, method.CaseSensitive)
	assert.False(t, header.CaseSensitive)
	assert.Equal(t, len(methodNames)-1, method.Keys)
	assert.Equal(t, len(headerNames)-1, header.Keys)
}

func BenchmarkLookAheadMethod(b *testing.B) {
	req := []byte("OPTIONS * HTTP/1.1\r\n")
	b.ReportAllocs()
	for b.Loop() {
		LookAheadMethod(req)
	}
}

func BenchmarkLookAheadHeader(b *testing.B) {
	line := []byte("Accept-Encoding: gzip, deflate\r\n")
	b.ReportAllocs()
	for b.Loop() {
		LookAheadHeader(line)
	}
}
