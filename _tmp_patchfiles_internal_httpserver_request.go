// Package httpserver implements incremental HTTP/1.1 request parsing,
// response building over mmap'd files, and the per-connection read/process/
// write cycle, adapted from the original's HttpRequest, HttpResponse, and
// HttpConn (src/http/httprequest.hpp, httpresponse.hpp, httpconn.hpp).
package httpserver

import (
	"bytes"
	"context"
	"regexp"

	"github.com/behrlich/go-tinyweb/internal/buffer"
	"github.com/behrlich/go-tinyweb/internal/dbpool"
)

// parseState tracks progress through a single request's wire format, mapping
// onto the original's PARSE_STATE enum.
type parseState int

const (
	stateRequestLine parseState = iota
	stateHeader
	stateBody
	stateFinish
)

var (
	requestLineRe = regexp.MustCompile(`^(\S*) (\S*) HTTP/(\S*)$`)
	headerLineRe  = regexp.MustCompile(`^([^:]+): ?(.*)$`)
)

// defaultHTML is the set of extensionless paths that get ".html" appended,
// matching the original's DEFAULT_HTML_ set.
var defaultHTML = map[string]bool{
	"/index":    true,
	"/register": true,
	"/login":    true,
	"/welcome":  true,
	"/video":    true,
	"/picture":  true,
}

// authTag identifies /register.html and /login.html's auth behavior,
// matching the original's DEFAULT_HTML_TAG_ map.
const (
	tagRegister = 0
	tagLogin    = 1
)

var authPathTags = map[string]int{
	"/register.html": tagRegister,
	"/login.html":    tagLogin,
}

// Request holds one HTTP request's parsed wire data as it incrementally
// builds up across calls to Parse.
type Request struct {
	state parseState

	Method  string
	Path    string
	Version string
	Header  map[string]string
	Post    map[string]string
	body    string
}

// NewRequest returns a zeroed Request ready for Parse.
func NewRequest() *Request {
	return &Request{
		Header: make(map[string]string),
		Post:   make(map[string]string),
	}
}

// Reset clears r so it can be reused for the next request on a keep-alive
// connection, matching the original's re-Init per Process() call.
func (r *Request) Reset() {
	r.state = stateRequestLine
	r.Method = ""
	r.Path = ""
	r.Version = ""
	r.body = ""
	for k := range r.Header {
		delete(r.Header, k)
	}
	for k := range r.Post {
		delete(r.Post, k)
	}
}

// IsKeepAlive reports whether the client asked to keep the connection open
// on an HTTP/1.1 request, matching the original's IsKeepAlive.
func (r *Request) IsKeepAlive() bool {
	return r.Header["Connection"] == "keep-alive" && r.Version == "1.1"
}

// Parse consumes as many complete lines as buf currently holds, advancing
// r's state machine. It returns true once the request is fully parsed
// (stateFinish reached), false if buf holds no data yet or the request line
// failed to match, and an error only for conditions the original didn't
// model (request too large — see MaxRequestSize in internal/constants).
func (r *Request) Parse(buf *buffer.Buffer, db dbpool.Querier) (bool, error) {
	if buf.Readable() <= 0 {
		return false, nil
	}

	const crlf = "\r\n"
	for buf.Readable() > 0 && r.state != stateFinish {
		peek := buf.Peek()
		idx := bytes.Index(peek, []byte(crlf))

		var line []byte
		atEnd := idx < 0
		if atEnd {
			line = peek
		} else {
			line = peek[:idx]
		}

		switch r.state {
		case stateRequestLine:
			if !r.parseRequestLine(line) {
				return false, nil
			}
			r.parsePath()
		case stateHeader:
			r.parseHeaderLine(line)
			if buf.Readable() <= 2 {
				r.state = stateFinish
			}
		case stateBody:
			r.body = string(line)
			r.parsePost(db)
			r.state = stateFinish
		}

		if atEnd {
			r.state = stateFinish
			break
		}
		buf.Consume(idx + 2)
	}
	return r.state == stateFinish, nil
}

func (r *Request) parseRequestLine(line []byte) bool {
	m := requestLineRe.FindSubmatch(line)
	if m == nil {
		return false
	}
	r.Method = string(m[1])
	r.Path = string(m[2])
	r.Version = string(m[3])
	r.state = stateHeader
	return true
}

func (r *Request) parsePath() {
	if r.Path == "/" {
		r.Path = "/index.html"
		return
	}
	if defaultHTML[r.Path] {
		r.Path += ".html"
	}
}

func (r *Request) parseHeaderLine(line []byte) {
	m := headerLineRe.FindSubmatch(line)
	if m == nil {
		r.state = stateBody
		r