package httpserver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/behrlich/go-tinyweb/internal/buffer"
)

// suffixType maps file extensions to Content-type values, matching the
// original's SUFFIX_TYPE table.
var suffixType = map[string]string{
	".html":  "text/html",
	".xml":   "text/xml",
	".xhtml": "application/xhtml+xml",
	".txt":   "text/plain",
	".rtf":   "application/rtf",
	".pdf":   "application/pdf",
	".word":  "application/nsword",
	".png":   "image/png",
	".gif":   "image/gif",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".au":    "audio/basic",
	".mpeg":  "video/mpeg",
	".mpg":   "video/mpeg",
	".avi":   "video/x-msvideo",
	".gz":    "application/x-gzip",
	".tar":   "application/x-tar",
	".css":   "text/css",
	".js":    "text/javascript",
}

var codeStatus = map[int]string{
	200: "OK",
	400: "Bad Request",
	403: "Forbidden",
	404: "Not Found",
}

var codePath = map[int]string{
	400: "/400.html",
	403: "/403.html",
	404: "/404.html",
}

// Response builds an HTTP/1.1 response, serving a file's contents via mmap
// without an intermediate copy, matching the original's HttpResponse.
type Response struct {
	code        int
	isKeepAlive bool
	path        string
	srcDir      string

	mmapped []byte
	fileLen int64
}

// Init prepares r to serve path relative to srcDir. code is -1 to let
// MakeResponse resolve it from the file's stat result.
func (r *Response) Init(srcDir, path string, isKeepAlive bool, code int) {
	r.UnmapFile()
	r.code = code
	r.isKeepAlive = isKeepAlive
	r.path = path
	r.srcDir = srcDir
	r.fileLen = 0
}

// UnmapFile releases any mmap'd region from a previous response, matching
// the original's UnmapFile/destructor pairing. Safe to call repeatedly.
func (r *Response) UnmapFile() {
	if r.mmapped != nil {
		unix.Munmap(r.mmapped)
		r.mmapped = nil
	}
}

// File returns the mmap'd file body, or nil if this response has no body
// (e.g. a generated error page appended directly to buff).
func (r *Response) File() []byte {
	return r.mmapped
}

// Code reports the resolved status code after MakeResponse has run.
func (r *Response) Code() int {
	return r.code
}

// MakeResponse resolves the status code from the target file, then appends
// the status line, headers, and content onto buff, matching the original's
// MakeResponse/AddStateLine_/AddHeader_/AddContent_ sequence. If path
// attempts to traverse outside srcDir, code is forced to 403 before the stat
// check runs (a check the original omits entirely).
func (r *Response) MakeResponse(buff *buffer.Buffer) error {
	if !sanitizePath(r.path) {
		r.code = 403
	}

	fullPath := filepath.Join(r.srcDir, r.path)
	info, err := os.Stat(fullPath)
	switch {
	case r.code == 403:
		// already forced above
	case err != nil || info.IsDir():
		r.code = 404
	case info.Mode().Perm()&0o004 == 0:
		r.code = 403
	case r.code == -1 || r.code == 0:
		r.code = 200
	}

	r.resolveErrorPath()
	r.addStateLine(buff)
	r.addHeader(buff)
	return r.addContent(buff)
}

func (r *Response) resolveErrorPath() {
	if p, ok := codePath[r.code]; ok {
		r.path = p
	}
}

func (r *Response) addStateLine(buff *buffer.Buffer) {
	status, ok := codeStatus[r.code]
	if !ok {
		r.code = 400
		status = codeStatus[400]
	}
	buff.AppendString(fmt.Sprintf("HTTP/1.1 %d %s\r\n", r.code, status))
}

func (r *Response) addHeader(buff *buffer.Buffer) {
	buff.AppendString("Connection: ")
	if r.isKeepAlive {
		buff.AppendString("keep-alive\r\n")
		buff.AppendString("keep-alive: max=6, timeout=120\r\n")
	} else {
		buff.AppendString("close\r\n")
	}
	buff.AppendString("Content-type: " + r.fileType() + "\r\n")
}

func (r *Response) fileType() string {
	ext := filepath.Ext(r.path)
	if ext == "" {
		return "text/plain"
	}
	if t, ok := suffixType[ext]; ok {
		return t
	}
	return "text/plain"
}

func (r *Response) addContent(buff *buffer.Buffer) error {
	fullPath := filepath.Join(r.srcDir, r.path)
	f, err := os.Open(fullPath)
	if err != nil {
		r.errorContent(buff, "File NotFound!")
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		r.errorContent(buff, "File NotFound!")
		return nil
	}

	mapped, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		r.errorContent(buff, "File NotFound!")
		return nil
	}
	r.mmapped = mapped
	r.fileLen = info.Size()

	buff.AppendString(fmt.Sprintf("Content-length: %d\r\n\r\n", r.fileLen))
	return nil
}

// errorContent appends a small generated error page directly into buff
// instead of mmapping a file, matching the original's ErrorContent.
func (r *Response) errorContent(buff *buffer.Buffer, msg string) {
	status, ok := codeStatus[r.code]
	if !ok {
		status = "Bad Request"
	}
	var body strings.Builder
	body.WriteString("<html><title>Error</title>")
	body.WriteString(`<body bgcolor="ffffff">`)
	fmt.Fprintf(&body, "%d : %s\n", r.code, status)
	body.WriteString("<p>" + msg + "</p>")
	body.WriteString("<hr><em>TinyWebServer</em></body></html>")

	buff.AppendString(fmt.Sprintf("Content-length: %d\r\n\r\n", body.Len()))
	buff.AppendString(body.String())
}


