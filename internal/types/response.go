package types

import (
	"bytes"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Response represents the result of fetching a request.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Headers are the response HTTP headers.
	Headers http.Header

	// Body is the raw response body bytes.
	Body []byte

	// Request is a reference to the original request.
	Request *Request

	// FinalURL is the URL after any redirects.
	FinalURL string

	// FetchDuration is how long the fetch took.
	FetchDuration time.Duration

	root *html.Node
	doc  *goquery.Document
}

// NewResponse creates a Response from an http.Response.
func NewResponse(req *Request, httpResp *http.Response, body []byte, duration time.Duration) *Response {
	return &Response{
		StatusCode:    httpResp.StatusCode,
		Headers:       httpResp.Header,
		Body:          body,
		Request:       req,
		FinalURL:      httpResp.Request.URL.String(),
		FetchDuration: duration,
	}
}

// NewBrowserResponse creates a Response from headless browser output.
func NewBrowserResponse(req *Request, body []byte, finalURL string, duration time.Duration) *Response {
	return &Response{
		StatusCode:    http.StatusOK,
		Headers:       make(http.Header),
		Body:          body,
		Request:       req,
		FinalURL:      finalURL,
		FetchDuration: duration,
	}
}

// Node returns the parsed HTML tree, lazily parsing the body once.
func (r *Response) Node() (*html.Node, error) {
	if r.root != nil {
		return r.root, nil
	}
	root, err := html.Parse(bytes.NewReader(r.Body))
	if err != nil {
		return nil, err
	}
	r.root = root
	return root, nil
}

// Document returns a goquery document sharing the tree returned by Node.
func (r *Response) Document() (*goquery.Document, error) {
	if r.doc != nil {
		return r.doc, nil
	}
	root, err := r.Node()
	if err != nil {
		return nil, err
	}
	r.doc = goquery.NewDocumentFromNode(root)
	return r.doc, nil
}

// BaseURL returns the URL relative links on this page resolve against.
func (r *Response) BaseURL() string {
	if r.FinalURL != "" {
		return r.FinalURL
	}
	if r.Request != nil {
		return r.Request.URLString()
	}
	return ""
}

// IsSuccess returns true if the response status is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
