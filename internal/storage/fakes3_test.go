package storage

import (
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeS3 is a minimal path-style S3 endpoint holding object metadata only.
type fakeS3 struct {
	server *httptest.Server
	bucket string

	mu         sync.Mutex
	objects    map[string]fakeObject
	puts       int
	multiparts int
	listCalls  int
	pageSize   int
	deny       bool
}

type fakeObject struct {
	size        int64
	contentType string
}

type fakeListResult struct {
	XMLName               xml.Name        `xml:"ListBucketResult"`
	XMLNS                 string          `xml:"xmlns,attr"`
	Name                  string          `xml:"Name"`
	Prefix                string          `xml:"Prefix"`
	KeyCount              int             `xml:"KeyCount"`
	MaxKeys               int             `xml:"MaxKeys"`
	IsTruncated           bool            `xml:"IsTruncated"`
	NextContinuationToken string          `xml:"NextContinuationToken,omitempty"`
	Contents              []fakeListEntry `xml:"Contents"`
}

type fakeListEntry struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int64  `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
}

var fakeModified = time.Date(2025, 1, 21, 10, 30, 45, 0, time.UTC)

func newFakeS3(t *testing.T, bucket string) *fakeS3 {
	t.Helper()
	f := &fakeS3{
		bucket:   bucket,
		objects:  make(map[string]fakeObject),
		pageSize: 1000,
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	t.Cleanup(f.server.Close)
	return f
}

// host returns the endpoint without its scheme, as MinIO expects it.
func (f *fakeS3) host() string {
	return strings.TrimPrefix(f.server.URL, "http://")
}

func (f *fakeS3) put(key string, size int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = fakeObject{size: size, contentType: PackageContentType}
}

func (f *fakeS3) setPageSize(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageSize = n
}

func (f *fakeS3) denyAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deny = true
}

// counts returns the number of object puts, multipart initiations and list calls.
func (f *fakeS3) counts() (puts, multiparts, lists int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts, f.multiparts, f.listCalls
}

func (f *fakeS3) object(key string) (fakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	return obj, ok
}

func (f *fakeS3) serveHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deny {
		_, _ = io.Copy(io.Discard, r.Body)
		writeS3Error(w, http.StatusForbidden, "AccessDenied", "Access Denied")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")
	if bucket != f.bucket {
		writeS3Error(w, http.StatusNotFound, "NoSuchBucket", "The specified bucket does not exist")
		return
	}

	query := r.URL.Query()
	switch {
	case query.Has("uploads"):
		f.multiparts++
		writeS3Error(w, http.StatusNotImplemented, "NotImplemented", "multipart uploads are not supported")

	case r.Method == http.MethodPut && key != "":
		n, _ := io.Copy(io.Discard, r.Body)
		// Chunk-signed bodies carry framing; the decoded length is the object size.
		if decoded := r.Header.Get("X-Amz-Decoded-Content-Length"); decoded != "" {
			n, _ = strconv.ParseInt(decoded, 10, 64)
		}
		f.puts++
		f.objects[key] = fakeObject{size: n, contentType: r.Header.Get("Content-Type")}
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodDelete && key != "":
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodGet && key == "" && query.Get("list-type") == "2":
		f.listCalls++
		f.writeList(w, query.Get("prefix"), query.Get("continuation-token"))

	default:
		writeS3Error(w, http.StatusBadRequest, "InvalidRequest", r.Method+" "+r.URL.String())
	}
}

func (f *fakeS3) writeList(w http.ResponseWriter, prefix, token string) {
	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	start, _ := strconv.Atoi(token)
	end := min(start+f.pageSize, len(keys))

	result := fakeListResult{
		XMLNS:   "http://s3.amazonaws.com/doc/2006-03-01/",
		Name:    f.bucket,
		Prefix:  prefix,
		MaxKeys: f.pageSize,
	}
	for _, key := range keys[start:end] {
		result.Contents = append(result.Contents, fakeListEntry{
			Key:          key,
			LastModified: fakeModified.Format("2006-01-02T15:04:05.000Z"),
			ETag:         `"d41d8cd98f00b204e9800998ecf8427e"`,
			Size:         f.objects[key].size,
			StorageClass: "STANDARD",
		})
	}
	result.KeyCount = len(result.Contents)
	if end < len(keys) {
		result.IsTruncated = true
		result.NextContinuationToken = strconv.Itoa(end)
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, xml.Header)
	_ = xml.NewEncoder(w).Encode(result)
}

func writeS3Error(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, xml.Header+"<Error><Code>"+code+"</Code><Message>"+message+"</Message></Error>")
}
