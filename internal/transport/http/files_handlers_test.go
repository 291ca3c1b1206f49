package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func uploadFile(t *testing.T, baseURL, room, filename string, content []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	resp, err := http.Post(baseURL+"/upload/"+room, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("upload request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func listFiles(t *testing.T, baseURL, room string) []FileResponse {
	t.Helper()

	resp, err := http.Get(baseURL + "/files/" + room)
	if err != nil {
		t.Fatalf("list request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("list status: %d", resp.StatusCode)
	}

	var files []FileResponse
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	return files
}

func TestUploadDownloadDelete(t *testing.T) {
	ts, _ := startTestServer(t, 0)

	resp := uploadFile(t, ts.URL, "r1", "hello.txt", []byte("hello"))
	if resp.StatusCode != 200 {
		t.Fatalf("upload status: %d", resp.StatusCode)
	}
	var status StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if status.Status != "ok" || status.Filename != "hello.txt" {
		t.Fatalf("unexpected upload response: %+v", status)
	}

	files := listFiles(t, ts.URL, "r1")
	if len(files) != 1 || files[0].Filename != "hello.txt" || files[0].Size != 5 {
		t.Fatalf("unexpected listing: %+v", files)
	}

	dl, err := http.Get(ts.URL + "/download/r1/hello.txt")
	if err != nil {
		t.Fatalf("download request: %v", err)
	}
	defer dl.Body.Close()
	body, _ := io.ReadAll(dl.Body)
	if dl.StatusCode != 200 || string(body) != "hello" {
		t.Fatalf("download status=%d body=%q", dl.StatusCode, body)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/delete/r1/hello.txt", nil)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete request: %v", err)
	}
	del.Body.Close()
	if del.StatusCode != 200 {
		t.Fatalf("delete status: %d", del.StatusCode)
	}

	gone, err := http.Get(ts.URL + "/download/r1/hello.txt")
	if err != nil {
		t.Fatalf("download request: %v", err)
	}
	gone.Body.Close()
	if gone.StatusCode != 404 {
		t.Fatalf("expected 404 after delete, got %d", gone.StatusCode)
	}

	if files := listFiles(t, ts.URL, "r1"); len(files) != 0 {
		t.Fatalf("listing not empty after delete: %+v", files)
	}
}

func TestUploadTooLargeLeavesNoPartial(t *testing.T) {
	ts, dir := startTestServer(t, 1024)

	resp := uploadFile(t, ts.URL, "r1", "big.bin", bytes.Repeat([]byte("x"), 4096))
	if resp.StatusCode != 400 {
		t.Fatalf("oversize upload status: %d", resp.StatusCode)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Error != "file too large" {
		t.Fatalf("unexpected error body: %+v", errResp)
	}

	if _, err := os.Stat(filepath.Join(dir, "r1", "big.bin")); !os.IsNotExist(err) {
		t.Fatal("partial file left behind after rejected upload")
	}
	if files := listFiles(t, ts.URL, "r1"); len(files) != 0 {
		t.Fatalf("rejected upload was indexed: %+v", files)
	}
}

// repeating is an endless stream of one byte, for bodies far larger
// than anything the server should ever read.
type repeating byte

func (r repeating) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r)
	}
	return len(p), nil
}

type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// An upload body far past the cap must be cut off as it streams in, not
// read to the end and rejected afterwards.
func TestOversizeUploadRejectedWhileStreaming(t *testing.T) {
	ts, dir := startTestServer(t, 1024)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", "endless.bin")
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		// Stops when the client tears the connection down.
		io.Copy(part, io.LimitReader(repeating('x'), 1<<30))
		mw.Close()
		pw.Close()
	}()

	counter := &countingReader{r: pr}
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/upload/r1", counter)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	// The server may answer 400 before the body is fully sent, in which
	// case the client can also surface a send error. Either way it must
	// not have consumed anywhere near the full gigabyte.
	resp, err := http.DefaultClient.Do(req)
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode != 400 {
			t.Fatalf("oversize upload status: %d", resp.StatusCode)
		}
	}

	if sent := counter.n.Load(); sent > 8<<20 {
		t.Fatalf("server consumed %d bytes of an oversize upload", sent)
	}
	if _, err := os.Stat(filepath.Join(dir, "r1", "endless.bin")); !os.IsNotExist(err) {
		t.Fatal("partial file left behind after rejected upload")
	}
}

func TestUploadSkipsNonFileFields(t *testing.T) {
	ts, _ := startTestServer(t, 0)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("comment", "ignore me"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	part, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte("payload"))
	mw.Close()

	resp, err := http.Post(ts.URL+"/upload/r1", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("upload request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("upload status: %d", resp.StatusCode)
	}

	files := listFiles(t, ts.URL, "r1")
	if len(files) != 1 || files[0].Filename != "notes.txt" {
		t.Fatalf("unexpected listing: %+v", files)
	}
}

func TestUploadWithoutFilePart(t *testing.T) {
	ts, _ := startTestServer(t, 0)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("comment", "no file here")
	mw.Close()

	resp, err := http.Post(ts.URL+"/upload/r1", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("upload request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Error != "file is required" {
		t.Fatalf("unexpected error body: %+v", errResp)
	}
}

func TestDownloadMissingFile(t *testing.T) {
	ts, _ := startTestServer(t, 0)

	resp, err := http.Get(ts.URL + "/download/r1/ghost.txt")
	if err != nil {
		t.Fatalf("download request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDeleteMissingFile(t *testing.T) {
	ts, _ := startTestServer(t, 0)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/delete/r1/ghost.txt", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
