package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// testClient creates a Client backed by a test HTTP server.
// The handler receives real S3 XML-protocol requests.
func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := s3.New(s3.Options{
		Region:       "fsn1",
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
		HTTPClient: &http.Client{
			Transport: &http.Transport{},
		},
	})
	return &Client{s3: client, region: "fsn1"}
}

func xmlResponse(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

const errorBody = `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>%s</Code>
  <Message>%s</Message>
</Error>`

func s3Error(code, message string) string {
	return strings.Replace(strings.Replace(errorBody, "%s", code, 1), "%s", message, 1)
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	client, err := NewClient(context.Background(), "https://fsn1.your-objectstorage.com", "fsn1", "key", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Region() != "fsn1" {
		t.Errorf("expected region fsn1, got %s", client.Region())
	}

	if _, err := NewClient(context.Background(), "", "fsn1", "key", "secret"); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}

func TestCreateBucket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantExisted bool
		wantErr     string
	}{
		{"created", 200, `<?xml version="1.0" encoding="UTF-8"?><CreateBucketResult/>`, false, ""},
		{"already owned", 409, s3Error("BucketAlreadyOwnedByYou", "you already own it"), true, ""},
		{"owned by someone else", 409, s3Error("BucketAlreadyExists", "taken"), false, "failed to create bucket lab-storage-backups"},
		{"denied", 403, s3Error("AccessDenied", "Access Denied"), false, "failed to create bucket lab-storage-backups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				xmlResponse(w, tt.status, tt.body)
			}))

			existed, err := client.CreateBucket(context.Background(), "lab-storage-backups")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if existed != tt.wantExisted {
				t.Errorf("existed = %v, want %v", existed, tt.wantExisted)
			}
		})
	}
}

func TestBucketExists(t *testing.T) {
	t.Parallel()

	found := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(200)
			return
		}
		w.WriteHeader(404)
	}))
	exists, err := found.BucketExists(context.Background(), "b")
	if err != nil || !exists {
		t.Fatalf("expected bucket to exist, got %v, %v", exists, err)
	}

	missing := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(404)
	}))
	exists, err = missing.BucketExists(context.Background(), "b")
	if err != nil || exists {
		t.Fatalf("expected missing bucket, got %v, %v", exists, err)
	}

	denied := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(403)
	}))
	if _, err := denied.BucketExists(context.Background(), "b"); err == nil {
		t.Fatal("expected error for forbidden bucket")
	}
}

func TestPutAndGetObject(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	objects := map[string][]byte{}

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			objects[r.URL.Path] = body
			w.WriteHeader(200)
		case http.MethodGet:
			data, ok := objects[r.URL.Path]
			if !ok {
				xmlResponse(w, 404, s3Error("NoSuchKey", "The specified key does not exist."))
				return
			}
			w.WriteHeader(200)
			_, _ = w.Write(data)
		default:
			w.WriteHeader(405)
		}
	}))

	ctx := context.Background()
	if _, found, err := client.GetObject(ctx, "state", "tokens/lab-cluster-token"); err != nil || found {
		t.Fatalf("expected missing object, got found=%v err=%v", found, err)
	}

	if err := client.PutObject(ctx, "state", "tokens/lab-cluster-token", []byte("s3cr3t")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, found, err := client.GetObject(ctx, "state", "tokens/lab-cluster-token")
	if err != nil || !found {
		t.Fatalf("expected object, got found=%v err=%v", found, err)
	}
	if string(data) != "s3cr3t" {
		t.Errorf("got %q, want s3cr3t", data)
	}
}

func TestListObjects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		wantKeys []string
		wantErr  string
	}{
		{
			name:   "keys under prefix",
			status: 200,
			body: `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
  <Name>state</Name>
  <Prefix>tokens/lab-cluster-token/</Prefix>
  <KeyCount>2</KeyCount>
  <MaxKeys>1000</MaxKeys>
  <IsTruncated>false</IsTruncated>
  <Contents><Key>tokens/lab-cluster-token/000001</Key></Contents>
  <Contents><Key>tokens/lab-cluster-token/000002</Key></Contents>
</ListBucketResult>`,
			wantKeys: []string{"tokens/lab-cluster-token/000001", "tokens/lab-cluster-token/000002"},
		},
		{name: "missing bucket", status: 404, body: s3Error("NoSuchBucket", "The specified bucket does not exist")},
		{name: "denied", status: 403, body: s3Error("AccessDenied", "Access Denied"), wantErr: "failed to list objects in bucket state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("prefix") != "tokens/lab-cluster-token/" {
					t.Errorf("unexpected prefix %q", r.URL.Query().Get("prefix"))
				}
				xmlResponse(w, tt.status, tt.body)
			}))

			keys, err := client.ListObjects(context.Background(), "state", "tokens/lab-cluster-token/")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(keys, ",") != strings.Join(tt.wantKeys, ",") {
				t.Errorf("got keys %v, want %v", keys, tt.wantKeys)
			}
		})
	}
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	if isBucketAlreadyOwnedByYou(nil) {
		t.Error("nil error must not be classified as owned bucket")
	}
	if isNotFoundError(nil) {
		t.Error("nil error must not be classified as not found")
	}
}
