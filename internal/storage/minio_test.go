package storage

import (
	"bytes"
	"context"
	"testing"
)

func TestMinioStorage_PublicURL(t *testing.T) {
	tests := []struct {
		name   string
		config MinioConfig
		key    string
		want   string
	}{
		{
			name: "derived from endpoint with SSL",
			config: MinioConfig{
				Endpoint:        "objects.example.com",
				AccessKeyID:     "key",
				SecretAccessKey: "secret",
				Bucket:          "releases",
				UseSSL:          true,
			},
			key:  "apks/1-app.apk",
			want: "https://objects.example.com/releases/apks/1-app.apk",
		},
		{
			name: "derived from endpoint without SSL",
			config: MinioConfig{
				Endpoint:        "localhost:9000",
				AccessKeyID:     "minioadmin",
				SecretAccessKey: "minioadmin",
				Bucket:          "releases",
			},
			key:  "apks/1-app.apk",
			want: "http://localhost:9000/releases/apks/1-app.apk",
		},
		{
			name: "explicit public base",
			config: MinioConfig{
				Endpoint:        "localhost:9000",
				AccessKeyID:     "minioadmin",
				SecretAccessKey: "minioadmin",
				Bucket:          "releases",
				PublicBase:      "https://cdn.example.com/",
			},
			key:  "apks/1-app.apk",
			want: "https://cdn.example.com/apks/1-app.apk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMinioStorage(tt.config)
			if err != nil {
				t.Fatalf("NewMinioStorage() unexpected error: %v", err)
			}
			if got := m.PublicURL(tt.key); got != tt.want {
				t.Errorf("PublicURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func newFakeMinioStorage(t *testing.T, f *fakeS3) *MinioStorage {
	t.Helper()
	m, err := NewMinioStorage(MinioConfig{
		Endpoint:        f.host(),
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		Bucket:          f.bucket,
		Region:          "us-east-1",
	})
	if err != nil {
		t.Fatalf("NewMinioStorage() unexpected error: %v", err)
	}
	return m
}

func TestMinioStorage_UploadSendsSinglePut(t *testing.T) {
	f := newFakeS3(t, "releases")
	m := newFakeMinioStorage(t, f)

	body := bytes.Repeat([]byte{0x50}, 1024)
	if err := m.Upload(context.Background(), "apks/1-app.apk", bytes.NewReader(body), int64(len(body)), PackageContentType); err != nil {
		t.Fatalf("Upload() unexpected error: %v", err)
	}

	obj, ok := f.object("apks/1-app.apk")
	if !ok {
		t.Fatal("object was not stored")
	}
	if obj.size != 1024 {
		t.Errorf("stored size = %d, want 1024", obj.size)
	}
	if obj.contentType != PackageContentType {
		t.Errorf("content type = %q, want %q", obj.contentType, PackageContentType)
	}
	if puts, multiparts, _ := f.counts(); puts != 1 || multiparts != 0 {
		t.Errorf("requests = %d puts, %d multipart, want a single put", puts, multiparts)
	}
}

func TestMinioStorage_List(t *testing.T) {
	f := newFakeS3(t, "releases")
	f.setPageSize(1)
	f.put("apks/2-b.apk", 5)
	f.put("apks/1-a.apk", 3)
	f.put("other/x.txt", 1)
	m := newFakeMinioStorage(t, f)

	objects, err := m.List(context.Background(), "apks/")
	if err != nil {
		t.Fatalf("List() unexpected error: %v", err)
	}
	if len(objects) != 2 || objects[0].Key != "apks/1-a.apk" || objects[1].Key != "apks/2-b.apk" {
		t.Fatalf("List() = %+v, want apks/1-a.apk then apks/2-b.apk", objects)
	}
	if objects[0].Size != 3 || !objects[0].LastModified.Equal(fakeModified) {
		t.Errorf("objects[0] = %+v, want size 3 modified %v", objects[0], fakeModified)
	}
}

func TestMinioStorage_Delete(t *testing.T) {
	f := newFakeS3(t, "releases")
	f.put("apks/1-a.apk", 3)
	m := newFakeMinioStorage(t, f)
	ctx := context.Background()

	if err := m.Delete(ctx, "apks/1-a.apk"); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if _, ok := f.object("apks/1-a.apk"); ok {
		t.Error("object still present after Delete()")
	}
	if err := m.Delete(ctx, "apks/404-missing.apk"); err != nil {
		t.Errorf("Delete() of missing key returned error: %v", err)
	}
}

func TestMinioStorage_BackendErrors(t *testing.T) {
	f := newFakeS3(t, "releases")
	f.denyAll()
	m := newFakeMinioStorage(t, f)
	ctx := context.Background()

	if err := m.Upload(ctx, "apks/1-a.apk", bytes.NewReader([]byte("a")), 1, PackageContentType); err == nil {
		t.Error("Upload() expected error")
	}
	if err := m.Delete(ctx, "apks/1-a.apk"); err == nil {
		t.Error("Delete() expected error")
	}
	if _, err := m.List(ctx, "apks/"); err == nil {
		t.Error("List() expected error")
	}
}
