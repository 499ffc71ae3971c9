package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rohmanhakim/docs-crawler/internal/metadata"
	"github.com/rohmanhakim/docs-crawler/internal/storage"
)

func TestLocalSink_Save_Success(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "storage-screenshot-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	mockSink := &metadataSinkMock{}
	sink := storage.NewLocalSink(mockSink, tempDir)

	data := []byte("fake-png-bytes")
	path, err := sink.Save(context.Background(), "course-42", data)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !strings.HasPrefix(path, filepath.Join(tempDir, "course-42")) {
		t.Errorf("expected path under %s, got %s", filepath.Join(tempDir, "course-42"), path)
	}
	if !strings.HasSuffix(path, ".png") {
		t.Errorf("expected .png extension, got %s", path)
	}

	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written screenshot: %v", err)
	}
	if string(written) != string(data) {
		t.Errorf("expected written content %q, got %q", data, written)
	}

	if !mockSink.recordArtifactCalled {
		t.Error("expected RecordArtifact to be called")
	}
	if mockSink.recordArtifactKind != metadata.ArtifactScreenshot {
		t.Errorf("expected artifact kind %v, got %v", metadata.ArtifactScreenshot, mockSink.recordArtifactKind)
	}
	if mockSink.recordErrorCalled {
		t.Error("expected RecordError not to be called for successful save")
	}
}

func TestLocalSink_Save_MultipleTargetsIsolated(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "storage-screenshot-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	mockSink := &metadataSinkMock{}
	sink := storage.NewLocalSink(mockSink, tempDir)

	path1, err := sink.Save(context.Background(), "course-1", []byte("a"))
	if err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	path2, err := sink.Save(context.Background(), "course-2", []byte("b"))
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	if filepath.Dir(path1) == filepath.Dir(path2) {
		t.Errorf("expected separate directories per target, got %s and %s", path1, path2)
	}
}

func TestLocalSink_Save_ContextCancelled(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "storage-screenshot-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	mockSink := &metadataSinkMock{}
	sink := storage.NewLocalSink(mockSink, tempDir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sink.Save(ctx, "course-1", []byte("a"))
	if err == nil {
		t.Error("expected error for cancelled context, got none")
	}
}

func TestLocalSink_Save_WriteFailure(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "storage-screenshot-test-ro-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer func() {
		os.Chmod(tempDir, 0755)
		os.RemoveAll(tempDir)
	}()
	os.Chmod(tempDir, 0555)

	mockSink := &metadataSinkMock{}
	sink := storage.NewLocalSink(mockSink, tempDir)

	_, err = sink.Save(context.Background(), "course-1", []byte("a"))
	if err == nil {
		t.Fatal("expected an error writing under a read-only media directory")
	}
	if !mockSink.recordErrorCalled {
		t.Error("expected RecordError to be called on failure")
	}
	if mockSink.recordErrorAction != "LocalSink.Save" {
		t.Errorf("expected action LocalSink.Save, got %s", mockSink.recordErrorAction)
	}
}
