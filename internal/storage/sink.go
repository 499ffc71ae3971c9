package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rohmanhakim/docs-crawler/internal/metadata"
	"github.com/rohmanhakim/docs-crawler/internal/normalize"
	"github.com/rohmanhakim/docs-crawler/pkg/failure"
	"github.com/rohmanhakim/docs-crawler/pkg/fileutil"
	"github.com/rohmanhakim/docs-crawler/pkg/hashutil"
)

/*
Responsibilities
- Persist Markdown files
- Write screenshots
- Ensure deterministic filenames

Output Characteristics
- Stable directory layout
- Idempotent writes
- Overwrite-safe reruns
*/

type Sink interface {
	Write(
		outputDir string,
		normalizedDoc normalize.NormalizedMarkdownDoc,
		hashAlgo hashutil.HashAlgo,
	) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	metadataSink metadata.MetadataSink
	mediaDir     string
}

// NewLocalSink takes the media directory screenshots are rooted under
//; Write's own outputDir argument stays caller-supplied so Markdown
// output can live in a different tree than screenshots.
func NewLocalSink(
	metadataSink metadata.MetadataSink,
	mediaDir string,
) LocalSink {
	return LocalSink{
		metadataSink: metadataSink,
		mediaDir:     mediaDir,
	}
}

// Save implements dynamicfetcher.ScreenshotSink. It never inspects ctx beyond
// honoring cancellation before the write - the underlying os.WriteFile call
// cannot itself be interrupted.
func (s *LocalSink) Save(ctx context.Context, targetID string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.mediaDir, targetID)
	if err := fileutil.EnsureDir(dir); err != nil {
		storageErr := s.classifyDirError(err, dir)
		s.recordWriteError(storageErr, targetID)
		return "", storageErr
	}

	filename := fmt.Sprintf("screenshot-%s.png", time.Now().UTC().Format("20060102T150405.000Z"))
	fullPath := filepath.Join(dir, filename)

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		storageErr := s.classifyWriteError(err, fullPath)
		s.recordWriteError(storageErr, targetID)
		return "", storageErr
	}

	s.metadataSink.RecordArtifact(
		metadata.ArtifactScreenshot,
		fullPath,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, fullPath),
			metadata.NewAttr(metadata.AttrField, targetID),
		},
	)
	return fullPath, nil
}

func (s *LocalSink) classifyDirError(err error, path string) *StorageError {
	var fileErr *fileutil.FileError
	if errors.As(err, &fileErr) && fileErr.Cause == fileutil.ErrCausePathError {
		return &StorageError{Message: err.Error(), Retryable: true, Cause: ErrCausePathError, Path: path}
	}
	return &StorageError{Message: err.Error(), Retryable: false, Cause: ErrCauseWriteFailure, Path: path}
}

func (s *LocalSink) classifyWriteError(err error, path string) *StorageError {
	if errors.Is(err, syscall.ENOSPC) {
		return &StorageError{Message: err.Error(), Retryable: true, Cause: ErrCauseDiskFull, Path: path}
	}
	return &StorageError{Message: err.Error(), Retryable: false, Cause: ErrCauseWriteFailure, Path: path}
}

func (s *LocalSink) recordWriteError(storageErr *StorageError, targetID string) {
	s.metadataSink.RecordError(
		time.Now(),
		"storage",
		"LocalSink.Save",
		mapStorageErrorToMetadataCause(storageErr),
		storageErr.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, storageErr.Path),
			metadata.NewAttr(metadata.AttrField, targetID),
		},
	)
}

func (s *LocalSink) Write(
	outputDir string,
	normalizedDoc normalize.NormalizedMarkdownDoc,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(outputDir, normalizedDoc, hashAlgo)
	if err != nil {
		var storageError *StorageError
		errors.As(err, &storageError)
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.Write",
			mapStorageErrorToMetadataCause(storageError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, normalizedDoc.Frontmatter().SourceURL()),
				metadata.NewAttr(metadata.AttrWritePath, storageError.Path),
			},
		)
		return WriteResult{}, storageError
	}
	s.metadataSink.RecordArtifact(
		metadata.ArtifactMarkdown,
		writeResult.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, writeResult.Path()),
			metadata.NewAttr(metadata.AttrURL, normalizedDoc.Frontmatter().SourceURL()),
			metadata.NewAttr(metadata.AttrField, writeResult.URLHash()),
			metadata.NewAttr(metadata.AttrField, writeResult.ContentHash()),
		},
	)
	return writeResult, nil
}

func write(
	outputDir string,
	normalizedDoc normalize.NormalizedMarkdownDoc,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	// Get canonical URL for filename hashing (per filename-invariants.md)
	canonicalURL := normalizedDoc.Frontmatter().CanonicalURL()

	// Hash the canonical URL using specified algorithm
	urlHashFull, err := hashutil.HashBytes([]byte(canonicalURL), hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseHashComputationFailed,
			Path:      "",
		}
	}

	// Use first 12 hex characters for filename (per user's requirement)
	urlHash := urlHashFull[:12]

	// Prepare output directory
	if err := fileutil.EnsureDir(outputDir); err != nil {
		var fileErr *fileutil.FileError
		if errors.As(err, &fileErr) {
			cause := ErrCauseWriteFailure
			retryable := false
			if fileErr.Cause == fileutil.ErrCausePathError {
				// Could be disk full or permission issue
				cause = ErrCausePathError
				retryable = true // disk full is retryable
			}
			return WriteResult{}, &StorageError{
				Message:   err.Error(),
				Retryable: retryable,
				Cause:     cause,
				Path:      outputDir,
			}
		}
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      outputDir,
		}
	}

	// Construct full file path: outputDir/<url_hash>.md
	filename := urlHash + ".md"
	fullPath := filepath.Join(outputDir, filename)

	// Write content to file
	content := normalizedDoc.Content()
	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		cause := ErrCauseWriteFailure
		retryable := false
		// Check if it's a disk full error (ENOSPC)
		if errors.Is(err, syscall.ENOSPC) {
			cause = ErrCauseDiskFull
			retryable = true // disk full is retryable
		}
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: retryable,
			Cause:     cause,
			Path:      fullPath,
		}
	}

	// Get content hash from frontmatter
	contentHash := normalizedDoc.Frontmatter().ContentHash()

	// Construct WriteResult
	writeResult := NewWriteResult(urlHash, fullPath, contentHash)
	return writeResult, nil
}
