package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hfadhel/consolepull/internal/metadata"
	"github.com/hfadhel/consolepull/internal/normalize"
	"github.com/hfadhel/consolepull/pkg/failure"
	"github.com/hfadhel/consolepull/pkg/fileutil"
	"github.com/hfadhel/consolepull/pkg/hashutil"
)

/*
Responsibilities
- Persist normalized tables as CSV files
- Ensure deterministic filenames: <prefix>_<dataset>.csv
- Hash the encoded artifact for integrity reporting

Output Characteristics
- Stable directory layout
- Header row always present, even for empty tables
- Overwrite-safe reruns
*/

type Sink interface {
	Write(
		outputDir string,
		prefix string,
		dataset string,
		table normalize.Table,
		hashAlgo hashutil.HashAlgo,
	) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	metadataSink metadata.MetadataSink
}

func NewLocalSink(
	metadataSink metadata.MetadataSink,
) LocalSink {
	return LocalSink{
		metadataSink: metadataSink,
	}
}

func (s *LocalSink) Write(
	outputDir string,
	prefix string,
	dataset string,
	table normalize.Table,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(outputDir, prefix, dataset, table, hashAlgo)
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
				metadata.NewAttr(metadata.AttrDataset, dataset),
				metadata.NewAttr(metadata.AttrWritePath, storageError.Path),
			},
		)
		return WriteResult{}, storageError
	}
	s.metadataSink.RecordArtifact(
		metadata.ArtifactCSV,
		writeResult.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, writeResult.Path()),
			metadata.NewAttr(metadata.AttrDataset, dataset),
			metadata.NewAttr(metadata.AttrContentHash, writeResult.ContentHash()),
		},
	)
	return writeResult, nil
}

func write(
	outputDir string,
	prefix string,
	dataset string,
	table normalize.Table,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	if err := fileutil.EnsureDir(outputDir); err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      outputDir,
		}
	}

	content, err := encodeCSV(table)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodeFailure,
			Path:      "",
		}
	}

	filename := prefix + "_" + dataset + ".csv"
	fullPath := filepath.Join(outputDir, filename)

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		cause := ErrCauseWriteFailure
		retryable := false
		if errors.Is(err, syscall.ENOSPC) {
			cause = ErrCauseDiskFull
			retryable = true
		}
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: retryable,
			Cause:     cause,
			Path:      fullPath,
		}
	}

	contentHash, err := hashutil.HashBytes(content, hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseEncodeFailure,
			Path:      fullPath,
		}
	}

	return NewWriteResult(fullPath, contentHash, table.RowCount()), nil
}

// encodeCSV renders the table with the header row first and every data row
// in the table's column order. Cells for columns a row lacks are empty.
func encodeCSV(table normalize.Table) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	columns := table.Columns()
	if err := writer.Write(columns); err != nil {
		return nil, err
	}

	record := make([]string, len(columns))
	for _, row := range table.Rows() {
		for i, column := range columns {
			record[i] = row[column]
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
