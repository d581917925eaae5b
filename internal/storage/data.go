package storage

// Persistence

type WriteResult struct {
	path        string
	contentHash string
	rowCount    int
}

func NewWriteResult(
	path string,
	contentHash string,
	rowCount int,
) WriteResult {
	return WriteResult{
		path:        path,
		contentHash: contentHash,
		rowCount:    rowCount,
	}
}

func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) ContentHash() string {
	return w.contentHash
}

func (w *WriteResult) RowCount() int {
	return w.rowCount
}
