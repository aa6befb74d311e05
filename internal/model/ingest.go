package model

// IngestIssue records a non-fatal problem hit while ingesting one file.
type IngestIssue struct {
	FilePath string
	Message  string
}

// IngestStats summarizes a single ingest run over one home.
type IngestStats struct {
	FilesScanned   int
	FilesSkipped   int
	EventsInserted int
	BytesRead      uint64
	Issues         []IngestIssue
}
