package model

// EventType identifies a progress event emitted during a fetch run
type EventType string

const (
	EventAuthenticating     EventType = "authenticating"
	EventAuthenticated      EventType = "authenticated"
	EventDirectoryCreated   EventType = "directory_created"
	EventDownloadStarting   EventType = "download_starting"
	EventFetchingMetadata   EventType = "fetching_metadata"
	EventMetadataFetched    EventType = "metadata_fetched"
	EventDownloadInitiated  EventType = "download_initiated"
	EventDownloadProgress   EventType = "download_progress"
	EventDownloadCompleted  EventType = "download_completed"
	EventArchiveFound       EventType = "archive_found"
	EventExtractionStarted  EventType = "extraction_started"
	EventExtractionProgress EventType = "extraction_progress"
	EventArchiveRemoved     EventType = "archive_removed"
	EventCompleted          EventType = "completed"
)

// Event is a single progress notification. Only the fields relevant to Type are set.
type Event struct {
	Type    EventType
	Path    string   // Directory or archive path
	Size    int64    // Dataset size in bytes
	Done    int64    // Entries extracted, or bytes downloaded
	Total   int64    // Entries in archive, or bytes expected (0 if unknown)
	Listing []string // Top-level output directory contents
}
