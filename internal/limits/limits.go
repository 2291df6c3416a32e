package limits

// Size limits for API payloads, responses and files read from projects

const (
	// JSON is the standard size limit for API request/response payloads (1MB)
	JSON = 1 << 20

	// ErrorBody is the maximum size for error response bodies (1KB)
	// Used when parsing error messages from failed API calls
	ErrorBody = 1024

	// Manifest is the largest package.json shipyard will load (4MB)
	Manifest = 4 << 20

	// StreamLine caps a single NDJSON event line on the build stream (1MB)
	StreamLine = 1 << 20

	// OutputChunk is the read buffer for streamed process output (32KB)
	OutputChunk = 32 << 10
)
