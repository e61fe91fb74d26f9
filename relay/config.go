package relay

// Config is the relay server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// UploadDir is where incoming voice recordings are staged before
	// transcription. Empty means the system temp directory.
	UploadDir string
}
