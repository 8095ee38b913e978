package config

import (
	"os"
	"strings"
)

// ImportSyncMode processes import runs inline in the upload request instead of
// dispatching them through Pub/Sub. Useful for local development and the CLI.
//
// Set via env:
// - IMPORT_SYNC=true
func ImportSyncMode() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("IMPORT_SYNC")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// ImportArchiveEnabled uploads the raw import files to Cloud Storage for audit.
// Requires GCS_BUCKET.
func ImportArchiveEnabled() bool {
	if strings.TrimSpace(os.Getenv("GCS_BUCKET")) == "" {
		return false
	}
	v := strings.ToLower(strings.TrimSpace(os.Getenv("IMPORT_ARCHIVE_DISABLED")))
	return !(v == "1" || v == "true" || v == "yes" || v == "y")
}
