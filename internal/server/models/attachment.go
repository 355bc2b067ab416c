package models

// AttachmentTicket carries a presigned object-storage URL for a project
// attachment. The object itself never passes through the API server.
type AttachmentTicket struct {
	// Key is the object-storage key, "projects/<project id>/<name>".
	Key string
	// Method is the HTTP method the URL is signed for.
	Method string
	URL    string
}
