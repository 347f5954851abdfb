// Package s3 is a minimal S3 REST client covering the operations the upload
// coordinator needs: multipart initiate/upload-part/complete/abort, object
// delete, bucket listing, and pre-signed URL issuance.
//
// Requests are signed with AWS Signature Version 4 (HMAC-SHA256) directly;
// there is no SDK dependency. Server-to-store calls carry the signature in
// the Authorization header, while pre-signed URLs embed it in query
// parameters so clients can upload without further credentials.
//
// The client works against AWS S3 and any S3-compatible store. With an
// explicit endpoint it uses path-style addressing; without one it targets
// the virtual-hosted bucket URL for the configured region.
package s3
