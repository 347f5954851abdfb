package filecrate

import "errors"

var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInitiationFailed is returned when the object store refuses to open a multipart upload
	ErrInitiationFailed = errors.New("multipart initiation failed")
	// ErrInvalidPartNumber is returned for part numbers outside 1..expectedPartCount
	ErrInvalidPartNumber = errors.New("invalid part number")
	// ErrPartUploadFailed is returned when a server-side part transmission fails
	ErrPartUploadFailed = errors.New("part upload failed")
	// ErrSigningFailed is returned when a pre-signed URL cannot be produced
	ErrSigningFailed = errors.New("signing failed")
	// ErrDuplicatePart is returned when a part is re-registered with a different ETag
	ErrDuplicatePart = errors.New("duplicate part")
	// ErrUnknownSession is returned when no session exists for an upload id
	ErrUnknownSession = errors.New("unknown upload session")
	// ErrIncompletePartsSet is returned when completion is requested before every part is recorded
	ErrIncompletePartsSet = errors.New("incomplete parts set")
	// ErrFinalizationFailed is returned when the object store rejects the completion manifest
	ErrFinalizationFailed = errors.New("finalization failed")
	// ErrAbortFailed is returned when releasing a multipart upload fails; callers
	// on a failure path already carry a primary error, so this is usually logged
	ErrAbortFailed = errors.New("abort failed")
	// ErrMetadataPersistFailed signals that the object committed but its metadata
	// record did not; operators need this signal to reconcile
	ErrMetadataPersistFailed = errors.New("metadata persist failed")

	// ErrUnauthenticated is returned when no usable bearer token is presented
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when a bearer token fails verification
	ErrForbidden = errors.New("forbidden")
)
