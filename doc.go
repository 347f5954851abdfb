// Package filecrate implements the upload coordination core of a file-storage
// backend: clients push bytes into an S3-compatible object store while file
// metadata (owner, path, size, folder) is persisted in a relational store.
//
// The central piece is the Coordinator, which owns the multipart transfer
// lifecycle: splitting a file into fixed-size parts, dispatching parts
// concurrently, tracking part completion, and atomically finalizing or
// aborting the transfer. Three upload paths share the one coordinator:
//
//   - Server-buffered relay: the server receives the whole file and streams
//     10 MiB parts to the object store itself (Coordinator.Upload).
//   - Client-driven multipart: the server issues per-part pre-signed URLs and
//     the client uploads directly, reporting ETags back out of band
//     (Begin / PresignPart / RegisterPart / Complete).
//   - Whole-object pre-signed PUT: a single short-lived URL for small files
//     with no multipart session at all (PresignPut / SaveFile).
//
// # Key Components
//
//   - Coordinator: multipart lifecycle, completion/abort decision, metadata commit
//   - SessionRegistry: in-flight uploads keyed by upload id, for the
//     client-driven protocol where each step arrives in a separate request
//   - ObjectStore: interface over the blob store (see the s3 package)
//   - MetadataRepo: interface over file/folder metadata (postgres, sqlite)
//
// Sessions live in process memory only. If the server restarts mid-upload the
// remote multipart upload is orphaned until the bucket's own expiry policy
// reclaims it; the reconcile sweep reports such drift.
//
// See the http package for the REST surface and the database package for
// metadata backends.
package filecrate
