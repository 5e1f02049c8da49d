// Package s3 writes audit records to S3-compatible object storage.
//
// It is used by the dispatcher to archive one JSON document per webhook
// delivery. Any endpoint speaking the S3 API works (AWS, MinIO, Ceph RGW).
package s3
