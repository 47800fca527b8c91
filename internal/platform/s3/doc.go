// Package s3 talks to S3-compatible object storage (Hetzner Object Storage).
//
// It backs two claim kinds: the backup container (a bucket) and the cluster
// join token, stored as an object in the cluster's state bucket so a rerun
// with reuse_cluster_token binds the same secret.
package s3
