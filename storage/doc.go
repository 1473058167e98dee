// Package storage keeps uploaded audio blobs until their job is consumed.
//
// Two backends register themselves with New: "local" writes under a data
// directory and serves files through the /files route; "s3" writes to a
// bucket and hands out presigned GET URLs. Keys are bare file names such as
// "3f2c...e1.m4a".
package storage
