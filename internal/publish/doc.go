// Package publish mirrors the output directory to an S3 compatible bucket.
//
// Objects are keyed by Prefix plus the artifact file name. An object whose
// remote size matches the local file is skipped; artifact names are content
// addressed, so equal names with equal sizes are treated as identical. The
// atlas is uploaded last so readers never see entries whose artifacts are
// not yet present.
package publish
