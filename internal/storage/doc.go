// Package storage uploads extracted media to S3 and exposes the existence
// checks the extraction coordinator uses to skip work already done.
package storage
