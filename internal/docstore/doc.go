// Package docstore persists processed content items in MongoDB and is the
// source of truth for whether a video has already been turned into an
// article.
package docstore
