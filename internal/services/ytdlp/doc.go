// Package ytdlp wraps the yt-dlp binary for video metadata resolution,
// audio and video downloads, and thumbnail retrieval.
package ytdlp
