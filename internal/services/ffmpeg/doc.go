// Package ffmpeg shells out to ffmpeg for screenshot, clip and GIF
// extraction from downloaded videos.
package ffmpeg
