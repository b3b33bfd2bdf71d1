// Package whisper provides transcription by shelling out to whisperx via
// uvx, producing time-coded transcript segments.
package whisper
