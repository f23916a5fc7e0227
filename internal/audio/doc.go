// Package audio plays finished conversions: MP3 downloads are decoded to PCM
// with ffmpeg and played through oto/v3.
package audio
