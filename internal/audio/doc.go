// Package audio plays synthesized PCM through the system audio device using
// oto/v3, and provides a MockPlayer for tests and dry runs.
package audio
