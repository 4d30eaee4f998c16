// Package engines contains the speech providers (OpenAI, ElevenLabs, Gemini
// and the local echo tone), a Router that picks one per request and degrades
// to echo when a provider cannot serve, and a Client for a remote synthesis
// endpoint. Every engine emits 16-bit little-endian mono PCM at SampleRate.
package engines
