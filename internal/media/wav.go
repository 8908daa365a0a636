package media

import (
	"bytes"
	"encoding/binary"
)

// EncodePCM16WAV wraps raw little-endian PCM bytes in a minimal WAV container.
func EncodePCM16WAV(pcm []byte, sampleRate int, channels int) []byte {
	if channels <= 0 {
		channels = 1
	}
	const bitsPerSample = 16
	byteRate := sampleRate * channels * (bitsPerSample / 8)
	blockAlign := channels * (bitsPerSample / 8)

	chunkSize := uint32(36 + len(pcm))
	subChunk2Size := uint32(len(pcm))

	header := make([]byte, 44)
	copy(header[0:4], []byte("RIFF"))
	binary.LittleEndian.PutUint32(header[4:8], chunkSize)
	copy(header[8:12], []byte("WAVE"))
	copy(header[12:16], []byte("fmt "))
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], []byte("data"))
	binary.LittleEndian.PutUint32(header[40:44], subChunk2Size)

	var buf bytes.Buffer
	buf.Grow(44 + len(pcm))
	buf.Write(header)
	buf.Write(pcm)
	return buf.Bytes()
}

// DecodeWAVPCM extracts raw PCM bytes from a minimal WAV container.
//
// Only the 44-byte canonical header layout is handled, which is what both
// EncodePCM16WAV and espeak-ng produce.
func DecodeWAVPCM(wav []byte) []byte {
	if len(wav) <= 44 || !bytes.HasPrefix(wav, []byte("RIFF")) {
		return nil
	}
	return wav[44:]
}
