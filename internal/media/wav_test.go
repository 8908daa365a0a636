package media

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodePCM16WAVHeader(t *testing.T) {
	pcm := make([]byte, 320)
	wav := EncodePCM16WAV(pcm, 16000, 1)

	require.Len(t, wav, 44+len(pcm))
	require.Equal(t, "RIFF", string(wav[0:4]))
	require.Equal(t, "WAVE", string(wav[8:12]))
	require.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]), "channels")
	require.Equal(t, uint32(16000), binary.LittleEndian.Uint32(wav[24:28]), "sample rate")
	require.Equal(t, uint32(32000), binary.LittleEndian.Uint32(wav[28:32]), "byte rate")
	require.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]), "bits per sample")
	require.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
}

func TestDecodeWAVPCMRoundTrip(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	require.Equal(t, pcm, DecodeWAVPCM(EncodePCM16WAV(pcm, 16000, 1)))
}

func TestDecodeWAVPCMRejectsGarbage(t *testing.T) {
	require.Nil(t, DecodeWAVPCM([]byte("not a wav")))
	require.Nil(t, DecodeWAVPCM(nil))
}
