package live

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// EncodePCM16 converts float samples in [-1, 1] to 16-bit little-endian PCM
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := float64(s) * 32768
		if v > math.MaxInt16 {
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			v = math.MinInt16
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

// DecodePCM16 converts 16-bit little-endian PCM to float samples; a trailing odd byte is ignored
func DecodePCM16(data []byte) []float32 {
	out := make([]float32, len(data)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(data[i*2:]))) / 32768
	}
	return out
}

// EncodeBase64PCM encodes float samples as base64 16-bit PCM
func EncodeBase64PCM(samples []float32) string {
	return base64.StdEncoding.EncodeToString(EncodePCM16(samples))
}

// DecodeBase64PCM decodes base64 16-bit PCM to float samples
func DecodeBase64PCM(s string) ([]float32, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 audio: %w", err)
	}
	return DecodePCM16(data), nil
}

// DecodeFloat32LE decodes little-endian float32 mono samples
func DecodeFloat32LE(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("float32 frame length %d is not a multiple of 4", len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// PCMMimeType returns the MIME type tag for 16-bit PCM at rate
func PCMMimeType(rate int) string {
	return fmt.Sprintf("audio/pcm;rate=%d", rate)
}
