package speech

import (
	"encoding/binary"
	"fmt"
	"os"
)

const (
	silentSampleRate  = 44100
	silentBitsPerSamp = 16
	silentChannels    = 1
)

// WriteSilentWAV writes a 16-bit mono PCM WAV file of silence. It is the
// synthesis fallback of last resort so a merge always has an audio track.
func WriteSilentWAV(path string, seconds float64) error {
	if seconds <= 0 {
		return fmt.Errorf("silent wav duration must be positive, got %v", seconds)
	}

	frames := int(seconds * silentSampleRate)
	bytesPerFrame := silentChannels * silentBitsPerSamp / 8
	dataSize := uint32(frames * bytesPerFrame)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer file.Close()

	header := make([]byte, 0, 44)
	header = append(header, []byte("RIFF")...)
	header = binary.LittleEndian.AppendUint32(header, 36+dataSize)
	header = append(header, []byte("WAVE")...)
	header = append(header, []byte("fmt ")...)
	header = binary.LittleEndian.AppendUint32(header, 16)
	header = binary.LittleEndian.AppendUint16(header, 1) // PCM
	header = binary.LittleEndian.AppendUint16(header, silentChannels)
	header = binary.LittleEndian.AppendUint32(header, silentSampleRate)
	header = binary.LittleEndian.AppendUint32(header, silentSampleRate*uint32(bytesPerFrame))
	header = binary.LittleEndian.AppendUint16(header, uint16(bytesPerFrame))
	header = binary.LittleEndian.AppendUint16(header, silentBitsPerSamp)
	header = append(header, []byte("data")...)
	header = binary.LittleEndian.AppendUint32(header, dataSize)

	if _, err := file.Write(header); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}

	silence := make([]byte, 4096)
	remaining := int(dataSize)
	for remaining > 0 {
		chunk := min(remaining, len(silence))
		if _, err := file.Write(silence[:chunk]); err != nil {
			return fmt.Errorf("write wav data: %w", err)
		}
		remaining -= chunk
	}
	return nil
}
