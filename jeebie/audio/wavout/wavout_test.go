package wavout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/jeebie-core/jeebie/addr"
	"github.com/valerio/jeebie-core/jeebie/audio"
)

func TestWriter_RoundTrip(t *testing.T) {
	testCases := []struct {
		desc   string
		frames int
	}{
		{desc: "partial chunk", frames: 100},
		{desc: "several chunks", frames: chunkFrames*2 + 17},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.wav")
			w, err := Create(path, 22050)
			require.NoError(t, err)

			for i := 0; i < tC.frames; i++ {
				w.SetSamples(int16(i), int16(-i))
			}
			require.NoError(t, w.Close())
			assert.Equal(t, tC.frames, w.Frames())

			f, err := os.Open(path)
			require.NoError(t, err)
			defer f.Close()

			dec := wav.NewDecoder(f)
			require.True(t, dec.IsValidFile())
			assert.Equal(t, uint32(22050), dec.SampleRate)
			assert.Equal(t, uint16(2), dec.NumChans)
			assert.Equal(t, uint16(16), dec.BitDepth)

			buf, err := dec.FullPCMBuffer()
			require.NoError(t, err)
			require.Len(t, buf.Data, tC.frames*2)
			last := tC.frames - 1
			assert.Equal(t, last, buf.Data[last*2])
			assert.Equal(t, -last, buf.Data[last*2+1])
		})
	}
}

func TestWriter_RecordsAPU(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apu.wav")
	w, err := Create(path, audio.DefaultSampleRate)
	require.NoError(t, err)

	apu := audio.New(w)
	apu.Write(addr.NR22, 0xF0)
	apu.Write(addr.NR21, 0x80)
	apu.Write(addr.NR24, 0x87)
	for i := 0; i < 70224; i++ {
		apu.Tick(4)
	}
	require.NoError(t, w.Close())

	// four frames' worth of cycles at 44.1kHz
	assert.InDelta(t, 4*70224*audio.DefaultSampleRate/4194304, w.Frames(), 1)
}

func TestCreate_BadPath(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "missing", "out.wav"), 44100)
	assert.Error(t, err)
}
