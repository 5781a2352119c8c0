//go:build sdl2

package sdl2

import (
	"github.com/veandco/go-sdl2/sdl"

	"github.com/valerio/jeebie-core/jeebie/audio"
)

const (
	audioChannels      = 2
	audioDeviceSamples = 1024
	bytesPerSample     = 2
)

// audioOutput plays samples through a queued SDL audio device.
type audioOutput struct {
	id       sdl.AudioDeviceID
	maxQueue uint32
	scratch  []byte
}

func openAudio(rate int) (*audioOutput, error) {
	spec := &sdl.AudioSpec{
		Freq:     int32(rate),
		Format:   sdl.AUDIO_S16LSB,
		Channels: audioChannels,
		Samples:  audioDeviceSamples,
	}

	var actual sdl.AudioSpec
	id, err := sdl.OpenAudioDevice("", false, spec, &actual, 0)
	if err != nil {
		return nil, err
	}
	sdl.PauseAudioDevice(id, false)

	return &audioOutput{
		id: id,
		// about 100ms of stereo audio
		maxQueue: uint32(rate / 10 * audioChannels * bytesPerSample),
	}, nil
}

// queue moves every buffered sample to the device. When the device is
// already well ahead the samples are dropped instead, bounding latency.
func (o *audioOutput) queue(buffer *audio.Buffer) error {
	samples := buffer.GetSamples(buffer.Len())
	if len(samples) == 0 || sdl.GetQueuedAudioSize(o.id) > o.maxQueue {
		return nil
	}

	o.scratch = o.scratch[:0]
	for _, sample := range samples {
		o.scratch = append(o.scratch, byte(sample), byte(uint16(sample)>>8))
	}
	return sdl.QueueAudio(o.id, o.scratch)
}

func (o *audioOutput) close() {
	sdl.ClearQueuedAudio(o.id)
	sdl.CloseAudioDevice(o.id)
}
