package jeebie

import "github.com/valerio/jeebie-core/jeebie/video"

// teeScreen forwards pixels and frame completions to every screen.
type teeScreen []video.Screen

func (t teeScreen) SetPixel(x, y uint8, color video.GBColor) {
	for _, s := range t {
		s.SetPixel(x, y, color)
	}
}

func (t teeScreen) FrameComplete() {
	for _, s := range t {
		if sink, ok := s.(video.FrameSink); ok {
			sink.FrameComplete()
		}
	}
}
