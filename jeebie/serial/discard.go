package serial

import "io"

type discard struct{}

func (discard) WriteByte(byte) error { return nil }

// Discard is a serial output dropping every byte.
var Discard io.ByteWriter = discard{}
