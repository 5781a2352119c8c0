package video

import "fmt"

const fifoSize = 8

// pixel is a fetched pixel waiting in a FIFO: a 2 bit color index, the
// object palette it uses (OBP0/OBP1) and the object's BG priority bit.
type pixel struct {
	color    uint8
	palette  uint8
	priority bool
}

// pixelFIFO is a fixed 8 slot ring buffer.
type pixelFIFO struct {
	slots [fifoSize]pixel
	head  int
	size  int
}

func (f *pixelFIFO) len() int {
	return f.size
}

func (f *pixelFIFO) push(p pixel) {
	if f.size == fifoSize {
		panic(fmt.Sprintf("video: pixel FIFO overflow (%d entries)", f.size+1))
	}
	f.slots[(f.head+f.size)%fifoSize] = p
	f.size++
}

func (f *pixelFIFO) pop() pixel {
	if f.size == 0 {
		panic("video: pop from an empty pixel FIFO")
	}
	p := f.slots[f.head]
	f.head = (f.head + 1) % fifoSize
	f.size--
	return p
}

// at returns the i-th queued pixel, 0 being the next to pop.
func (f *pixelFIFO) at(i int) *pixel {
	return &f.slots[(f.head+i)%fifoSize]
}

func (f *pixelFIFO) clear() {
	f.head = 0
	f.size = 0
}
