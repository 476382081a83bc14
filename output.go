package glubview

import "bytes"

type frame struct {
	buf     bytes.Buffer
	capture bool
	block   string
}

// outputStack routes writes to the innermost open frame.
type outputStack struct {
	frames []*frame
}

func (o *outputStack) Write(p []byte) (int, error) {
	if len(o.frames) == 0 {
		return len(p), nil
	}
	return o.frames[len(o.frames)-1].buf.Write(p)
}

func (o *outputStack) depth() int {
	return len(o.frames)
}

func (o *outputStack) push(f *frame) {
	o.frames = append(o.frames, f)
}

func (o *outputStack) top() *frame {
	if len(o.frames) == 0 {
		return nil
	}
	return o.frames[len(o.frames)-1]
}

func (o *outputStack) pop() *frame {
	f := o.top()
	if f != nil {
		o.frames[len(o.frames)-1] = nil
		o.frames = o.frames[:len(o.frames)-1]
	}
	return f
}

// unwind discards all frames above depth and returns them, innermost first.
func (o *outputStack) unwind(depth int) []*frame {
	var popped []*frame
	for o.depth() > depth {
		popped = append(popped, o.pop())
	}
	return popped
}
