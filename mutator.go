package magick

// Mutator runs engine transforms against an image and routes the
// resulting handle.
//
// The in-place mutator embedded in every Image replaces the image handle
// with each result and destroys the previous one, so calls can be chained.
// The mutator passed by Image.CloneAndMutate keeps the result in a single
// slot instead. A second transform before TakeResult fails with
// ErrOperationPending without calling the engine.
type Mutator struct {
	image  *Image
	clone  bool
	result NativeImage
}

func newInPlaceMutator(img *Image) *Mutator {
	return &Mutator{image: img}
}

func newCloneMutator(img *Image) *Mutator {
	return &Mutator{image: img, clone: true}
}

// HasResult reports whether a result is pending
func (m *Mutator) HasResult() bool {
	return m.result != nil
}

// TakeResult returns the pending handle and clears the slot.
// The caller owns the returned handle. The in-place mutator never holds
// a result and returns ErrNoResult.
func (m *Mutator) TakeResult() (NativeImage, error) {
	if m.result == nil {
		return nil, ErrNoResult
	}
	r := m.result
	m.result = nil
	return r, nil
}

// discard destroys a pending result that nobody is going to take
func (m *Mutator) discard() {
	if m.result != nil {
		m.result.Destroy()
		m.result = nil
	}
}

func (m *Mutator) source() (NativeImage, error) {
	if m.clone && m.result != nil {
		return nil, ErrOperationPending
	}
	return m.image.native()
}

// exec calls the engine through fn and routes its handle
func (m *Mutator) exec(operation string, fn func(h NativeImage) (NativeImage, error)) error {
	h, err := m.source()
	if err != nil {
		return err
	}
	var out NativeImage
	err = m.image.magick.call(operation, func() (err error) {
		out, err = fn(h)
		return
	})
	if err = m.image.accept(err); err != nil {
		if out != nil {
			out.Destroy()
		}
		return err
	}
	if out == nil {
		return NewException(ImageError, "engine returned no image", operation)
	}
	m.set(out)
	return nil
}

func (m *Mutator) set(out NativeImage) {
	if m.clone {
		m.result = out
		return
	}
	m.image.replace(out)
}

// current the handle the last operation produced
func (m *Mutator) current() NativeImage {
	if m.clone && m.result != nil {
		return m.result
	}
	return m.image.handle
}
