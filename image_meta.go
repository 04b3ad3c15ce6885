package magick

import (
	"sort"
	"strings"
)

// Artifact engine tuning value e.g. deskew:angle
func (img *Image) Artifact(name string) (string, bool) {
	if img.handle == nil {
		return "", false
	}
	return img.handle.Artifact(name)
}

// SetArtifact sets an engine tuning value consumed by subsequent operations
func (img *Image) SetArtifact(name, value string) {
	if img.handle != nil {
		img.handle.SetArtifact(name, value)
	}
}

// RemoveArtifact removes an engine tuning value
func (img *Image) RemoveArtifact(name string) {
	if img.handle != nil {
		img.handle.RemoveArtifact(name)
	}
}

// Attribute image property e.g. exif:Orientation, comment
func (img *Image) Attribute(name string) (string, bool) {
	if img.handle == nil {
		return "", false
	}
	return img.handle.Attribute(name)
}

// SetAttribute sets an image property
func (img *Image) SetAttribute(name, value string) {
	if img.handle != nil {
		img.handle.SetAttribute(name, value)
	}
}

// AttributeNames sorted image property names
func (img *Image) AttributeNames() []string {
	if img.handle == nil {
		return nil
	}
	names := img.handle.AttributeNames()
	sort.Strings(names)
	return names
}

// Profile profile of name e.g. exif, icc, xmp
func (img *Image) Profile(name string) (*ImageProfile, bool) {
	if img.handle == nil {
		return nil, false
	}
	name = strings.ToLower(name)
	data, ok := img.handle.Profile(name)
	if !ok || len(data) == 0 {
		return nil, false
	}
	return &ImageProfile{name: name, data: data}, true
}

// ColorProfile embedded icc or icm profile, nil when absent
func (img *Image) ColorProfile() (*ColorProfile, error) {
	for _, name := range []string{"icc", "icm"} {
		if p, ok := img.Profile(name); ok {
			return newColorProfile(name, p.Data())
		}
	}
	return nil, nil
}

// XmpProfile embedded xmp profile, nil when absent
func (img *Image) XmpProfile() (*XmpProfile, error) {
	p, ok := img.Profile("xmp")
	if !ok {
		return nil, nil
	}
	return NewXmpProfile(p.Data())
}

// SetProfile attaches the profile, replacing one of the same name.
// Setting a color profile does not convert pixels, see TransformColorSpace.
func (img *Image) SetProfile(profile Profile) error {
	if profile == nil {
		return argError("profile", "value cannot be nil")
	}
	if err := checkNotEmpty("name", profile.Name()); err != nil {
		return err
	}
	h, err := img.native()
	if err != nil {
		return err
	}
	err = img.magick.call("SetProfile", func() error {
		return h.SetProfile(profile.Name(), profile.Data())
	})
	return img.accept(err)
}

// RemoveProfile removes the profile of name
func (img *Image) RemoveProfile(name string) {
	if img.handle != nil {
		img.handle.RemoveProfile(strings.ToLower(name))
	}
}

// ProfileNames sorted names of the attached profiles
func (img *Image) ProfileNames() []string {
	if img.handle == nil {
		return nil
	}
	names := img.handle.ProfileNames()
	sort.Strings(names)
	return names
}

// Compare measures the distortion against reference
func (img *Image) Compare(reference *Image, metric ErrorMetric, channels Channels) (float64, error) {
	if err := checkImage("image", reference); err != nil {
		return 0, err
	}
	h, err := img.native()
	if err != nil {
		return 0, err
	}
	ref, err := reference.native()
	if err != nil {
		return 0, err
	}
	var distortion float64
	err = img.magick.call("Compare", func() (err error) {
		distortion, err = h.Compare(ref, metric, channels.Resolve())
		return
	})
	if err = img.accept(err); err != nil {
		return 0, err
	}
	return distortion, nil
}

// CompareDifference measures the distortion against reference and returns
// the difference image. The highlight colors of settings apply to this call only.
func (img *Image) CompareDifference(reference *Image, settings *CompareSettings, channels Channels) (float64, *Image, error) {
	if err := checkImage("image", reference); err != nil {
		return 0, nil, err
	}
	if settings == nil {
		return 0, nil, argError("settings", "value cannot be nil")
	}
	h, err := img.native()
	if err != nil {
		return 0, nil, err
	}
	ref, err := reference.native()
	if err != nil {
		return 0, nil, err
	}
	defer setArtifacts(h, settings.artifacts())()
	var (
		distortion float64
		diff       NativeImage
	)
	err = img.magick.call("CompareDifference", func() (err error) {
		distortion, diff, err = h.CompareDifference(ref, settings.Metric, channels.Resolve())
		return
	})
	if err = img.accept(err); err != nil {
		if diff != nil {
			diff.Destroy()
		}
		return 0, nil, err
	}
	return distortion, newImage(img.magick, diff, img.settings.Clone()), nil
}

// Statistics per channel statistics
func (img *Image) Statistics(channels Channels) (*Statistics, error) {
	h, err := img.native()
	if err != nil {
		return nil, err
	}
	var stats *Statistics
	err = img.magick.call("Statistics", func() (err error) {
		stats, err = h.Statistics(channels.Resolve())
		return
	})
	if err = img.accept(err); err != nil {
		return nil, err
	}
	return stats, nil
}

// setArtifacts sets the artifacts on h, the returned func restores the
// previous values and removes those that were unset
func setArtifacts(h NativeImage, artifacts map[string]string) func() {
	prev := make(map[string]*string, len(artifacts))
	for k, v := range artifacts {
		if old, ok := h.Artifact(k); ok {
			prev[k] = &old
		} else {
			prev[k] = nil
		}
		h.SetArtifact(k, v)
	}
	return func() {
		for k, old := range prev {
			if old != nil {
				h.SetArtifact(k, *old)
			} else {
				h.RemoveArtifact(k)
			}
		}
	}
}
