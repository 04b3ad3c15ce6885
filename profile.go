package magick

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"seehuhn.de/go/icc"
	"seehuhn.de/go/xmp"
)

// Profile named binary profile attached to an image
type Profile interface {
	Name() string
	Data() []byte
}

// ImageProfile generic profile e.g. exif, iptc, 8bim
type ImageProfile struct {
	name string
	data []byte
}

// NewImageProfile creates a profile of name with data
func NewImageProfile(name string, data []byte) *ImageProfile {
	return &ImageProfile{name: strings.ToLower(name), data: data}
}

// Name profile name
func (p *ImageProfile) Name() string {
	return p.name
}

// Data profile bytes
func (p *ImageProfile) Data() []byte {
	return p.data
}

// ColorProfile icc color profile
type ColorProfile struct {
	ImageProfile
	colorSpace ColorSpace
	components int
}

// NewColorProfile decodes an icc profile
func NewColorProfile(data []byte) (*ColorProfile, error) {
	return newColorProfile("icc", data)
}

func newColorProfile(name string, data []byte) (*ColorProfile, error) {
	if len(data) == 0 {
		return nil, argError("data", "value cannot be empty")
	}
	// Decode zeroes the header fields covered by the profile id
	p, err := icc.Decode(bytes.Clone(data))
	if err != nil {
		return nil, NewException(CorruptImageWarning, "invalid color profile", err.Error())
	}
	colorSpace := ColorSpaceUndefined
	switch p.ColorSpace {
	case icc.GraySpace:
		colorSpace = ColorSpaceGray
	case icc.RGBSpace:
		colorSpace = ColorSpaceSRGB
	case icc.CMYKSpace:
		colorSpace = ColorSpaceCMYK
	case icc.CIELabSpace:
		colorSpace = ColorSpaceLab
	}
	return &ColorProfile{
		ImageProfile: ImageProfile{name: name, data: data},
		colorSpace:   colorSpace,
		components:   p.ColorSpace.NumComponents(),
	}, nil
}

//go:embed srgb.icc
var srgbProfile []byte

// ColorProfileSRGB the built in sRGB v4 matrix/TRC profile
func ColorProfileSRGB() *ColorProfile {
	p, err := NewColorProfile(srgbProfile)
	if err != nil {
		panic(err)
	}
	return p
}

// ColorSpace color space of the profile data
func (p *ColorProfile) ColorSpace() ColorSpace {
	return p.colorSpace
}

// Components number of color components
func (p *ColorProfile) Components() int {
	return p.components
}

// matches reports whether the profile describes pixels in colorSpace
func (p *ColorProfile) matches(colorSpace ColorSpace) bool {
	cs := p.ColorSpace()
	if cs == ColorSpaceUndefined || cs == colorSpace {
		return true
	}
	switch colorSpace {
	case ColorSpaceRGB, ColorSpaceSRGB, ColorSpaceScRGB:
		return cs == ColorSpaceSRGB
	case ColorSpaceGray, ColorSpaceLinearGray:
		return cs == ColorSpaceGray
	}
	return false
}

// XmpProfile xmp metadata profile
type XmpProfile struct {
	ImageProfile
	packet *xmp.Packet
}

// NewXmpProfile decodes an xmp packet
func NewXmpProfile(data []byte) (*XmpProfile, error) {
	if len(data) == 0 {
		return nil, argError("data", "value cannot be empty")
	}
	packet, err := xmp.Read(bytes.NewReader(data))
	if err != nil {
		return nil, NewException(CorruptImageWarning, "invalid xmp profile", err.Error())
	}
	return &XmpProfile{
		ImageProfile: ImageProfile{name: "xmp", data: data},
		packet:       packet,
	}, nil
}

// XmpProfileFromPacket encodes the packet as profile
func XmpProfileFromPacket(packet *xmp.Packet) (*XmpProfile, error) {
	if packet == nil {
		return nil, argError("packet", "value cannot be nil")
	}
	buf := &bytes.Buffer{}
	if err := packet.Write(buf, &xmp.PacketOptions{Pretty: true}); err != nil {
		return nil, fmt.Errorf("magick: encode xmp: %w", err)
	}
	return &XmpProfile{
		ImageProfile: ImageProfile{name: "xmp", data: buf.Bytes()},
		packet:       packet,
	}, nil
}

// Packet decoded xmp packet
func (p *XmpProfile) Packet() *xmp.Packet {
	return p.packet
}
