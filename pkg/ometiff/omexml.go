package ometiff

import (
	"fmt"
	"strings"
)

const omeNamespace = "http://www.openmicroscopy.org/Schemas/OME/2016-06"

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// omeDescription builds the OME-XML block stored in the base sub-image's
// ImageDescription tag. Axis order is CYX; the physical pixel size is the
// reference input's, written once and never rescaled for sub-levels.
func omeDescription(p Params) string {
	var b strings.Builder

	pixelType := "uint16"
	if p.BitsPerSample == 8 {
		pixelType = "uint8"
	}

	base := p.Levels[0]
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	fmt.Fprintf(&b, `<OME xmlns=%q>`, omeNamespace)
	b.WriteString(`<Image ID="Image:0" Name="pyramid">`)
	fmt.Fprintf(&b,
		`<Pixels ID="Pixels:0" BigEndian="false" DimensionOrder="XYCZT" Interleaved="false"`+
			` Type=%q SizeX="%d" SizeY="%d" SizeC="%d" SizeZ="1" SizeT="1"`+
			` PhysicalSizeX="%g" PhysicalSizeXUnit="µm"`+
			` PhysicalSizeY="%g" PhysicalSizeYUnit="µm">`,
		pixelType, base.Width, base.Height, p.Channels,
		p.PixelSizeMicrometers, p.PixelSizeMicrometers)

	for i := 0; i < p.Channels; i++ {
		name := fmt.Sprintf("Channel_%d", i)
		if i < len(p.ChannelNames) && p.ChannelNames[i] != "" {
			name = p.ChannelNames[i]
		}
		fmt.Fprintf(&b, `<Channel ID="Channel:0:%d" Name="%s" SamplesPerPixel="1"/>`,
			i, xmlEscaper.Replace(name))
	}

	fmt.Fprintf(&b, `<TiffData IFD="0" PlaneCount="%d"/>`, p.Channels)
	b.WriteString(`</Pixels></Image></OME>`)
	return b.String()
}
