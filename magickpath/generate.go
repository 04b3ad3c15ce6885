package magickpath

import (
	"net/url"
	"strings"
)

// GeneratePath generate magick path by Params struct
func GeneratePath(p Params) string {
	var parts []string
	if p.Meta {
		parts = append(parts, "meta")
	}
	if len(p.Ops) > 0 {
		ops := make([]string, 0, len(p.Ops))
		for _, op := range p.Ops {
			ops = append(ops, op.Name+"("+op.Args+")")
		}
		parts = append(parts, opsPrefix+strings.Join(ops, ":"))
	}
	if strings.Contains(p.Image, "?") {
		p.Image = url.QueryEscape(p.Image)
	}
	parts = append(parts, p.Image)
	return strings.Join(parts, "/")
}

// GenerateUnsafe generate unsafe magick endpoint by Params struct
func GenerateUnsafe(p Params) string {
	return Generate(p, nil)
}

// Generate magick endpoint with signature by Params struct with signer
func Generate(p Params, signer Signer) string {
	imgPath := GeneratePath(p)
	if signer != nil {
		return signer.Sign(imgPath) + "/" + imgPath
	}
	return "unsafe/" + imgPath
}
