package magickpath

// Ops a slice of Op
type Ops []Op

// Params magick endpoint parameters
type Params struct {
	Params      bool   `json:"-"`
	Path        string `json:"path,omitempty"`
	Image       string `json:"image,omitempty"`
	Base64Image bool   `json:"base64_image,omitempty"`
	Unsafe      bool   `json:"unsafe,omitempty"`
	Hash        string `json:"hash,omitempty"`
	Meta        bool   `json:"meta,omitempty"`
	Ops         Ops    `json:"ops,omitempty"`
}

// Op single image operation of the endpoint, e.g. resize(100x50)
type Op struct {
	Name string `json:"name,omitempty"`
	Args string `json:"args,omitempty"`
}

// Format returns the args of the last format op, empty if none
func (p Params) Format() string {
	var format string
	for _, op := range p.Ops {
		if op.Name == "format" {
			format = op.Args
		}
	}
	return format
}
