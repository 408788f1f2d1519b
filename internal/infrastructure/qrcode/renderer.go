package qrcode

import (
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"
)

type Renderer struct {
	level goqrcode.RecoveryLevel
}

func NewRenderer() *Renderer {
	return &Renderer{level: goqrcode.Medium}
}

func (r *Renderer) RenderPNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qr content is empty")
	}
	return goqrcode.Encode(content, r.level, size)
}
